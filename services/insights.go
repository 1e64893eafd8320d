package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/go-gota/gota/dataframe"

	"house-flipping/models"
	"house-flipping/utils"
)

var (
	titleColor   = color.New(color.FgMagenta, color.Bold)
	headingColor = color.New(color.FgYellow, color.Bold)
	valueColor   = color.New(color.FgGreen, color.Bold)
	alertColor   = color.New(color.FgRed, color.Bold)
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the headline numbers of a derived frame. Zero-price rows
// are left out of the price statistics.
func (s *InsightService) Generate(df dataframe.DataFrame) *models.Summary {
	summary := &models.Summary{}
	if df.Nrow() == 0 || !hasColumn(df, models.ColPrice) {
		return summary
	}

	summary.TotalHouses = df.Nrow()
	if hasColumn(df, models.ColZipcode) {
		zips := make(map[string]struct{})
		for _, z := range df.Col(models.ColZipcode).Records() {
			zips[z] = struct{}{}
		}
		summary.Zipcodes = len(zips)
	}

	var ids []float64
	if hasColumn(df, models.ColID) {
		ids = df.Col(models.ColID).Float()
	}

	prices := df.Col(models.ColPrice).Float()
	var total float64
	var priced int
	summary.MinPrice = math.Inf(1)
	for i, p := range prices {
		if math.IsNaN(p) || p <= 0 {
			continue
		}
		priced++
		total += p
		if p < summary.MinPrice {
			summary.MinPrice = p
		}
		if p > summary.MaxPrice {
			summary.MaxPrice = p
			if ids != nil {
				summary.MostExpensive = int64(ids[i])
			}
		}
	}

	if priced == 0 {
		summary.MinPrice = 0
		return summary
	}
	summary.AveragePrice = roundHalfEven(total/float64(priced), 2)
	summary.MinPrice = roundHalfEven(summary.MinPrice, 2)
	summary.MaxPrice = roundHalfEven(summary.MaxPrice, 2)
	return summary
}

func (s *InsightService) Print(w io.Writer, r *models.Summary, zipcodes dataframe.DataFrame) {
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	titleColor.Fprintf(w, "\n%s\n", sep)
	titleColor.Fprintf(w, "  🏠 KING COUNTY HOUSE FLIPPING REPORT\n")
	titleColor.Fprintf(w, "%s\n\n", sep)

	headingColor.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Run id            : %s\n", r.RunID)
	fmt.Fprintf(w, "  Source            : %s\n", r.Source)
	fmt.Fprintf(w, "  Houses            : %s\n", valueColor.Sprintf("%d", r.TotalHouses))
	fmt.Fprintf(w, "  Zip codes         : %s\n", valueColor.Sprintf("%d", r.Zipcodes))
	fmt.Fprintln(w)

	headingColor.Fprintf(w, "  Price Statistics\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price : %s\n", valueColor.Sprintf("$%.2f", r.AveragePrice))
		fmt.Fprintf(w, "  Minimum price : %s\n", valueColor.Sprintf("$%.2f", r.MinPrice))
		fmt.Fprintf(w, "  Maximum price : %s (id %d)\n", alertColor.Sprintf("$%.2f", r.MaxPrice), r.MostExpensive)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if len(r.Comparisons) > 0 {
		headingColor.Fprintf(w, "  Feature Comparisons\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, c := range r.Comparisons {
			if !c.Defined {
				fmt.Fprintf(w, "  %-14s %-10s not enough data\n", c.Feature, c.Measure)
				continue
			}
			fmt.Fprintf(w, "  %-14s %-10s without %12.2f | with %12.2f | diff %s\n",
				c.Feature, c.Measure, c.Without, c.With, valueColor.Sprintf("%.2f%%", c.PctDiff))
		}
		fmt.Fprintln(w)
	}

	headingColor.Fprintf(w, "  Most Expensive Zip Codes (average price)\n")
	fmt.Fprintf(w, "  %s\n", thin)
	printTopZipcodes(w, zipcodes, 5)
	fmt.Fprintln(w)

	headingColor.Fprintf(w, "  Business Opportunities\n")
	fmt.Fprintf(w, "  %s\n", thin)
	t := r.Opportunities
	fmt.Fprintf(w, "  Candidates    : %s\n", valueColor.Sprintf("%d", r.Candidates))
	if t.ReturnDefined {
		fmt.Fprintf(w, "  Total profit  : %s USD, %s of the initial investment\n",
			valueColor.Sprintf("%.2f", t.TotalProfit), valueColor.Sprintf("%.2f%%", t.ReturnPct))
	} else {
		fmt.Fprintf(w, "  Total profit  : %.2f USD, no investment to compare with\n", t.TotalProfit)
	}
	fmt.Fprintf(w, "  Investments   : %.2f USD\n", t.TotalInvestment)
	fmt.Fprintf(w, "  Expenditures  : %.2f USD\n", t.TotalExpend)

	titleColor.Fprintf(w, "\n%s\n\n", sep)
}

func printTopZipcodes(w io.Writer, zipcodes dataframe.DataFrame, limit int) {
	if zipcodes.Nrow() == 0 || !hasColumn(zipcodes, ZipPriceLabel) {
		fmt.Fprintf(w, "  No zip code data\n")
		return
	}

	type zipPrice struct {
		zip   string
		price float64
		count string
	}
	keys := zipcodes.Col(ZipLabel).Records()
	prices := zipcodes.Col(ZipPriceLabel).Float()
	counts := zipcodes.Col(ZipTotalLabel).Records()

	list := make([]zipPrice, len(keys))
	for i := range keys {
		list[i] = zipPrice{zip: keys[i], price: prices[i], count: counts[i]}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].price > list[j].price
	})
	if len(list) > limit {
		list = list[:limit]
	}

	top := list[0].price
	for _, z := range list {
		bar := ""
		if top > 0 && z.price > 0 {
			bar = strings.Repeat("█", int(z.price/top*30))
		}
		fmt.Fprintf(w, "  %-7s %-30s $%.2f (%s houses)\n", z.zip, bar, z.price, z.count)
	}
}
