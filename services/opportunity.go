package services

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"house-flipping/models"
	"house-flipping/utils"
)

// Markups and renovation costs of the flipping policy.
const (
	waterfrontMarkup = 1.5
	regularMarkup    = 1.3
	goodRenovation   = 0.07
	otherRenovation  = 0.12
	goodCondition    = 4
	okCondition      = 3
)

// OpportunitySelector flags houses worth buying under the fixed flipping policy:
// houses in good condition or with a waterfront view, priced below the average
// of their zip code.
type OpportunitySelector struct {
	logger     *utils.Logger
	aggregator *Aggregator
}

// NewOpportunitySelector creates a selector backed by the given aggregator.
func NewOpportunitySelector(logger *utils.Logger, aggregator *Aggregator) *OpportunitySelector {
	return &OpportunitySelector{logger: logger, aggregator: aggregator}
}

type candidate struct {
	row   int
	label string
}

// Select returns the opportunities of df with their projections and totals.
// A house qualifying both as good-condition and as waterfront candidate is
// excluded: only ids found in exactly one candidate set are kept.
func (s *OpportunitySelector) Select(df dataframe.DataFrame) (*models.OpportunityReport, error) {
	if err := requireColumns(df, models.ColID, models.ColPrice, models.ColZipcode,
		models.ColCondition, models.ColWaterfront); err != nil {
		return nil, fmt.Errorf("select opportunities: %w", err)
	}

	zipMeans, err := s.zipcodeMeans(df)
	if err != nil {
		return nil, err
	}

	ids := df.Col(models.ColID).Records()
	prices := df.Col(models.ColPrice).Float()
	zips := df.Col(models.ColZipcode).Records()
	conditions := df.Col(models.ColCondition).Float()
	waterfront := df.Col(models.ColWaterfront).Float()

	belowZipMean := func(i int) bool {
		mean, ok := zipMeans[zips[i]]
		return ok && prices[i] < mean
	}

	var candidates []candidate
	for i := 0; i < df.Nrow(); i++ {
		if conditions[i] >= goodCondition && belowZipMean(i) {
			candidates = append(candidates, candidate{row: i, label: models.ConditionGood})
		}
	}
	goodCount := len(candidates)
	for i := 0; i < df.Nrow(); i++ {
		if waterfront[i] > 0 && belowZipMean(i) {
			candidates = append(candidates, candidate{row: i, label: conditionLabel(conditions[i])})
		}
	}

	seen := make(map[string]int, len(candidates))
	for _, c := range candidates {
		seen[ids[c.row]]++
	}

	report := &models.OpportunityReport{}
	for _, c := range candidates {
		if seen[ids[c.row]] > 1 {
			continue
		}
		report.Opportunities = append(report.Opportunities, newOpportunity(df, c))
	}
	report.Totals = Totals(report.Opportunities)

	s.logger.Info("[opportunity] %d good-condition and %d waterfront candidates → %d opportunities",
		goodCount, len(candidates)-goodCount, len(report.Opportunities))
	return report, nil
}

func (s *OpportunitySelector) zipcodeMeans(df dataframe.DataFrame) (map[string]float64, error) {
	avg, err := s.aggregator.AverageBy(df, []string{models.ColZipcode}, []string{models.ColPrice})
	if err != nil {
		return nil, fmt.Errorf("select opportunities: %w", err)
	}
	means := make(map[string]float64, avg.Nrow())
	if avg.Nrow() == 0 {
		return means, nil
	}
	keys := avg.Col(models.ColZipcode).Records()
	vals := avg.Col(models.ColPrice + "_mean").Float()
	for i, k := range keys {
		means[k] = vals[i]
	}
	return means, nil
}

func conditionLabel(condition float64) string {
	switch {
	case condition >= goodCondition:
		return models.ConditionGood
	case condition == okCondition:
		return models.ConditionOK
	default:
		return models.ConditionPoor
	}
}

func newOpportunity(df dataframe.DataFrame, c candidate) *models.Opportunity {
	get := func(col string) float64 {
		if !hasColumn(df, col) {
			return math.NaN()
		}
		return df.Col(col).Elem(c.row).Float()
	}
	whole := func(col string) int {
		v := get(col)
		if math.IsNaN(v) {
			return 0
		}
		return int(v)
	}
	str := func(col string) string {
		if !hasColumn(df, col) {
			return ""
		}
		return df.Col(col).Elem(c.row).String()
	}

	o := &models.Opportunity{
		ID:           int64(get(models.ColID)),
		Date:         str(models.ColDate),
		PurcPrice:    get(models.ColPrice),
		Bedrooms:     get(models.ColBedrooms),
		Bathrooms:    get(models.ColBathrooms),
		SqftLiving:   get(models.ColSqftLiving),
		SqftLot:      get(models.ColSqftLot),
		Floors:       get(models.ColFloors),
		Waterfront:   whole(models.ColWaterfront),
		Condition:    c.label,
		SqftAbove:    get(models.ColSqftAbove),
		SqftBase:     get(models.ColSqftBase),
		YrBuilt:      whole(models.ColYrBuilt),
		YrRenovated:  whole(models.ColYrRenovated),
		Zipcode:      whole(models.ColZipcode),
		SqftLiving15: get(models.ColSqftLiving15),
		SqftLot15:    get(models.ColSqftLot15),
		Month:        whole(models.ColMonth),
		Year:         whole(models.ColYear),
		Season:       str(models.ColSeason),
		PriceSqft:    get(models.ColPriceSqft),
		Old:          whole(models.ColOld),
		ToRenovate:   get(models.ColToRenovate),
	}
	Price(o)
	return o
}

// Price fills the sale price, expenditure and profit projections of o from its
// purchase price, waterfront flag and condition label.
func Price(o *models.Opportunity) {
	if o.Waterfront >= 1 {
		o.SellPrice = o.PurcPrice * waterfrontMarkup
	} else {
		o.SellPrice = o.PurcPrice * regularMarkup
	}
	if o.Condition == models.ConditionGood {
		o.Expend = o.PurcPrice * goodRenovation
	} else {
		o.Expend = o.PurcPrice * otherRenovation
	}
	o.Profit = o.SellPrice - o.Expend - o.PurcPrice
}

// Totals sums the projections of a candidate set. An empty set has no defined
// return and reports a zero percentage.
func Totals(opps []*models.Opportunity) models.OpportunityTotals {
	var t models.OpportunityTotals
	var profit float64
	for _, o := range opps {
		profit += o.Profit
		t.TotalExpend += o.Expend
		t.TotalInvestment += o.PurcPrice
	}
	t.TotalProfit = roundHalfEven(profit, 2)

	r, err := ratio(t.TotalProfit, t.TotalInvestment)
	if err != nil {
		return t
	}
	t.ReturnPct = roundHalfEven(r*100, 2)
	t.ReturnDefined = true
	return t
}

// OpportunityFrame converts opportunities to a frame for export and display.
func OpportunityFrame(opps []*models.Opportunity) dataframe.DataFrame {
	n := len(opps)
	ids := make([]int, n)
	dates := make([]string, n)
	purc := make([]float64, n)
	beds := make([]float64, n)
	baths := make([]float64, n)
	living := make([]float64, n)
	lot := make([]float64, n)
	floorsCol := make([]float64, n)
	water := make([]int, n)
	cond := make([]string, n)
	above := make([]float64, n)
	base := make([]float64, n)
	built := make([]int, n)
	renov := make([]int, n)
	zips := make([]int, n)
	living15 := make([]float64, n)
	lot15 := make([]float64, n)
	months := make([]int, n)
	years := make([]int, n)
	seasons := make([]string, n)
	perSqft := make([]float64, n)
	old := make([]int, n)
	toRenov := make([]float64, n)
	sell := make([]float64, n)
	expend := make([]float64, n)
	profit := make([]float64, n)

	for i, o := range opps {
		ids[i] = int(o.ID)
		dates[i] = o.Date
		purc[i] = o.PurcPrice
		beds[i] = o.Bedrooms
		baths[i] = o.Bathrooms
		living[i] = o.SqftLiving
		lot[i] = o.SqftLot
		floorsCol[i] = o.Floors
		water[i] = o.Waterfront
		cond[i] = o.Condition
		above[i] = o.SqftAbove
		base[i] = o.SqftBase
		built[i] = o.YrBuilt
		renov[i] = o.YrRenovated
		zips[i] = o.Zipcode
		living15[i] = o.SqftLiving15
		lot15[i] = o.SqftLot15
		months[i] = o.Month
		years[i] = o.Year
		seasons[i] = o.Season
		perSqft[i] = o.PriceSqft
		old[i] = o.Old
		toRenov[i] = o.ToRenovate
		sell[i] = o.SellPrice
		expend[i] = o.Expend
		profit[i] = o.Profit
	}

	return dataframe.New(
		series.New(ids, series.Int, models.ColID),
		series.New(dates, series.String, models.ColDate),
		series.New(purc, series.Float, "purc_price"),
		series.New(beds, series.Float, models.ColBedrooms),
		series.New(baths, series.Float, models.ColBathrooms),
		series.New(living, series.Float, models.ColSqftLiving),
		series.New(lot, series.Float, models.ColSqftLot),
		series.New(floorsCol, series.Float, models.ColFloors),
		series.New(water, series.Int, models.ColWaterfront),
		series.New(cond, series.String, models.ColCondition),
		series.New(above, series.Float, models.ColSqftAbove),
		series.New(base, series.Float, models.ColSqftBase),
		series.New(built, series.Int, models.ColYrBuilt),
		series.New(renov, series.Int, models.ColYrRenovated),
		series.New(zips, series.Int, models.ColZipcode),
		series.New(living15, series.Float, models.ColSqftLiving15),
		series.New(lot15, series.Float, models.ColSqftLot15),
		series.New(months, series.Int, models.ColMonth),
		series.New(years, series.Int, models.ColYear),
		series.New(seasons, series.String, models.ColSeason),
		series.New(perSqft, series.Float, models.ColPriceSqft),
		series.New(old, series.Int, models.ColOld),
		series.New(toRenov, series.Float, models.ColToRenovate),
		series.New(sell, series.Float, "sell_price"),
		series.New(expend, series.Float, "expend"),
		series.New(profit, series.Float, "profit"),
	)
}
