package services

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"house-flipping/models"
)

// HasBasementColumn is the 0/1 basement flag used by PriceByBasement.
const HasBasementColumn = "has_basement"

// PhysicalAttributes are the columns offered for house-count histograms.
var PhysicalAttributes = []string{
	models.ColBedrooms, models.ColBathrooms, models.ColFloors, models.ColWaterfront,
}

// PriceDistribution is the price histogram input for a zip-code selection.
// MinPrice, MaxPrice and AvgPrice describe the zip-code selection before the
// price range is applied, truncated to whole dollars.
type PriceDistribution struct {
	Rows     dataframe.DataFrame
	MinPrice float64
	MaxPrice float64
	AvgPrice float64
}

// DataOverview returns id followed by the selected attributes. With no
// attributes the whole frame is returned.
func (a *Aggregator) DataOverview(df dataframe.DataFrame, attributes []string) (dataframe.DataFrame, error) {
	if len(attributes) == 0 {
		return df, nil
	}
	names := []string{models.ColID}
	for _, attr := range attributes {
		if attr != models.ColID {
			names = append(names, attr)
		}
	}
	if err := requireColumns(df, names...); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("overview: %w", err)
	}
	return df.Select(names), nil
}

// IntRange returns the smallest and largest value of an integer column.
func IntRange(df dataframe.DataFrame, column string) (int, int, error) {
	vals, err := floatColumn(df, column)
	if err != nil {
		return 0, 0, err
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0, nil
	}
	return int(lo), int(hi), nil
}

// PriceByYearBuilt averages price per construction year within [from, to].
func (a *Aggregator) PriceByYearBuilt(df dataframe.DataFrame, from, to int) (dataframe.DataFrame, error) {
	built, err := floatColumn(df, models.ColYrBuilt)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("price by year built: %w", err)
	}
	sub := subsetRows(df, func(i int) bool {
		return built[i] >= float64(from) && built[i] <= float64(to)
	})
	return a.AverageBy(sub, []string{models.ColYrBuilt}, []string{models.ColPrice})
}

// PriceBySeason averages price per sale year and season.
func (a *Aggregator) PriceBySeason(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return a.AverageBy(df, []string{models.ColYear, models.ColSeason}, []string{models.ColPrice})
}

// PriceByAge compares the average price of new (old = 0) and old houses.
func (a *Aggregator) PriceByAge(df dataframe.DataFrame) (models.GroupComparison, error) {
	comps, err := a.compare(df, models.ColOld, models.ColPrice)
	if err != nil {
		return models.GroupComparison{}, err
	}
	return comps[0], nil
}

// PriceByWaterfront compares the average price of houses without and with a
// waterfront view.
func (a *Aggregator) PriceByWaterfront(df dataframe.DataFrame) (models.GroupComparison, error) {
	comps, err := a.compare(df, models.ColWaterfront, models.ColPrice)
	if err != nil {
		return models.GroupComparison{}, err
	}
	return comps[0], nil
}

// PriceByBasement compares average price and average lot area of houses
// without and with a basement.
func (a *Aggregator) PriceByBasement(df dataframe.DataFrame) (price, lot models.GroupComparison, err error) {
	base, err := floatColumn(df, models.ColSqftBase)
	if err != nil {
		return price, lot, fmt.Errorf("price by basement: %w", err)
	}
	flags := make([]int, len(base))
	for i, v := range base {
		if v > 0 {
			flags[i] = 1
		}
	}
	flagged := df.Mutate(series.New(flags, series.Int, HasBasementColumn))

	comps, err := a.compare(flagged, HasBasementColumn, models.ColPrice, models.ColSqftLot)
	if err != nil {
		return price, lot, err
	}
	return comps[0], comps[1], nil
}

// compare averages each measure for the 0 and 1 groups of flag. PctDiff is
// relative to the 0 group and undefined when a group is missing or its mean
// is zero.
func (a *Aggregator) compare(df dataframe.DataFrame, flag string, measures ...string) ([]models.GroupComparison, error) {
	avg, err := a.AverageBy(df, []string{flag}, measures)
	if err != nil {
		return nil, fmt.Errorf("compare by %s: %w", flag, err)
	}

	comps := make([]models.GroupComparison, len(measures))
	for i, m := range measures {
		comps[i] = models.GroupComparison{Feature: flag, Measure: m, Without: math.NaN(), With: math.NaN()}
	}
	if avg.Nrow() == 0 {
		return comps, nil
	}

	keys := avg.Col(flag).Float()
	for i, m := range measures {
		means := avg.Col(m + "_mean").Float()
		for r, k := range keys {
			switch k {
			case 0:
				comps[i].Without = means[r]
			case 1:
				comps[i].With = means[r]
			}
		}
		c := &comps[i]
		if math.IsNaN(c.Without) || math.IsNaN(c.With) {
			continue
		}
		r, err := ratio(math.Abs(c.With-c.Without), c.Without)
		if err != nil {
			a.logger.Debug("[commercial] %s %s: %v", flag, m, err)
			continue
		}
		c.PctDiff = roundHalfEven(r*100, 2)
		c.Defined = true
	}
	return comps, nil
}

// DateRange returns the first and last normalised sale dates.
func DateRange(df dataframe.DataFrame) (string, string, error) {
	if !hasColumn(df, models.ColDate) {
		return "", "", fmt.Errorf("date range: %w", models.ErrMissingKey)
	}
	var lo, hi string
	for _, d := range df.Col(models.ColDate).Records() {
		if lo == "" || d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return lo, hi, nil
}

// DailyPrice averages price per sale date within [from, to]. Dates are
// YYYY-MM-DD strings as produced by DeriveAll.
func (a *Aggregator) DailyPrice(df dataframe.DataFrame, from, to string) (dataframe.DataFrame, error) {
	if !hasColumn(df, models.ColDate) {
		return dataframe.DataFrame{}, fmt.Errorf("daily price: %w", models.ErrMissingKey)
	}
	dates := df.Col(models.ColDate).Records()
	sub := subsetRows(df, func(i int) bool { return dates[i] >= from && dates[i] <= to })
	return a.AverageBy(sub, []string{models.ColDate}, []string{models.ColPrice})
}

// PriceDistribution selects the prices of the given zip codes, or of every
// zip code when none of them is present, and keeps those in [minPrice, maxPrice].
func (a *Aggregator) PriceDistribution(df dataframe.DataFrame, zipcodes []int, minPrice, maxPrice float64) (*PriceDistribution, error) {
	if err := requireColumns(df, models.ColPrice, models.ColZipcode); err != nil {
		return nil, fmt.Errorf("price distribution: %w", err)
	}
	rows := df.Select([]string{models.ColPrice, models.ColZipcode})

	if len(zipcodes) > 0 {
		wanted := make(map[int]bool, len(zipcodes))
		for _, z := range zipcodes {
			wanted[z] = true
		}
		zips := rows.Col(models.ColZipcode).Float()
		selected := subsetRows(rows, func(i int) bool { return wanted[int(zips[i])] })
		if selected.Nrow() > 0 {
			rows = selected
		}
	}

	prices := defined(rows.Col(models.ColPrice).Float(), allRows(rows.Nrow()))
	dist := &PriceDistribution{MinPrice: math.NaN(), MaxPrice: math.NaN(), AvgPrice: math.NaN()}
	if len(prices) > 0 {
		lo, _ := aggregate(AggMin, prices)
		hi, _ := aggregate(AggMax, prices)
		mean, _ := aggregate(AggMean, prices)
		dist.MinPrice, dist.MaxPrice, dist.AvgPrice = math.Trunc(lo), math.Trunc(hi), math.Trunc(mean)
	}

	vals := rows.Col(models.ColPrice).Float()
	dist.Rows = subsetRows(rows, func(i int) bool { return vals[i] >= minPrice && vals[i] <= maxPrice })
	return dist, nil
}

// AttributeCounts counts houses per value of column.
func (a *Aggregator) AttributeCounts(df dataframe.DataFrame, column string) (dataframe.DataFrame, error) {
	return a.AverageBy(df, []string{column}, nil)
}
