package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"house-flipping/models"
	"house-flipping/utils"
)

// DateLayout is the layout of the normalised date column.
const DateLayout = "2006-01-02"

// oldBefore is the first construction year that is not considered old.
const oldBefore = 1960

var dateLayouts = []string{
	"20060102T150405",
	DateLayout,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"20060102",
	time.RFC3339,
}

// ParseDate parses a sale date in any of the layouts found in the source files.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", s, models.ErrType)
}

// SeasonOf returns the meteorological season of t. Boundaries are inclusive:
// Dec 1 to Feb 28/29 is winter, Mar 1 to May 31 spring, Jun 1 to Aug 31 summer
// and Sep 1 to Nov 30 autumn.
func SeasonOf(t time.Time) models.Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return models.Winter
	case time.March, time.April, time.May:
		return models.Spring
	case time.June, time.July, time.August:
		return models.Summer
	default:
		return models.Autumn
	}
}

// Deriver adds the descriptive columns the reports group and filter on.
type Deriver struct {
	logger *utils.Logger
}

// NewDeriver creates a Deriver with the given logger.
func NewDeriver(logger *utils.Logger) *Deriver {
	return &Deriver{logger: logger}
}

// DeriveAll normalises the date column to YYYY-MM-DD and adds month, year,
// season, price_sqft, old and to_renovate. Existing derived columns are
// replaced, so running it twice gives the same frame.
//
// price_sqft is NaN where sqft_living is zero; to_renovate is NaN for houses
// that were never renovated.
func (d *Deriver) DeriveAll(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(df, models.ColDate, models.ColPrice, models.ColSqftLiving,
		models.ColYrBuilt, models.ColYrRenovated); err != nil {
		return df, fmt.Errorf("derive: %w", err)
	}

	rawDates := df.Col(models.ColDate).Records()
	n := len(rawDates)
	dates := make([]string, n)
	months := make([]int, n)
	years := make([]int, n)
	seasons := make([]string, n)
	for i, raw := range rawDates {
		t, err := ParseDate(raw)
		if err != nil {
			return df, fmt.Errorf("derive row %d: %w", i, err)
		}
		dates[i] = t.Format(DateLayout)
		months[i] = int(t.Month())
		years[i] = t.Year()
		seasons[i] = string(SeasonOf(t))
	}

	prices := df.Col(models.ColPrice).Float()
	living := df.Col(models.ColSqftLiving).Float()
	built := df.Col(models.ColYrBuilt).Float()
	renovated := df.Col(models.ColYrRenovated).Float()

	priceSqft := make([]float64, n)
	old := make([]int, n)
	toRenovate := make([]float64, n)
	zeroArea := 0
	var areaErr error
	for i := 0; i < n; i++ {
		v, err := ratio(prices[i], living[i])
		if err != nil {
			zeroArea++
			areaErr = err
		}
		priceSqft[i] = v

		if built[i] < oldBefore {
			old[i] = 1
		}

		if renovated[i] != 0 && !math.IsNaN(renovated[i]) {
			toRenovate[i] = renovated[i] - built[i]
		} else {
			toRenovate[i] = math.NaN()
		}
	}

	if zeroArea > 0 {
		d.logger.Warn("[features] %d rows have sqft_living = 0, price_sqft left undefined: %v", zeroArea, areaErr)
	}

	out := df.Mutate(series.New(dates, series.String, models.ColDate)).
		Mutate(series.New(months, series.Int, models.ColMonth)).
		Mutate(series.New(years, series.Int, models.ColYear)).
		Mutate(series.New(seasons, series.String, models.ColSeason)).
		Mutate(series.New(priceSqft, series.Float, models.ColPriceSqft)).
		Mutate(series.New(old, series.Int, models.ColOld)).
		Mutate(series.New(toRenovate, series.Float, models.ColToRenovate))
	if out.Err != nil {
		return df, fmt.Errorf("derive: %w", out.Err)
	}

	d.logger.Debug("[features] Derived columns for %d rows", n)
	return out, nil
}
