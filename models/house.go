package models

import "time"

// Column names of the King County sales file. Names are case-sensitive.
const (
	ColID          = "id"
	ColDate        = "date"
	ColPrice       = "price"
	ColBedrooms    = "bedrooms"
	ColBathrooms   = "bathrooms"
	ColSqftLiving  = "sqft_living"
	ColSqftLot     = "sqft_lot"
	ColFloors      = "floors"
	ColWaterfront  = "waterfront"
	ColView        = "view"
	ColCondition   = "condition"
	ColGrade       = "grade"
	ColSqftBase    = "sqft_basement"
	ColYrBuilt     = "yr_built"
	ColYrRenovated = "yr_renovated"
	ColZipcode     = "zipcode"
	ColLat         = "lat"
	ColLong        = "long"
)

// Optional area columns of the sales file, carried into opportunities when
// present.
const (
	ColSqftAbove    = "sqft_above"
	ColSqftLiving15 = "sqft_living15"
	ColSqftLot15    = "sqft_lot15"
)

// Derived column names added by the feature deriver.
const (
	ColMonth      = "month"
	ColYear       = "year"
	ColSeason     = "season"
	ColPriceSqft  = "price_sqft"
	ColOld        = "old"
	ColToRenovate = "to_renovate"
)

// RequiredColumns must be present in every loaded sales file.
var RequiredColumns = []string{
	ColID, ColDate, ColPrice, ColSqftLiving, ColSqftLot, ColSqftBase,
	ColBedrooms, ColBathrooms, ColFloors, ColZipcode, ColWaterfront,
	ColCondition, ColYrBuilt, ColYrRenovated, ColLat, ColLong,
}

// Season is the meteorological season of a sale date.
type Season string

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Autumn Season = "Autumn"
)

// Condition labels attached to opportunities.
const (
	ConditionGood = "good"
	ConditionOK   = "ok"
	ConditionPoor = "poor"
)

// Opportunity is a sale flagged as a profitable acquisition candidate. It
// carries every sale column except view, grade, lat and long. Float fields of
// absent columns are NaN, integer fields zero.
type Opportunity struct {
	ID           int64
	Date         string
	PurcPrice    float64
	Bedrooms     float64
	Bathrooms    float64
	SqftLiving   float64
	SqftLot      float64
	Floors       float64
	Waterfront   int
	Condition    string
	SqftAbove    float64
	SqftBase     float64
	YrBuilt      int
	YrRenovated  int
	Zipcode      int
	SqftLiving15 float64
	SqftLot15    float64
	Month        int
	Year         int
	Season       string
	PriceSqft    float64
	Old          int
	ToRenovate   float64
	SellPrice    float64
	Expend       float64
	Profit       float64
}

// OpportunityTotals aggregates the projections of a candidate set.
// ReturnPct is zero and ReturnDefined false when nothing was invested.
type OpportunityTotals struct {
	TotalProfit     float64
	TotalExpend     float64
	TotalInvestment float64
	ReturnPct       float64
	ReturnDefined   bool
}

// OpportunityReport is the result of one opportunity selection.
type OpportunityReport struct {
	Opportunities []*Opportunity
	Totals        OpportunityTotals
}

// GroupComparison compares the mean of a measure between houses without (key 0)
// and with (key 1) some feature. PctDiff is relative to the key 0 mean.
type GroupComparison struct {
	Feature string
	Measure string
	Without float64
	With    float64
	PctDiff float64
	Defined bool
}

// Summary holds the headline numbers printed after a report run.
type Summary struct {
	RunID         string
	Source        string
	LoadedAt      time.Time
	TotalHouses   int
	Zipcodes      int
	AveragePrice  float64
	MinPrice      float64
	MaxPrice      float64
	MostExpensive int64
	Comparisons   []GroupComparison
	Opportunities OpportunityTotals
	Candidates    int
}
