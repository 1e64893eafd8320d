package api

import (
	"math"
	"net/http"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"house-flipping/models"
)

// FramePayload is the JSON form of a table. Undefined values are null.
type FramePayload struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Render implements the render.Renderer interface.
func (f *FramePayload) Render(w http.ResponseWriter, r *http.Request) error { return nil }

// NewFramePayload converts df row by row.
func NewFramePayload(df dataframe.DataFrame) *FramePayload {
	names := df.Names()
	p := &FramePayload{Columns: names, Rows: make([][]interface{}, df.Nrow())}
	if names == nil {
		p.Columns = []string{}
	}

	cols := make([]series.Series, len(names))
	for i, n := range names {
		cols[i] = df.Col(n)
	}
	for row := range p.Rows {
		vals := make([]interface{}, len(cols))
		for c, col := range cols {
			vals[c] = jsonValue(col, row)
		}
		p.Rows[row] = vals
	}
	return p
}

func jsonValue(col series.Series, row int) interface{} {
	elem := col.Elem(row)
	if elem.IsNA() {
		return nil
	}
	switch col.Type() {
	case series.Int:
		v, err := elem.Int()
		if err != nil {
			return nil
		}
		return v
	case series.Float:
		return number(elem.Float())
	case series.Bool:
		v, err := elem.Bool()
		if err != nil {
			return nil
		}
		return v
	default:
		return elem.String()
	}
}

// number returns nil for NaN and infinities, which JSON cannot carry.
func number(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// ComparisonPayload is a models.GroupComparison with undefined means as null.
type ComparisonPayload struct {
	Feature string      `json:"feature"`
	Measure string      `json:"measure"`
	Without interface{} `json:"without"`
	With    interface{} `json:"with"`
	PctDiff interface{} `json:"pct_diff"`
}

func newComparisonPayload(c models.GroupComparison) *ComparisonPayload {
	p := &ComparisonPayload{
		Feature: c.Feature,
		Measure: c.Measure,
		Without: number(c.Without),
		With:    number(c.With),
	}
	if c.Defined {
		p.PctDiff = c.PctDiff
	}
	return p
}

// Render implements the render.Renderer interface.
func (c *ComparisonPayload) Render(w http.ResponseWriter, r *http.Request) error { return nil }

// TotalsPayload is the JSON form of models.OpportunityTotals.
type TotalsPayload struct {
	TotalProfit     float64 `json:"total_profit"`
	TotalExpend     float64 `json:"total_expend"`
	TotalInvestment float64 `json:"total_investment"`
	ReturnPct       float64 `json:"return_pct"`
	ReturnDefined   bool    `json:"return_defined"`
}

func newTotalsPayload(t models.OpportunityTotals) TotalsPayload {
	return TotalsPayload{
		TotalProfit:     t.TotalProfit,
		TotalExpend:     t.TotalExpend,
		TotalInvestment: t.TotalInvestment,
		ReturnPct:       t.ReturnPct,
		ReturnDefined:   t.ReturnDefined,
	}
}
