package services

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gota/gota/series"

	"house-flipping/models"
)

func newTestSelector() *OpportunitySelector {
	l := testLogger()
	return NewOpportunitySelector(l, NewAggregator(l))
}

func TestSelectExclusiveUnion(t *testing.T) {
	report, err := newTestSelector().Select(derivedSales(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// House 3 is both in good condition and on the waterfront: it qualifies
	// twice and is dropped.
	if len(report.Opportunities) != 2 {
		t.Fatalf("opportunities: got %d, want 2", len(report.Opportunities))
	}
	first, second := report.Opportunities[0], report.Opportunities[1]
	if first.ID != 1 || first.Condition != models.ConditionGood {
		t.Errorf("first: got id %d label %s, want 1 good", first.ID, first.Condition)
	}
	if second.ID != 5 || second.Condition != models.ConditionOK {
		t.Errorf("second: got id %d label %s, want 5 ok", second.ID, second.Condition)
	}
	if first.Zipcode != 98001 || first.Season != "Autumn" || first.Date != "2014-10-13" {
		t.Errorf("house fields not copied: %+v", first)
	}
}

func TestSelectTotals(t *testing.T) {
	report, err := newTestSelector().Select(derivedSales(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tot := report.Totals
	if !approx(tot.TotalProfit, 141000) {
		t.Errorf("TotalProfit: got %.2f, want 141000", tot.TotalProfit)
	}
	if !approx(tot.TotalExpend, 44000) {
		t.Errorf("TotalExpend: got %.2f, want 44000", tot.TotalExpend)
	}
	if !approx(tot.TotalInvestment, 450000) {
		t.Errorf("TotalInvestment: got %.2f, want 450000", tot.TotalInvestment)
	}
	if !tot.ReturnDefined || !approx(tot.ReturnPct, 31.33) {
		t.Errorf("ReturnPct: got %.2f (defined %v), want 31.33", tot.ReturnPct, tot.ReturnDefined)
	}
}

func TestSelectMissingColumn(t *testing.T) {
	df := derivedSales(t).Drop(models.ColCondition)
	if _, err := newTestSelector().Select(df); !errors.Is(err, models.ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
}

func TestSelectWithoutCandidates(t *testing.T) {
	csv := salesHeader +
		"1,20141013T000000,200000.0,3,1.0,1000,5000,1.0,0,0,3,7,0,1955,0,98001,47.5,-122.2\n" +
		"2,20141209T000000,400000.0,4,2.25,2000,6000,2.0,0,0,4,8,400,1990,2005,98001,47.6,-122.3\n"

	report, err := newTestSelector().Select(readFrame(t, csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Opportunities) != 0 {
		t.Fatalf("expected no opportunities, got %d", len(report.Opportunities))
	}
	if report.Totals.TotalInvestment != 0 || report.Totals.ReturnPct != 0 || report.Totals.ReturnDefined {
		t.Errorf("zero investment totals: got %+v", report.Totals)
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name       string
		waterfront int
		condition  string
		sell       float64
		expend     float64
		profit     float64
	}{
		{"regular good", 0, models.ConditionGood, 260000, 14000, 46000},
		{"waterfront good", 1, models.ConditionGood, 300000, 14000, 86000},
		{"waterfront ok", 1, models.ConditionOK, 300000, 24000, 76000},
		{"waterfront poor", 1, models.ConditionPoor, 300000, 24000, 76000},
	}

	for _, tt := range tests {
		o := &models.Opportunity{PurcPrice: 200000, Waterfront: tt.waterfront, Condition: tt.condition}
		Price(o)
		if !approx(o.SellPrice, tt.sell) || !approx(o.Expend, tt.expend) || !approx(o.Profit, tt.profit) {
			t.Errorf("%s: got sell %.2f expend %.2f profit %.2f; want %.2f %.2f %.2f",
				tt.name, o.SellPrice, o.Expend, o.Profit, tt.sell, tt.expend, tt.profit)
		}
	}
}

func TestTotalsEmpty(t *testing.T) {
	tot := Totals(nil)
	if tot.TotalProfit != 0 || tot.TotalExpend != 0 || tot.TotalInvestment != 0 {
		t.Errorf("empty totals should be zero, got %+v", tot)
	}
	if tot.ReturnPct != 0 || tot.ReturnDefined {
		t.Errorf("return should be undefined, got %+v", tot)
	}
}

func TestTotalsRoundsHalfToEven(t *testing.T) {
	opps := []*models.Opportunity{
		{PurcPrice: 100, Profit: 0.125},
		{PurcPrice: 100, Profit: 0.5},
	}
	tot := Totals(opps)
	if tot.TotalProfit != 0.62 {
		t.Errorf("TotalProfit: got %v, want 0.62", tot.TotalProfit)
	}
}

func TestOpportunityFrame(t *testing.T) {
	report, err := newTestSelector().Select(derivedSales(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	df := OpportunityFrame(report.Opportunities)

	if df.Nrow() != 2 {
		t.Fatalf("rows: got %d, want 2", df.Nrow())
	}
	if got := df.Col(models.ColID).Records(); !equalStrings(got, []string{"1", "5"}) {
		t.Errorf("ids: got %v", got)
	}
	if got := df.Col("profit").Float(); !equalFloats(got, []float64{46000, 95000}) {
		t.Errorf("profit: got %v", got)
	}

	empty := OpportunityFrame(nil)
	if empty.Nrow() != 0 || empty.Ncol() != df.Ncol() {
		t.Errorf("empty frame: got %dx%d", empty.Nrow(), empty.Ncol())
	}
}

func TestOpportunityCarriesSaleColumns(t *testing.T) {
	df := derivedSales(t).Mutate(series.New(
		[]float64{900, 1600, 1500, 2000, 1250, 1500}, series.Float, models.ColSqftAbove))
	report, err := newTestSelector().Select(df)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Opportunities) != 2 {
		t.Fatalf("opportunities: got %d, want 2", len(report.Opportunities))
	}

	tests := []struct {
		got, want interface{}
		field     string
	}{
		{report.Opportunities[0].Month, 10, "month"},
		{report.Opportunities[0].Year, 2014, "year"},
		{report.Opportunities[0].Old, 1, "old"},
		{report.Opportunities[0].SqftAbove, 900.0, "sqft_above"},
		{report.Opportunities[1].Month, 6, "month"},
		{report.Opportunities[1].SqftAbove, 1250.0, "sqft_above"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.field, tt.got, tt.want)
		}
	}
	if v := report.Opportunities[0].SqftLiving15; !math.IsNaN(v) {
		t.Errorf("absent sqft_living15 should be NaN, got %v", v)
	}

	out := OpportunityFrame(report.Opportunities)
	for _, c := range []string{models.ColMonth, models.ColYear, models.ColOld,
		models.ColSqftAbove, models.ColSqftLiving15, models.ColSqftLot15} {
		if out.Col(c).Err != nil {
			t.Errorf("frame lacks column %q", c)
		}
	}
	for _, c := range []string{models.ColView, models.ColGrade, models.ColLat, models.ColLong} {
		if out.Col(c).Err == nil {
			t.Errorf("frame should not carry %q", c)
		}
	}
}
