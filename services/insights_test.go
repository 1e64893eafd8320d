package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/go-gota/gota/dataframe"

	"house-flipping/models"
)

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(testLogger())
	r := svc.Generate(derivedSales(t))
	if r.TotalHouses != 6 {
		t.Errorf("TotalHouses: got %d, want 6", r.TotalHouses)
	}
	if r.Zipcodes != 3 {
		t.Errorf("Zipcodes: got %d, want 3", r.Zipcodes)
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(testLogger())
	r := svc.Generate(derivedSales(t))
	if r.AveragePrice != 350000 {
		t.Errorf("AveragePrice: got %.2f, want 350000", r.AveragePrice)
	}
	if r.MinPrice != 200000 {
		t.Errorf("MinPrice: got %.2f, want 200000", r.MinPrice)
	}
	if r.MaxPrice != 500000 || r.MostExpensive != 4 {
		t.Errorf("MaxPrice: got %.2f (id %d), want 500000 (id 4)", r.MaxPrice, r.MostExpensive)
	}
}

func TestInsightEmpty(t *testing.T) {
	svc := NewInsightService(testLogger())
	r := svc.Generate(dataframe.DataFrame{})
	if r.TotalHouses != 0 || r.AveragePrice != 0 {
		t.Errorf("expected zero summary, got %+v", r)
	}
}

func TestInsightPrint(t *testing.T) {
	color.NoColor = true
	svc := NewInsightService(testLogger())
	df := derivedSales(t)

	zips, err := NewAggregator(testLogger()).ZipcodeAverages(df, nil)
	if err != nil {
		t.Fatalf("zipcode averages: %v", err)
	}
	r := svc.Generate(df)
	r.RunID = "run-1"
	r.Comparisons = []models.GroupComparison{
		{Feature: "waterfront", Measure: "price", Without: 387500, With: 275000, PctDiff: 29.03, Defined: true},
		{Feature: "old", Measure: "price"},
	}
	r.Opportunities = models.OpportunityTotals{TotalProfit: 141000, TotalInvestment: 450000, ReturnPct: 31.33, ReturnDefined: true}
	r.Candidates = 2

	var buf bytes.Buffer
	svc.Print(&buf, r, zips)
	out := buf.String()

	for _, want := range []string{"KING COUNTY", "run-1", "$350000.00", "29.03%", "not enough data", "98002", "31.33%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "98002") > strings.Index(out, "98003") {
		t.Errorf("zip codes should be listed by average price, highest first")
	}
}

func TestInsightPrintZeroPricedZipcodes(t *testing.T) {
	color.NoColor = true
	svc := NewInsightService(testLogger())
	csv := salesHeader +
		"1,20141013T000000,0.0,3,1.0,1000,5000,1.0,0,0,4,7,0,1955,0,98001,47.5,-122.2\n"
	df, err := NewDeriver(testLogger()).DeriveAll(readFrame(t, csv))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	zips, err := NewAggregator(testLogger()).ZipcodeAverages(df, nil)
	if err != nil {
		t.Fatalf("zipcode averages: %v", err)
	}

	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(df), zips)
	out := buf.String()
	if !strings.Contains(out, "98001") || !strings.Contains(out, "$0.00 (1 houses)") {
		t.Errorf("zero-priced zip code should be listed without a bar:\n%s", out)
	}
	if strings.Contains(out, "█") {
		t.Errorf("unexpected bar for a zero mean:\n%s", out)
	}
}
