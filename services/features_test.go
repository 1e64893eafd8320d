package services

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"house-flipping/models"
	"house-flipping/utils"
)

func TestSeasonOf(t *testing.T) {
	tests := []struct {
		date string
		want models.Season
	}{
		{"2015-01-01", models.Winter},
		{"2015-02-28", models.Winter},
		{"2016-02-29", models.Winter},
		{"2015-03-01", models.Spring},
		{"2015-05-31", models.Spring},
		{"2015-06-01", models.Summer},
		{"2015-08-31", models.Summer},
		{"2014-09-01", models.Autumn},
		{"2014-11-30", models.Autumn},
		{"2014-12-01", models.Winter},
		{"2014-12-31", models.Winter},
	}

	for _, tt := range tests {
		d, err := time.Parse(DateLayout, tt.date)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.date, err)
		}
		if got := SeasonOf(d); got != tt.want {
			t.Errorf("SeasonOf(%s) = %s; want %s", tt.date, got, tt.want)
		}
	}
}

func TestSeasonOfIsTotal(t *testing.T) {
	valid := map[models.Season]bool{models.Winter: true, models.Spring: true, models.Summer: true, models.Autumn: true}
	d := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	for d.Year() == 2016 {
		if !valid[SeasonOf(d)] {
			t.Fatalf("no season for %s", d.Format(DateLayout))
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{
		"20141013T000000",
		"2014-10-13",
		"2014-10-13 00:00:00",
		"2014/10/13",
		"20141013",
		"2014-10-13T00:00:00Z",
	} {
		d, err := ParseDate(raw)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", raw, err)
			continue
		}
		if got := d.Format(DateLayout); got != "2014-10-13" {
			t.Errorf("ParseDate(%q) = %s; want 2014-10-13", raw, got)
		}
	}

	if _, err := ParseDate("13/10/2014"); !errors.Is(err, models.ErrType) {
		t.Errorf("expected ErrType for unknown layout, got %v", err)
	}
}

func TestDeriveAllColumns(t *testing.T) {
	df := derivedSales(t)

	if got := df.Col(models.ColDate).Records(); got[0] != "2014-10-13" {
		t.Errorf("date not normalised: %q", got[0])
	}
	wantSeasons := []string{"Autumn", "Winter", "Winter", "Spring", "Summer", "Autumn"}
	if got := df.Col(models.ColSeason).Records(); !equalStrings(got, wantSeasons) {
		t.Errorf("seasons: got %v, want %v", got, wantSeasons)
	}
	if got := df.Col(models.ColMonth).Records(); !equalStrings(got, []string{"10", "12", "2", "3", "6", "9"}) {
		t.Errorf("months: got %v", got)
	}
	if got := df.Col(models.ColYear).Records(); !equalStrings(got, []string{"2014", "2014", "2015", "2015", "2014", "2014"}) {
		t.Errorf("years: got %v", got)
	}
	if got := df.Col(models.ColOld).Records(); !equalStrings(got, []string{"1", "0", "0", "0", "1", "0"}) {
		t.Errorf("old: got %v", got)
	}

	nan := math.NaN()
	if got := df.Col(models.ColToRenovate).Float(); !equalFloats(got, []float64{nan, 15, nan, nan, 50, nan}) {
		t.Errorf("to_renovate: got %v", got)
	}
	if got := df.Col(models.ColPriceSqft).Float(); !equalFloats(got, []float64{200, 200, 200, 200, 200, 250}) {
		t.Errorf("price_sqft: got %v", got)
	}
}

func TestDeriveAllIsIdempotent(t *testing.T) {
	d := NewDeriver(testLogger())
	once := derivedSales(t)
	twice, err := d.DeriveAll(once)
	if err != nil {
		t.Fatalf("second derive: %v", err)
	}

	if !equalStrings(once.Names(), twice.Names()) {
		t.Fatalf("columns changed: %v vs %v", once.Names(), twice.Names())
	}
	for _, name := range once.Names() {
		if !equalStrings(once.Col(name).Records(), twice.Col(name).Records()) {
			t.Errorf("column %s changed on second derive", name)
		}
	}
}

func TestDeriveAllZeroLivingArea(t *testing.T) {
	var logs bytes.Buffer
	d := NewDeriver(utils.NewLoggerWithWriter(&logs, utils.LevelWarn))
	df := dataframe.New(
		series.New([]string{"20140101T000000", "20140102T000000"}, series.String, models.ColDate),
		series.New([]float64{100000, 300000}, series.Float, models.ColPrice),
		series.New([]int{0, 1500}, series.Int, models.ColSqftLiving),
		series.New([]int{1970, 1970}, series.Int, models.ColYrBuilt),
		series.New([]int{0, 0}, series.Int, models.ColYrRenovated),
	)

	out, err := d.DeriveAll(df)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.Col(models.ColPriceSqft).Float()
	if !math.IsNaN(got[0]) || !approx(got[1], 200) {
		t.Errorf("price_sqft: got %v, want [NaN 200]", got)
	}
	if !strings.Contains(logs.String(), "1 rows have sqft_living = 0") ||
		!strings.Contains(logs.String(), models.ErrDivisionByZero.Error()) {
		t.Errorf("expected a division by zero warning, got %q", logs.String())
	}
}

func TestRatio(t *testing.T) {
	if v, err := ratio(300000, 1500); err != nil || !approx(v, 200) {
		t.Errorf("ratio(300000, 1500) = %v, %v", v, err)
	}
	v, err := ratio(1, 0)
	if !errors.Is(err, models.ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
	if !math.IsNaN(v) {
		t.Errorf("ratio(1, 0) = %v, want NaN", v)
	}
}

func TestDeriveAllErrors(t *testing.T) {
	d := NewDeriver(testLogger())

	missing := dataframe.New(series.New([]string{"20140101T000000"}, series.String, models.ColDate))
	if _, err := d.DeriveAll(missing); !errors.Is(err, models.ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}

	badDate := dataframe.New(
		series.New([]string{"yesterday"}, series.String, models.ColDate),
		series.New([]float64{1}, series.Float, models.ColPrice),
		series.New([]int{1}, series.Int, models.ColSqftLiving),
		series.New([]int{1970}, series.Int, models.ColYrBuilt),
		series.New([]int{0}, series.Int, models.ColYrRenovated),
	)
	if _, err := d.DeriveAll(badDate); !errors.Is(err, models.ErrType) {
		t.Errorf("expected ErrType, got %v", err)
	}
}
