package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"house-flipping/config"
	"house-flipping/loader"
	"house-flipping/services"
	"house-flipping/utils"
)

const salesCSV = "id,date,price,bedrooms,bathrooms,sqft_living,sqft_lot,floors,waterfront,view,condition,grade,sqft_basement,yr_built,yr_renovated,zipcode,lat,long\n" +
	"1,20141013T000000,200000.0,3,1.0,1000,5000,1.0,0,0,4,7,0,1955,0,98001,47.5,-122.2\n" +
	"2,20141209T000000,400000.0,4,2.25,2000,6000,2.0,0,0,3,8,400,1990,2005,98001,47.6,-122.3\n" +
	"3,20150225T000000,300000.0,3,1.5,1500,4000,1.0,1,4,5,7,0,1960,0,98002,47.4,-122.1\n" +
	"4,20150301T000000,500000.0,5,3.0,2500,7000,2.0,0,0,4,9,500,2001,0,98002,47.45,-122.15\n"

func testLogger() *utils.Logger {
	return utils.NewLoggerWithWriter(io.Discard, utils.LevelError)
}

func derived(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df := dataframe.ReadCSV(strings.NewReader(salesCSV))
	require.NoError(t, df.Err)
	df, err := services.NewDeriver(testLogger()).DeriveAll(df)
	require.NoError(t, err)
	return df
}

func TestBuildReports(t *testing.T) {
	reports, err := buildReports(services.NewAggregator(testLogger()), derived(t), 0.25)
	require.NoError(t, err)

	var names []string
	for _, r := range reports {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"zipcode_averages", "descriptive_stats", "price_by_yr_built", "price_by_season",
		"daily_price", "bedrooms_counts", "bathrooms_counts", "floors_counts", "waterfront_counts",
	}, names)
	assert.Equal(t, 2, reports[0].Frame.Nrow())
	assert.Equal(t, 4, reports[4].Frame.Nrow())
}

func TestComparisons(t *testing.T) {
	got := comparisons(services.NewAggregator(testLogger()), derived(t), testLogger())
	require.Len(t, got, 4)
	assert.Equal(t, "waterfront", got[1].Feature)
}

func TestExportWritesEveryOutput(t *testing.T) {
	logger := testLogger()
	df := derived(t)
	dir := t.TempDir()
	cfg := &config.Config{
		OutputDir:      dir,
		XLSXOutputPath: filepath.Join(dir, "report.xlsx"),
		MapSampleSize:  500,
	}
	pipeline := services.NewPipeline(logger, loader.New(logger), "unused.csv", "")
	snap := &services.Snapshot{RunID: "run-1", Table: df}

	agg := services.NewAggregator(logger)
	reports, err := buildReports(agg, df, 0.25)
	require.NoError(t, err)
	opps, err := services.NewOpportunitySelector(logger, agg).Select(df)
	require.NoError(t, err)

	require.NoError(t, export(context.Background(), cfg, logger, pipeline, snap, reports, opps))

	for _, name := range []string{"zipcode_averages.csv", "waterfront_counts.csv", "report.xlsx", "markers.geojson"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "density.geojson"))
}
