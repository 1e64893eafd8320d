package services

import (
	"io"
	"math"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"

	"house-flipping/utils"
)

const salesHeader = "id,date,price,bedrooms,bathrooms,sqft_living,sqft_lot,floors,waterfront,view,condition,grade,sqft_basement,yr_built,yr_renovated,zipcode,lat,long\n"

// sampleSales has three zip codes with two sales each. Zip code price means
// are 300000 (98001), 400000 (98002) and 350000 (98003).
const sampleSales = salesHeader +
	"1,20141013T000000,200000.0,3,1.0,1000,5000,1.0,0,0,4,7,0,1955,0,98001,47.5,-122.2\n" +
	"2,20141209T000000,400000.0,4,2.25,2000,6000,2.0,0,0,3,8,400,1990,2005,98001,47.6,-122.3\n" +
	"3,20150225T000000,300000.0,3,1.5,1500,4000,1.0,1,4,5,7,0,1960,0,98002,47.4,-122.1\n" +
	"4,20150301T000000,500000.0,5,3.0,2500,7000,2.0,0,0,4,9,500,2001,0,98002,47.45,-122.15\n" +
	"5,20140601T000000,250000.0,2,1.0,1250,3000,1.0,1,3,3,6,0,1940,1990,98003,47.3,-122.0\n" +
	"6,20140915T000000,450000.0,4,2.5,1800,8000,2.0,0,0,2,8,300,1975,0,98003,47.35,-122.05\n"

func testLogger() *utils.Logger {
	return utils.NewLoggerWithWriter(io.Discard, utils.LevelError)
}

func readFrame(t *testing.T, csv string) dataframe.DataFrame {
	t.Helper()
	df := dataframe.ReadCSV(strings.NewReader(csv), dataframe.DetectTypes(true))
	if df.Err != nil {
		t.Fatalf("read frame: %v", df.Err)
	}
	return df
}

func derivedSales(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df, err := NewDeriver(testLogger()).DeriveAll(readFrame(t, sampleSales))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return df
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func equalFloats(got, want []float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				return false
			}
			continue
		}
		if !approx(got[i], want[i]) {
			return false
		}
	}
	return true
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
