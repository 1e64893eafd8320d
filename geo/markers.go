package geo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/gonum/stat"

	"house-flipping/models"
)

// DefaultSampleSize is the number of sales drawn on the map.
const DefaultSampleSize = 500

// markerColumns are copied into the properties of every marker.
var markerColumns = []string{
	models.ColID, models.ColPrice, models.ColDate, models.ColSqftLiving,
	models.ColBedrooms, models.ColBathrooms, models.ColYrBuilt,
}

// Head returns the first limit rows of df. A non-positive limit means
// DefaultSampleSize.
func Head(df dataframe.DataFrame, limit int) dataframe.DataFrame {
	if limit <= 0 {
		limit = DefaultSampleSize
	}
	if df.Nrow() <= limit {
		return df
	}
	idx := make([]int, limit)
	for i := range idx {
		idx[i] = i
	}
	return df.Subset(idx)
}

// Markers returns the first limit sales as a point collection with a popup
// describing each sale.
func Markers(df dataframe.DataFrame, limit int) (*geojson.FeatureCollection, error) {
	names := append([]string{models.ColLat, models.ColLong}, markerColumns...)
	if err := requireColumns(df, names...); err != nil {
		return nil, err
	}

	rows := Head(df, limit)
	fc := geojson.NewFeatureCollection()
	if rows.Nrow() == 0 {
		return fc, nil
	}

	lat := rows.Col(models.ColLat).Float()
	long := rows.Col(models.ColLong).Float()
	dates := rows.Col(models.ColDate).Records()
	nums := make(map[string][]float64, len(markerColumns))
	for _, c := range markerColumns {
		if c != models.ColDate {
			nums[c] = rows.Col(c).Float()
		}
	}

	for i := 0; i < rows.Nrow(); i++ {
		f := geojson.NewFeature(orb.Point{long[i], lat[i]})
		f.ID = int64(nums[models.ColID][i])
		for c, vals := range nums {
			f.Properties[c] = vals[i]
		}
		f.Properties[models.ColDate] = dates[i]
		f.Properties["popup"] = fmt.Sprintf(
			"Sold %s USD on: %s. Features: %s sqft, %s bedrooms, %s bathrooms, year built: %s",
			text(nums[models.ColPrice][i]), dates[i], text(nums[models.ColSqftLiving][i]),
			text(nums[models.ColBedrooms][i]), text(nums[models.ColBathrooms][i]),
			text(nums[models.ColYrBuilt][i]))
		fc.Append(f)
	}
	return fc, nil
}

// Center returns the mean position of the first limit sales, the point the
// map is centred on.
func Center(df dataframe.DataFrame, limit int) (orb.Point, error) {
	if err := requireColumns(df, models.ColLat, models.ColLong); err != nil {
		return orb.Point{}, err
	}
	rows := Head(df, limit)
	if rows.Nrow() == 0 {
		return orb.Point{math.NaN(), math.NaN()}, nil
	}
	return orb.Point{
		stat.Mean(rows.Col(models.ColLong).Float(), nil),
		stat.Mean(rows.Col(models.ColLat).Float(), nil),
	}, nil
}

func text(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func requireColumns(df dataframe.DataFrame, names ...string) error {
	have := make(map[string]bool)
	for _, n := range df.Names() {
		have[n] = true
	}
	for _, n := range names {
		if !have[n] {
			return fmt.Errorf("geo: column %q: %w", n, models.ErrMissingKey)
		}
	}
	return nil
}
