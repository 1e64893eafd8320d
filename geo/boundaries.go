// Package geo builds the map layers of the dashboard: sale markers and a
// zip-code choropleth over a GeoJSON boundary collection.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/paulmach/orb/geojson"
)

// ZipProperty is the boundary feature property holding the zip code.
const ZipProperty = "ZIP"

// ValueProperty is the property the choropleth writes the mapped value to.
const ValueProperty = "price"

// Boundaries is a zip-code boundary collection.
type Boundaries struct {
	Collection  *geojson.FeatureCollection
	KeyProperty string
}

// ParseBoundaries decodes a GeoJSON FeatureCollection keyed by ZipProperty.
func ParseBoundaries(data []byte) (*Boundaries, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("geo: decode boundaries: %w", err)
	}
	return &Boundaries{Collection: fc, KeyProperty: ZipProperty}, nil
}

// ZipCodes returns the zip code of every feature that has one, in feature order.
func (b *Boundaries) ZipCodes() []string {
	var zips []string
	for _, f := range b.Collection.Features {
		if z, ok := featureKey(f, b.KeyProperty); ok {
			zips = append(zips, z)
		}
	}
	return zips
}

// Choropleth keeps the features whose zip code appears in the keyCol column
// of report and writes the matching valueCol value to their ValueProperty.
// Zip codes match by decimal text, so an integer zipcode column joins string
// or numeric ZIP properties alike.
func (b *Boundaries) Choropleth(report dataframe.DataFrame, keyCol, valueCol string) (*geojson.FeatureCollection, error) {
	if report.Err != nil {
		return nil, fmt.Errorf("geo: choropleth: %w", report.Err)
	}
	keys, err := keyStrings(report, keyCol)
	if err != nil {
		return nil, err
	}
	valCol := report.Col(valueCol)
	if valCol.Err != nil {
		return nil, fmt.Errorf("geo: choropleth value column %q: %w", valueCol, valCol.Err)
	}
	vals := valCol.Float()

	values := make(map[string]float64, len(keys))
	for i, k := range keys {
		values[k] = vals[i]
	}

	out := geojson.NewFeatureCollection()
	for _, f := range b.Collection.Features {
		z, ok := featureKey(f, b.KeyProperty)
		if !ok {
			continue
		}
		v, ok := values[z]
		if !ok || math.IsNaN(v) {
			continue
		}
		nf := geojson.NewFeature(f.Geometry)
		nf.ID = f.ID
		for k, p := range f.Properties {
			nf.Properties[k] = p
		}
		nf.Properties[ValueProperty] = v
		out.Append(nf)
	}
	return out, nil
}

func keyStrings(df dataframe.DataFrame, col string) ([]string, error) {
	s := df.Col(col)
	if s.Err != nil {
		return nil, fmt.Errorf("geo: key column %q: %w", col, s.Err)
	}
	if s.Type() != series.Int && s.Type() != series.Float {
		recs := s.Records()
		for i := range recs {
			recs[i] = strings.TrimSpace(recs[i])
		}
		return recs, nil
	}
	nums := s.Float()
	keys := make([]string, len(nums))
	for i, v := range nums {
		keys[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return keys, nil
}

func featureKey(f *geojson.Feature, prop string) (string, bool) {
	raw, ok := f.Properties[prop]
	if !ok || raw == nil {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return fmt.Sprint(v), true
	}
}
