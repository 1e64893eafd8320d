package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"house-flipping/models"
	"house-flipping/utils"
)

const salesCSV = "id,date,price,bedrooms,bathrooms,sqft_living,sqft_lot,floors,waterfront,view,condition,grade,sqft_basement,yr_built,yr_renovated,zipcode,lat,long\n" +
	"1,20141013T000000,221900.0,3,1.0,1180,5650,1.0,0,0,3,7,0,1955,0,98178,47.5112,-122.257\n" +
	"2,20141209T000000,538000.0,3,2.25,2570,7242,2.0,0,0,3,7,400,1951,1991,98125,47.721,-122.319\n" +
	"3,20150225T000000,180000.0,2,1.0,770,10000,1.0,0,0,3,6,0,1933,0,98028,47.7379,-122.233\n"

const zipGeoJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"ZIP":98178},"geometry":{"type":"Point","coordinates":[-122.25,47.51]}},
 {"type":"Feature","properties":{"ZIP":"98125"},"geometry":{"type":"Point","coordinates":[-122.31,47.72]}}
]}`

func newTestLoader(opts ...Option) *Loader {
	return New(utils.NewLoggerWithWriter(io.Discard, utils.LevelError), opts...)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTableFromFile(t *testing.T) {
	path := writeFile(t, "kc_house_data.csv", salesCSV)

	df, err := newTestLoader().LoadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, []string{"1", "2", "3"}, df.Col(models.ColID).Records())
	assert.InDelta(t, 538000.0, df.Col(models.ColPrice).Elem(1).Float(), 1e-9)
}

func TestLoadTableRowLimit(t *testing.T) {
	path := writeFile(t, "kc_house_data.csv", salesCSV)

	df, err := newTestLoader(WithRowLimit(2)).LoadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
}

func TestLoadTableFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, salesCSV)
	}))
	defer srv.Close()

	df, err := newTestLoader(WithHTTPClient(srv.Client())).LoadTable(context.Background(), srv.URL+"/kc.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, df.Nrow())
}

func TestLoadTableErrors(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.csv")},
		{"http status", notFound.URL + "/kc.csv"},
		{"missing column", writeFile(t, "short.csv", "id,price\n1,100\n")},
		{"no rows", writeFile(t, "empty.csv", "")},
	}

	l := newTestLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.LoadTable(context.Background(), tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLoad), "expected ErrLoad, got %v", err)
		})
	}
}

func TestLoadBoundaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = io.WriteString(w, zipGeoJSON)
	}))
	defer srv.Close()

	b, err := newTestLoader().LoadBoundaries(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"98178", "98125"}, b.ZipCodes())
}

func TestLoadBoundariesMalformed(t *testing.T) {
	path := writeFile(t, "zips.geojson", `{"type":"FeatureCollection","features":[`)

	_, err := newTestLoader().LoadBoundaries(context.Background(), path)
	assert.ErrorIs(t, err, ErrLoad)
}
