// Package loader reads the sales table and the zip-code boundaries from a
// local file or an http(s) URL.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"house-flipping/geo"
	"house-flipping/models"
	"house-flipping/utils"
)

// ErrLoad is returned, wrapped, for every failure to read a source.
var ErrLoad = models.ErrLoad

// Loader fetches sources in one synchronous attempt.
type Loader struct {
	logger   *utils.Logger
	client   *http.Client
	rowLimit int
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for URL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) { l.client = client }
}

// WithRowLimit keeps only the first n rows of every table. Zero keeps all.
func WithRowLimit(n int) Option {
	return func(l *Loader) { l.rowLimit = n }
}

// New creates a Loader.
func New(logger *utils.Logger, opts ...Option) *Loader {
	l := &Loader{logger: logger, client: &http.Client{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadTable parses the comma-separated sales file at path. The table must have
// at least one row and every column in models.RequiredColumns.
func (l *Loader) LoadTable(ctx context.Context, path string) (dataframe.DataFrame, error) {
	data, err := l.read(ctx, path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: parse %s: %v", ErrLoad, path, df.Err)
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s has no rows", ErrLoad, path)
	}

	have := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		have[n] = true
	}
	for _, c := range models.RequiredColumns {
		if !have[c] {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %s lacks column %q", ErrLoad, path, c)
		}
	}

	if l.rowLimit > 0 && df.Nrow() > l.rowLimit {
		idx := make([]int, l.rowLimit)
		for i := range idx {
			idx[i] = i
		}
		df = df.Subset(idx)
	}

	l.logger.Info("[loader] Loaded %d rows × %d columns from %s", df.Nrow(), df.Ncol(), path)
	return df, nil
}

// LoadBoundaries fetches and decodes a GeoJSON zip-code boundary collection.
func (l *Loader) LoadBoundaries(ctx context.Context, url string) (*geo.Boundaries, error) {
	data, err := l.read(ctx, url)
	if err != nil {
		return nil, err
	}
	b, err := geo.ParseBoundaries(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, url, err)
	}
	l.logger.Info("[loader] Loaded %d boundary features from %s", len(b.Collection.Features), url)
	return b, nil
}

func (l *Loader) read(ctx context.Context, path string) ([]byte, error) {
	if isURL(path) {
		return l.fetch(ctx, path)
	}
	data, err := os.ReadFile(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request %s: %v", ErrLoad, url, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrLoad, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrLoad, url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrLoad, url, err)
	}
	return data, nil
}

func isURL(path string) bool {
	p := strings.ToLower(path)
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
