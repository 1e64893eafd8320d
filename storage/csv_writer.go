package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CSVReportWriter writes every report to <dir>/<name>.csv.
// It is safe for concurrent use.
type CSVReportWriter struct {
	mu  sync.Mutex
	dir string
}

// NewCSVReportWriter creates the output directory when needed.
func NewCSVReportWriter(dir string) (*CSVReportWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVReportWriter{dir: dir}, nil
}

// Path returns the file a report with the given name is written to.
func (c *CSVReportWriter) Path(name string) string {
	return filepath.Join(c.dir, name+".csv")
}

// WriteReports writes each report to its own file, truncating previous data.
func (c *CSVReportWriter) WriteReports(reports []Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range reports {
		if err := c.write(r); err != nil {
			return err
		}
	}
	return nil
}

func (c *CSVReportWriter) write(r Report) error {
	path := c.Path(r.Name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	if err := r.Frame.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write %q: %w", r.Name, err)
	}
	return f.Close()
}

// Close is a no-op; every report file is closed after it is written.
func (c *CSVReportWriter) Close() error {
	return nil
}
