package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"

	"house-flipping/config"
	"house-flipping/geo"
	"house-flipping/models"
	"house-flipping/services"
	"house-flipping/storage"
	"house-flipping/utils"
)

var (
	outputDir  string
	percentile float64
)

// reportCmd is the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "print the analysis and export every report",
	Long: `Runs the pipeline once, prints the summary and writes every report as CSV
files and one XLSX workbook, the map layers as GeoJSON and, when
POSTGRES_ENABLED is set, the opportunities to PostgreSQL.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides OUTPUT_DIR)")
	reportCmd.Flags().Float64VarP(&percentile, "percentile", "p", 0.25, "extra percentile of the descriptive statistics")

	reportCmd.SilenceUsage = true
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, logger, pipeline := setup()
	if outputDir != "" {
		cfg.OutputDir = outputDir
		cfg.XLSXOutputPath = filepath.Join(outputDir, filepath.Base(cfg.XLSXOutputPath))
	}
	ctx := cmd.Context()

	logger.Info("=== House flipping report starting ===")
	logger.Info("Config: source %s | row limit %d | output %s", cfg.DataPath, cfg.RowLimit, cfg.OutputDir)

	snap, err := pipeline.Refresh(ctx)
	if err != nil {
		return err
	}

	agg := services.NewAggregator(logger)
	selector := services.NewOpportunitySelector(logger, agg)

	reports, err := buildReports(agg, snap.Table, percentile)
	if err != nil {
		return err
	}
	opps, err := selector.Select(snap.Table)
	if err != nil {
		return err
	}
	reports = append(reports, storage.Report{Name: "opportunities", Frame: services.OpportunityFrame(opps.Opportunities)})

	if err := export(ctx, cfg, logger, pipeline, snap, reports, opps); err != nil {
		logger.Error("Export failed: %v", err)
	}

	insights := services.NewInsightService(logger)
	summary := insights.Generate(snap.Table)
	summary.RunID = snap.RunID
	summary.Source = snap.Source
	summary.LoadedAt = snap.LoadedAt
	summary.Opportunities = opps.Totals
	summary.Candidates = len(opps.Opportunities)
	summary.Comparisons = comparisons(agg, snap.Table, logger)

	insights.Print(os.Stdout, summary, reports[0].Frame)
	fmt.Printf("  Done. Reports → %s | Workbook → %s\n\n", cfg.OutputDir, cfg.XLSXOutputPath)
	return nil
}

type reportStep struct {
	name  string
	build func() (dataframe.DataFrame, error)
}

// buildReports computes the tables exported by the report command. The
// zip-code table comes first.
func buildReports(agg *services.Aggregator, df dataframe.DataFrame, p float64) ([]storage.Report, error) {
	from, to, err := services.IntRange(df, models.ColYrBuilt)
	if err != nil {
		return nil, err
	}
	firstDay, lastDay, err := services.DateRange(df)
	if err != nil {
		return nil, err
	}

	steps := []reportStep{
		{"zipcode_averages", func() (dataframe.DataFrame, error) { return agg.ZipcodeAverages(df, nil) }},
		{"descriptive_stats", func() (dataframe.DataFrame, error) { return agg.DescriptiveStats(df, nil, p) }},
		{"price_by_yr_built", func() (dataframe.DataFrame, error) { return agg.PriceByYearBuilt(df, from, to) }},
		{"price_by_season", func() (dataframe.DataFrame, error) { return agg.PriceBySeason(df) }},
		{"daily_price", func() (dataframe.DataFrame, error) { return agg.DailyPrice(df, firstDay, lastDay) }},
	}
	for _, attr := range services.PhysicalAttributes {
		attr := attr
		steps = append(steps, reportStep{attr + "_counts", func() (dataframe.DataFrame, error) {
			return agg.AttributeCounts(df, attr)
		}})
	}

	reports := make([]storage.Report, 0, len(steps))
	for _, s := range steps {
		frame, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", s.name, err)
		}
		reports = append(reports, storage.Report{Name: s.name, Frame: frame})
	}
	return reports, nil
}

func comparisons(agg *services.Aggregator, df dataframe.DataFrame, logger *utils.Logger) []models.GroupComparison {
	var out []models.GroupComparison
	if c, err := agg.PriceByAge(df); err == nil {
		out = append(out, c)
	} else {
		logger.Warn("[report] price by age: %v", err)
	}
	if c, err := agg.PriceByWaterfront(df); err == nil {
		out = append(out, c)
	} else {
		logger.Warn("[report] price by waterfront: %v", err)
	}
	if price, lot, err := agg.PriceByBasement(df); err == nil {
		out = append(out, price, lot)
	} else {
		logger.Warn("[report] price by basement: %v", err)
	}
	return out
}

// export writes every output concurrently. A failing output does not stop
// the others.
func export(ctx context.Context, cfg *config.Config, logger *utils.Logger, pipeline *services.Pipeline,
	snap *services.Snapshot, reports []storage.Report, opps *models.OpportunityReport) error {
	pool := utils.NewWorkerPool(4)

	pool.Submit("csv", func() error {
		w, err := storage.NewCSVReportWriter(cfg.OutputDir)
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.WriteReports(reports); err != nil {
			return err
		}
		logger.Info("[export] %d CSV reports saved to %s", len(reports), cfg.OutputDir)
		return nil
	})

	pool.Submit("xlsx", func() error {
		w, err := storage.NewExcelReportWriter(cfg.XLSXOutputPath)
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.WriteReports(reports); err != nil {
			return err
		}
		logger.Info("[export] Workbook saved to %s", cfg.XLSXOutputPath)
		return nil
	})

	pool.Submit("geojson", func() error {
		markers, err := geo.Markers(snap.Table, cfg.MapSampleSize)
		if err != nil {
			return err
		}
		if err := storage.WriteGeoJSON(filepath.Join(cfg.OutputDir, "markers.geojson"), markers); err != nil {
			return err
		}

		b, err := pipeline.Boundaries(ctx)
		if err != nil {
			return err
		}
		if b == nil {
			logger.Debug("[export] No GEO_URL, density layer skipped")
			return nil
		}
		agg := services.NewAggregator(logger)
		avg, err := agg.AverageBy(geo.Head(snap.Table, cfg.MapSampleSize),
			[]string{models.ColZipcode}, []string{models.ColPrice})
		if err != nil {
			return err
		}
		density, err := b.Choropleth(avg, models.ColZipcode, models.ColPrice+"_mean")
		if err != nil {
			return err
		}
		return storage.WriteGeoJSON(filepath.Join(cfg.OutputDir, "density.geojson"), density)
	})

	if cfg.PostgresEnabled {
		pool.Submit("postgres", func() error {
			retry := &utils.RetryConfig{
				MaxAttempts: cfg.PostgresMaxRetries,
				BaseDelay:   time.Second,
				Logger:      logger,
			}
			pw, err := storage.NewPostgresWriter(ctx, cfg.DSN(), retry)
			if err != nil {
				return err
			}
			defer pw.Close()
			if err := pw.WriteOpportunities(snap.RunID, opps); err != nil {
				return err
			}
			n, err := pw.CountOpportunities(ctx, snap.RunID)
			if err != nil {
				return err
			}
			logger.Info("[export] %d opportunities stored in PostgreSQL (run %s)", n, snap.RunID)
			return nil
		})
	}

	return pool.Wait()
}
