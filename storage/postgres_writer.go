package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"house-flipping/models"
	"house-flipping/utils"
)

// opportunityColumns is the insert column list of the opportunities table.
var opportunityColumns = []string{
	"run_id", "house_id", "sale_date", "purc_price", "bedrooms", "bathrooms",
	"sqft_living", "sqft_lot", "floors", "waterfront", "condition", "sqft_above",
	"sqft_basement", "yr_built", "yr_renovated", "zipcode", "sqft_living15", "sqft_lot15",
	"sale_month", "sale_year", "season", "price_sqft", "old", "to_renovate",
	"sell_price", "expend", "profit",
}

// PostgresWriter persists opportunities and run totals to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it with
// exponential back-off, runs schema migrations and returns a ready writer.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS opportunity_runs (
			run_id           UUID          PRIMARY KEY,
			opportunities    INTEGER       NOT NULL DEFAULT 0,
			total_profit     NUMERIC(16,2) NOT NULL DEFAULT 0,
			total_expend     NUMERIC(16,2) NOT NULL DEFAULT 0,
			total_investment NUMERIC(16,2) NOT NULL DEFAULT 0,
			return_pct       NUMERIC(8,2)  NOT NULL DEFAULT 0,
			return_defined   BOOLEAN       NOT NULL DEFAULT FALSE,
			created_at       TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS opportunities (
			id            SERIAL PRIMARY KEY,
			run_id        UUID          NOT NULL REFERENCES opportunity_runs(run_id) ON DELETE CASCADE,
			house_id      BIGINT        NOT NULL,
			sale_date     DATE,
			purc_price    NUMERIC(14,2) NOT NULL,
			bedrooms      NUMERIC(5,2),
			bathrooms     NUMERIC(5,2),
			sqft_living   NUMERIC(12,2),
			sqft_lot      NUMERIC(12,2),
			floors        NUMERIC(4,1),
			waterfront    SMALLINT      NOT NULL DEFAULT 0,
			condition     VARCHAR(10)   NOT NULL,
			sqft_above    NUMERIC(12,2),
			sqft_basement NUMERIC(12,2),
			yr_built      SMALLINT,
			yr_renovated  SMALLINT,
			zipcode       INTEGER       NOT NULL,
			sqft_living15 NUMERIC(12,2),
			sqft_lot15    NUMERIC(12,2),
			sale_month    SMALLINT,
			sale_year     SMALLINT,
			season        VARCHAR(10),
			price_sqft    NUMERIC(12,4),
			old           SMALLINT      NOT NULL DEFAULT 0,
			to_renovate   NUMERIC(6,1),
			sell_price    NUMERIC(14,2) NOT NULL,
			expend        NUMERIC(14,2) NOT NULL,
			profit        NUMERIC(14,2) NOT NULL,
			UNIQUE (run_id, house_id)
		);

		CREATE INDEX IF NOT EXISTS idx_opportunities_zipcode ON opportunities(zipcode);
		CREATE INDEX IF NOT EXISTS idx_opportunities_profit  ON opportunities(profit);
	`)
	return err
}

// Clear deletes all stored runs and their opportunities.
func (pw *PostgresWriter) Clear(ctx context.Context) error {
	if _, err := pw.db.ExecContext(ctx, "DELETE FROM opportunity_runs"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// WriteOpportunities replaces the stored data with the given run: the run
// totals first, then the opportunities in batches.
func (pw *PostgresWriter) WriteOpportunities(runID string, report *models.OpportunityReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := pw.Clear(ctx); err != nil {
		return err
	}

	t := report.Totals
	if _, err := pw.db.ExecContext(ctx, `
		INSERT INTO opportunity_runs
			(run_id, opportunities, total_profit, total_expend, total_investment, return_pct, return_defined)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, runID, len(report.Opportunities), t.TotalProfit, t.TotalExpend, t.TotalInvestment,
		t.ReturnPct, t.ReturnDefined); err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	const batchSize = 50
	opps := report.Opportunities
	for i := 0; i < len(opps); i += batchSize {
		end := i + batchSize
		if end > len(opps) {
			end = len(opps)
		}
		if err := pw.insertBatch(ctx, runID, opps[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(ctx context.Context, runID string, batch []*models.Opportunity) error {
	n := len(opportunityColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*n)

	for idx, o := range batch {
		placeholders := make([]string, n)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", idx*n+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			runID, o.ID, nullString(o.Date), o.PurcPrice, nullFloat(o.Bedrooms), nullFloat(o.Bathrooms),
			nullFloat(o.SqftLiving), nullFloat(o.SqftLot), nullFloat(o.Floors), o.Waterfront, o.Condition,
			nullFloat(o.SqftAbove), nullFloat(o.SqftBase), o.YrBuilt, o.YrRenovated, o.Zipcode,
			nullFloat(o.SqftLiving15), nullFloat(o.SqftLot15), o.Month, o.Year, nullString(o.Season),
			nullFloat(o.PriceSqft), o.Old, nullFloat(o.ToRenovate), o.SellPrice, o.Expend, o.Profit)
	}

	query := fmt.Sprintf(`
		INSERT INTO opportunities (%s)
		VALUES %s
		ON CONFLICT (run_id, house_id) DO NOTHING
	`, strings.Join(opportunityColumns, ", "), strings.Join(valueStrings, ","))

	if _, err := pw.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// CountOpportunities returns the number of opportunities stored for runID.
func (pw *PostgresWriter) CountOpportunities(ctx context.Context, runID string) (int, error) {
	var n int
	err := pw.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM opportunities WHERE run_id = $1", runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count opportunities: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
