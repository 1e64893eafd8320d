package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"house-flipping/models"
	"house-flipping/utils"
)

// CountColumn is the row-count column of every AverageBy report.
const CountColumn = "count"

// StatColumn holds the statistic labels of a DescriptiveStats table.
const StatColumn = "statistic"

// Agg names an aggregation applied to one column of a group.
type Agg string

const (
	AggMean  Agg = "mean"
	AggCount Agg = "count"
	AggSum   Agg = "sum"
	AggMin   Agg = "min"
	AggMax   Agg = "max"
)

// Measure is one column aggregation of a MultiJoinAverage report.
type Measure struct {
	Column string
	Agg    Agg
}

// Name is the report column the measure is written to.
func (m Measure) Name() string {
	return m.Column + "_" + string(m.Agg)
}

// StatsExcluded are the numeric columns that are identifiers, coordinates or
// flags and never described.
var StatsExcluded = []string{
	models.ColID, models.ColLat, models.ColLong, models.ColZipcode,
	models.ColYrRenovated, models.ColWaterfront, models.ColView,
}

// Zipcode report column labels.
const (
	ZipLabel        = "Zipcode"
	ZipTotalLabel   = "Total Houses"
	ZipPriceLabel   = "Price"
	ZipLivingLabel  = "Sqft Living"
	ZipPerSqftLabel = "Price/Sqft"
)

// Aggregator groups a frame and computes per-group statistics.
type Aggregator struct {
	logger *utils.Logger
}

// NewAggregator creates an Aggregator with the given logger.
func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// AverageBy groups df by groupKey and returns one row per group, sorted by key
// ascending, with the key columns, a count column and a <measure>_mean column
// per measure. NaN values are left out of the means.
func (a *Aggregator) AverageBy(df dataframe.DataFrame, groupKey []string, measures []string) (dataframe.DataFrame, error) {
	if err := requireColumns(df, measures...); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("average by %v: %w", groupKey, err)
	}
	groups, err := groupRows(df, groupKey)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("average by %v: %w", groupKey, err)
	}

	list := make([]Measure, len(measures))
	for i, m := range measures {
		list[i] = Measure{Column: m, Agg: AggMean}
	}
	return buildReport(df, groupKey, groups, list, true)
}

// MultiJoinAverage computes every measure on its own, over the rows where the
// measure column is defined, and inner-joins the results on groupKey. A group
// absent from any single aggregate is absent from the report.
func (a *Aggregator) MultiJoinAverage(df dataframe.DataFrame, groupKey []string, measures []Measure) (dataframe.DataFrame, error) {
	if len(measures) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("multi join average: no measures: %w", models.ErrMissingKey)
	}
	if err := requireColumns(df, groupKey...); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("multi join average: %w", err)
	}

	var joined dataframe.DataFrame
	for i, m := range measures {
		vals, err := floatColumn(df, m.Column)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("multi join average: %w", err)
		}

		part := subsetRows(df, func(r int) bool { return !math.IsNaN(vals[r]) })
		groups, err := groupRows(part, groupKey)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("multi join average: %w", err)
		}
		report, err := buildReport(part, groupKey, groups, []Measure{m}, false)
		if err != nil {
			return dataframe.DataFrame{}, err
		}

		if i == 0 {
			joined = report
			continue
		}
		joined = joined.InnerJoin(report, groupKey...)
		if joined.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("multi join average: join %s: %w", m.Name(), joined.Err)
		}
	}

	a.logger.Debug("[aggregator] Joined %d measures by %v into %d groups", len(measures), groupKey, joined.Nrow())
	return joined, nil
}

func buildReport(df dataframe.DataFrame, groupKey []string, groups []*rowGroup, measures []Measure, withCount bool) (dataframe.DataFrame, error) {
	var out dataframe.DataFrame
	if len(groups) == 0 {
		out = emptyLike(df.Select(groupKey))
	} else {
		firsts := make([]int, len(groups))
		for i, g := range groups {
			firsts[i] = g.first
		}
		out = df.Select(groupKey).Subset(firsts)
	}

	if withCount {
		counts := make([]int, len(groups))
		for i, g := range groups {
			counts[i] = len(g.rows)
		}
		out = out.Mutate(series.New(counts, series.Int, CountColumn))
	}

	for _, m := range measures {
		vals := df.Col(m.Column).Float()
		if m.Agg == AggCount {
			counts := make([]int, len(groups))
			for i, g := range groups {
				counts[i] = len(defined(vals, g.rows))
			}
			out = out.Mutate(series.New(counts, series.Int, m.Name()))
			continue
		}

		res := make([]float64, len(groups))
		for i, g := range groups {
			v, err := aggregate(m.Agg, defined(vals, g.rows))
			if err != nil {
				return dataframe.DataFrame{}, err
			}
			res[i] = v
		}
		out = out.Mutate(series.New(res, series.Float, m.Name()))
	}

	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build report: %w", out.Err)
	}
	return out, nil
}

func aggregate(agg Agg, vals []float64) (float64, error) {
	if len(vals) == 0 {
		if agg == AggSum {
			return 0, nil
		}
		return math.NaN(), nil
	}
	switch agg {
	case AggMean:
		return stat.Mean(vals, nil), nil
	case AggSum:
		return floats.Sum(vals), nil
	case AggMin:
		return floats.Min(vals), nil
	case AggMax:
		return floats.Max(vals), nil
	case AggCount:
		return float64(len(vals)), nil
	default:
		return 0, fmt.Errorf("aggregation %q: %w", agg, models.ErrType)
	}
}

// ZipcodeAverages builds the per-zipcode table of house count, mean price,
// mean living area and mean price per square foot. A non-empty zipcodes list
// keeps only those zip codes.
func (a *Aggregator) ZipcodeAverages(df dataframe.DataFrame, zipcodes []int) (dataframe.DataFrame, error) {
	report, err := a.MultiJoinAverage(df, []string{models.ColZipcode}, []Measure{
		{Column: models.ColID, Agg: AggCount},
		{Column: models.ColPrice, Agg: AggMean},
		{Column: models.ColSqftLiving, Agg: AggMean},
		{Column: models.ColPriceSqft, Agg: AggMean},
	})
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	report = report.
		Rename(ZipLabel, models.ColZipcode).
		Rename(ZipTotalLabel, "id_count").
		Rename(ZipPriceLabel, "price_mean").
		Rename(ZipLivingLabel, "sqft_living_mean").
		Rename(ZipPerSqftLabel, "price_sqft_mean")

	if len(zipcodes) > 0 && report.Nrow() > 0 {
		report = report.Filter(dataframe.F{
			Colname:    ZipLabel,
			Comparator: series.In,
			Comparando: zipcodes,
		})
	}
	if report.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("zipcode averages: %w", report.Err)
	}
	return report, nil
}

// DescribableColumns lists the numeric columns DescriptiveStats accepts.
func DescribableColumns(df dataframe.DataFrame) []string {
	excluded := make(map[string]bool, len(StatsExcluded))
	for _, c := range StatsExcluded {
		excluded[c] = true
	}
	var cols []string
	for _, c := range numericColumns(df) {
		if !excluded[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// DescriptiveStats describes each selected numeric column: count, mean,
// sample standard deviation, min, the requested percentile, the median and
// max. Percentiles interpolate linearly between order statistics. NaN values
// are ignored. With no columns every describable column is used.
func (a *Aggregator) DescriptiveStats(df dataframe.DataFrame, columns []string, percentile float64) (dataframe.DataFrame, error) {
	if percentile < 0 || percentile > 1 || math.IsNaN(percentile) {
		return dataframe.DataFrame{}, fmt.Errorf("percentile %v outside [0, 1]: %w", percentile, models.ErrType)
	}

	eligible := DescribableColumns(df)
	if len(columns) == 0 {
		columns = eligible
	} else {
		allowed := make(map[string]bool, len(eligible))
		for _, c := range eligible {
			allowed[c] = true
		}
		for _, c := range columns {
			if !allowed[c] {
				return dataframe.DataFrame{}, fmt.Errorf("describe %q: %w", c, models.ErrMissingKey)
			}
		}
	}

	percentiles := []float64{percentile}
	if percentile != 0.5 {
		percentiles = append(percentiles, 0.5)
		sort.Float64s(percentiles)
	}

	labels := []string{"# entries", "Mean", "Std Dev", "Min"}
	for _, p := range percentiles {
		labels = append(labels, percentileLabel(p))
	}
	labels = append(labels, "Max")

	cols := []series.Series{series.New(labels, series.String, StatColumn)}
	for _, c := range columns {
		vals := defined(df.Col(c).Float(), allRows(df.Nrow()))
		cols = append(cols, series.New(describe(vals, percentiles), series.Float, c))
	}

	out := dataframe.New(cols...)
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("describe: %w", out.Err)
	}
	return out, nil
}

func describe(vals []float64, percentiles []float64) []float64 {
	nan := math.NaN()
	res := []float64{float64(len(vals))}
	if len(vals) == 0 {
		for i := 0; i < 4+len(percentiles); i++ {
			res = append(res, nan)
		}
		return res
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	std := nan
	if len(vals) > 1 {
		std = stat.StdDev(vals, nil)
	}
	res = append(res, stat.Mean(vals, nil), std, sorted[0])
	for _, p := range percentiles {
		res = append(res, Percentile(sorted, p))
	}
	return append(res, sorted[len(sorted)-1])
}

// Percentile returns the p-th quantile of sorted using linear interpolation
// between the order statistics at rank p*(n-1).
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func percentileLabel(p float64) string {
	if p == 0.5 {
		return "Median"
	}
	return strconv.FormatFloat(p*100, 'f', -1, 64) + "%"
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
