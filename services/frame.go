package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"house-flipping/models"
)

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func requireColumns(df dataframe.DataFrame, names ...string) error {
	for _, n := range names {
		if !hasColumn(df, n) {
			return fmt.Errorf("column %q: %w", n, models.ErrMissingKey)
		}
	}
	return nil
}

func isNumeric(t series.Type) bool {
	return t == series.Int || t == series.Float
}

func numericColumns(df dataframe.DataFrame) []string {
	var cols []string
	types := df.Types()
	for i, name := range df.Names() {
		if isNumeric(types[i]) {
			cols = append(cols, name)
		}
	}
	return cols
}

// floatColumn returns the column as float64 values; missing values are NaN.
func floatColumn(df dataframe.DataFrame, name string) ([]float64, error) {
	if !hasColumn(df, name) {
		return nil, fmt.Errorf("column %q: %w", name, models.ErrMissingKey)
	}
	return df.Col(name).Float(), nil
}

// subsetRows keeps the rows for which keep returns true, in order.
func subsetRows(df dataframe.DataFrame, keep func(i int) bool) dataframe.DataFrame {
	idx := make([]int, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	if len(idx) == df.Nrow() {
		return df
	}
	if len(idx) == 0 {
		return emptyLike(df)
	}
	return df.Subset(idx)
}

// emptyLike returns a frame with the columns and types of df and no rows.
func emptyLike(df dataframe.DataFrame) dataframe.DataFrame {
	names := df.Names()
	types := df.Types()
	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = series.New([]string{}, types[i], name)
	}
	return dataframe.New(cols...)
}

// keyColumn holds one group-by column in comparable form.
type keyColumn struct {
	numeric bool
	nums    []float64
	strs    []string
}

func newKeyColumn(df dataframe.DataFrame, name string) keyColumn {
	col := df.Col(name)
	kc := keyColumn{numeric: isNumeric(col.Type()), strs: col.Records()}
	if kc.numeric {
		kc.nums = col.Float()
	}
	return kc
}

func (k keyColumn) less(i, j int) bool {
	if k.numeric {
		return k.nums[i] < k.nums[j]
	}
	return k.strs[i] < k.strs[j]
}

// rowGroup is the set of rows sharing one group key. first is the row whose key
// values represent the group.
type rowGroup struct {
	first int
	rows  []int
}

// groupRows partitions the rows of df by keys and returns the groups sorted by
// key ascending, left to right for composite keys.
func groupRows(df dataframe.DataFrame, keys []string) ([]*rowGroup, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("empty group key: %w", models.ErrMissingKey)
	}
	if err := requireColumns(df, keys...); err != nil {
		return nil, err
	}

	cols := make([]keyColumn, len(keys))
	for i, k := range keys {
		cols[i] = newKeyColumn(df, k)
	}

	index := make(map[string]*rowGroup)
	var groups []*rowGroup
	for i := 0; i < df.Nrow(); i++ {
		key := ""
		for _, c := range cols {
			key += c.strs[i] + "\x1f"
		}
		g, ok := index[key]
		if !ok {
			g = &rowGroup{first: i}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, i)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ia, ib := groups[a].first, groups[b].first
		for _, c := range cols {
			if c.less(ia, ib) {
				return true
			}
			if c.less(ib, ia) {
				return false
			}
		}
		return false
	})
	return groups, nil
}

// defined returns the non-NaN values of vals at rows.
func defined(vals []float64, rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if !math.IsNaN(vals[r]) {
			out = append(out, vals[r])
		}
	}
	return out
}

// ratio divides num by den. A zero denominator returns NaN and an error
// wrapping models.ErrDivisionByZero; callers resolve it to their sentinel.
func ratio(num, den float64) (float64, error) {
	if den == 0 {
		return math.NaN(), fmt.Errorf("%v / 0: %w", num, models.ErrDivisionByZero)
	}
	return num / den, nil
}

// roundHalfEven rounds to the given number of decimals the way NumPy does.
func roundHalfEven(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}
