package services

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"house-flipping/models"
	"house-flipping/utils"
)

// IntegerColumns are the columns the pipeline truncates to integers after loading.
var IntegerColumns = []string{
	models.ColBedrooms, models.ColBathrooms, models.ColFloors,
	models.ColYrBuilt, models.ColYrRenovated, models.ColZipcode,
}

// Cleaner removes duplicate sales and normalises column types.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Deduplicate keeps, for every value of key, only the last row holding it.
// Retained rows keep their relative order. When key is not a column the input
// is returned unchanged together with an ErrMissingKey error.
func (c *Cleaner) Deduplicate(df dataframe.DataFrame, key string) (dataframe.DataFrame, error) {
	if !hasColumn(df, key) {
		return df, fmt.Errorf("deduplicate by %q: %w", key, models.ErrMissingKey)
	}

	keys := df.Col(key).Records()
	last := make(map[string]int, len(keys))
	for i, k := range keys {
		last[k] = i
	}

	if len(last) == len(keys) {
		c.logger.Debug("[cleaner] No duplicate %q values in %d rows", key, len(keys))
		return df, nil
	}

	out := subsetRows(df, func(i int) bool { return last[keys[i]] == i })
	if out.Err != nil {
		return df, fmt.Errorf("deduplicate by %q: %w", key, out.Err)
	}

	c.logger.Info("[cleaner] Deduplicated %d → %d rows by %q (dropped %d)",
		len(keys), out.Nrow(), key, len(keys)-out.Nrow())
	return out, nil
}

// CoerceInteger truncates the named columns toward zero and retypes them as
// int. With no columns every numeric column is converted. A non-numeric or
// missing value fails the whole call with ErrType and leaves df untouched.
func (c *Cleaner) CoerceInteger(df dataframe.DataFrame, columns []string) (dataframe.DataFrame, error) {
	if len(columns) == 0 {
		columns = numericColumns(df)
	}

	out := df
	converted := 0
	for _, name := range columns {
		if !hasColumn(df, name) {
			return df, fmt.Errorf("coerce %q: %w", name, models.ErrMissingKey)
		}

		col := df.Col(name)
		if col.Type() == series.Int {
			if _, err := col.Int(); err != nil {
				return df, fmt.Errorf("coerce %q: %v: %w", name, err, models.ErrType)
			}
			continue
		}

		vals := col.Float()
		ints := make([]int, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return df, fmt.Errorf("coerce %q row %d value %q: %w",
					name, i, col.Elem(i).String(), models.ErrType)
			}
			ints[i] = int(v)
		}

		out = out.Mutate(series.New(ints, series.Int, name))
		if out.Err != nil {
			return df, fmt.Errorf("coerce %q: %w", name, out.Err)
		}
		converted++
	}

	c.logger.Debug("[cleaner] Coerced %d of %d columns to int", converted, len(columns))
	return out, nil
}
