package wrangle

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/edakit/internal/frame"
)

// Rules is the fixed cleaning recipe for one dataset.
type Rules struct {
	// Rename maps raw column names to semantic ones.
	Rename map[string]string
	// Drop removes columns after renaming.
	Drop []string
	// Recode maps a coded column to labels; unmapped codes become missing.
	Recode *Recode
	// Ints and Floats are cast after missing rows are dropped.
	Ints   []string
	Floats []string
}

// Recode is a finite code-to-label mapping for one column.
type Recode struct {
	Column string
	Labels map[string]string
}

// Prepare applies the named dataset's rules to raw and returns a new dataset.
func Prepare(name string, raw dataframe.DataFrame) (dataframe.DataFrame, error) {
	e, err := Lookup(name)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return e.Rules.Apply(raw)
}

// Apply runs the rules in a fixed order: rename, drop, recode, drop missing rows, cast.
// Blank cells were already read as missing when the dataset was built.
func (r Rules) Apply(raw dataframe.DataFrame) (dataframe.DataFrame, error) {
	if raw.Err != nil {
		return dataframe.DataFrame{}, raw.Err
	}
	df, err := r.rename(raw.Copy())
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(r.Drop) > 0 {
		if err := frame.RequireColumns(df, r.Drop...); err != nil {
			return dataframe.DataFrame{}, err
		}
		df = df.Drop(r.Drop)
		if df.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("drop columns: %w", df.Err)
		}
	}
	if r.Recode != nil {
		if df, err = r.Recode.apply(df); err != nil {
			return dataframe.DataFrame{}, err
		}
	}
	df = frame.DropMissing(df)
	for _, col := range r.Ints {
		if df, err = frame.CastInt(df, col); err != nil {
			return dataframe.DataFrame{}, err
		}
	}
	for _, col := range r.Floats {
		if df, err = frame.CastFloat(df, col); err != nil {
			return dataframe.DataFrame{}, err
		}
	}
	return df, nil
}

func (r Rules) rename(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	olds := make([]string, 0, len(r.Rename))
	for old := range r.Rename {
		olds = append(olds, old)
	}
	sort.Strings(olds)
	for _, old := range olds {
		if err := frame.RequireColumns(df, old); err != nil {
			return df, err
		}
		df = df.Rename(r.Rename[old], old)
		if df.Err != nil {
			return df, fmt.Errorf("rename %s: %w", old, df.Err)
		}
	}
	return df, nil
}

func (rc *Recode) apply(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return frame.ReplaceStrings(df, rc.Column, func(raw string) (string, bool) {
		if label, ok := rc.Labels[raw]; ok {
			return label, true
		}
		key, ok := numericKey(raw)
		if !ok {
			return "", false
		}
		label, ok := rc.Labels[key]
		return label, ok
	})
}

// numericKey renders whole numbers without a fraction so "6037.0" matches "6037".
func numericKey(raw string) (string, bool) {
	f, err := frame.ParseNumber(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10), true
	}
	return frame.FormatNumber(f), true
}
