// Package frame holds the dataset helpers shared by the loader, the preparer and the
// exploration sweep. A dataset is a gota DataFrame; missing values are gota NA elements.
package frame

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// NA is the textual form gota reads as a missing element.
const NA = "NaN"

var missingMarkers = map[string]bool{"": true, "NA": true, "NaN": true, "nan": true, "<nil>": true, "NULL": true}

// IsMissing reports whether a raw cell should be read as a missing value.
// Whitespace-only cells count as missing.
func IsMissing(v string) bool {
	return missingMarkers[strings.TrimSpace(v)]
}

// FromRecords builds a dataset from a header row followed by data rows. Missing markers
// are normalized to NA and column types are detected from the remaining values.
func FromRecords(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return dataframe.DataFrame{}, errors.New("no header row")
	}
	norm := make([][]string, len(records))
	norm[0] = append([]string(nil), records[0]...)
	for i := 1; i < len(records); i++ {
		row := make([]string, len(records[i]))
		for j, v := range records[i] {
			if IsMissing(v) {
				row[j] = NA
				continue
			}
			row[j] = v
		}
		norm[i] = row
	}
	df := dataframe.LoadRecords(norm)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// HasColumn reports whether df has a column named name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// RequireColumns fails with an UnknownColumnError for the first name df lacks.
func RequireColumns(df dataframe.DataFrame, names ...string) error {
	for _, n := range names {
		if !HasColumn(df, n) {
			return &UnknownColumnError{Column: n, Available: df.Names()}
		}
	}
	return nil
}

// Column returns the named column.
func Column(df dataframe.DataFrame, name string) (series.Series, error) {
	if err := RequireColumns(df, name); err != nil {
		return series.Series{}, err
	}
	return df.Col(name), nil
}

// Floats returns the column's values as floats, aligned with the rows of df. Missing
// values come back as NaN; any other value that is not a number is a CoercionError.
func Floats(df dataframe.DataFrame, name string) ([]float64, error) {
	s, err := Column(df, name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = math.NaN()
			continue
		}
		switch s.Type() {
		case series.Int, series.Float:
			out[i] = e.Float()
		default:
			raw := e.String()
			f, perr := ParseNumber(raw)
			if perr != nil {
				return nil, &CoercionError{Column: name, Row: i, Value: raw, Type: "float", Err: perr}
			}
			out[i] = f
		}
	}
	return out, nil
}

// ParseNumber parses a decimal number, tolerating surrounding whitespace.
func ParseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// FormatNumber renders f with the fewest digits that round-trip.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MissingRows returns, per row, whether any column holds a missing value.
func MissingRows(df dataframe.DataFrame) []bool {
	mask := make([]bool, df.Nrow())
	for _, name := range df.Names() {
		for i, na := range df.Col(name).IsNaN() {
			if na {
				mask[i] = true
			}
		}
	}
	return mask
}

// CountMissing returns the number of missing cells in df.
func CountMissing(df dataframe.DataFrame) int {
	n := 0
	for _, name := range df.Names() {
		for _, na := range df.Col(name).IsNaN() {
			if na {
				n++
			}
		}
	}
	return n
}

// DropMissing returns a new dataset without the rows that hold any missing value.
func DropMissing(df dataframe.DataFrame) dataframe.DataFrame {
	mask := MissingRows(df)
	keep := make([]int, 0, len(mask))
	for i, miss := range mask {
		if !miss {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(mask) {
		return df.Copy()
	}
	return df.Subset(keep)
}

// CastInt replaces a column with its integer form. Numbers truncate toward zero;
// anything else, including a value outside the int64 range, is a CoercionError.
// Missing values stay missing.
func CastInt(df dataframe.DataFrame, name string) (dataframe.DataFrame, error) {
	return cast(df, name, series.Int, func(f float64) (string, error) {
		t := math.Trunc(f)
		if t >= math.MaxInt64 || t < math.MinInt64 {
			return "", errors.New("value out of int64 range")
		}
		return strconv.FormatInt(int64(t), 10), nil
	})
}

// CastFloat replaces a column with its float form.
func CastFloat(df dataframe.DataFrame, name string) (dataframe.DataFrame, error) {
	return cast(df, name, series.Float, func(f float64) (string, error) {
		return FormatNumber(f), nil
	})
}

func cast(df dataframe.DataFrame, name string, t series.Type, format func(float64) (string, error)) (dataframe.DataFrame, error) {
	s, err := Column(df, name)
	if err != nil {
		return df, err
	}
	numeric := s.Type() == series.Int || s.Type() == series.Float
	vals := make([]string, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			vals[i] = NA
			continue
		}
		var f float64
		var raw string
		if numeric {
			f = e.Float()
			raw = FormatNumber(f)
		} else {
			raw = e.String()
			var perr error
			if f, perr = ParseNumber(raw); perr != nil {
				return df, &CoercionError{Column: name, Row: i, Value: raw, Type: string(t), Err: perr}
			}
		}
		if math.IsInf(f, 0) {
			return df, &CoercionError{Column: name, Row: i, Value: raw, Type: string(t), Err: errors.New("value out of range")}
		}
		v, ferr := format(f)
		if ferr != nil {
			return df, &CoercionError{Column: name, Row: i, Value: raw, Type: string(t), Err: ferr}
		}
		vals[i] = v
	}
	out := df.Mutate(series.New(vals, t, name))
	if out.Err != nil {
		return df, out.Err
	}
	return out, nil
}

// Texts returns the column's values as text. Numbers use the shortest form that
// round-trips, so distinct floats never collapse into one label.
func Texts(s series.Series) []string {
	if s.Type() != series.Int && s.Type() != series.Float {
		return s.Records()
	}
	out := make([]string, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = NA
			continue
		}
		out[i] = FormatNumber(e.Float())
	}
	return out
}

// ReplaceStrings replaces a column with a string column produced by fn; a false second
// return marks the value as missing.
func ReplaceStrings(df dataframe.DataFrame, name string, fn func(string) (string, bool)) (dataframe.DataFrame, error) {
	s, err := Column(df, name)
	if err != nil {
		return df, err
	}
	vals := make([]string, s.Len())
	for i, raw := range Texts(s) {
		if s.Elem(i).IsNA() {
			vals[i] = NA
			continue
		}
		v, ok := fn(raw)
		if !ok {
			v = NA
		}
		vals[i] = v
	}
	out := df.Mutate(series.New(vals, series.String, name))
	if out.Err != nil {
		return df, out.Err
	}
	return out, nil
}
