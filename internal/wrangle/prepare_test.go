package wrangle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/edakit/internal/cache"
	"github.com/KaramelBytes/edakit/internal/frame"
)

func mustFrame(t *testing.T, recs [][]string) dataframe.DataFrame {
	t.Helper()
	df, err := frame.FromRecords(recs)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return df
}

var housingHeader = []string{"bedroomcnt", "bathroomcnt", "calculatedfinishedsquarefeet", "fips", "taxamount", "taxvaluedollarcnt", "yearbuilt"}

func TestPrepareHousingScenario(t *testing.T) {
	raw := mustFrame(t, [][]string{
		housingHeader,
		{"3", "2", "1500", "6037", "4500.0", "300000", "1995"},
	})
	df, err := Prepare("housing", raw)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if df.Nrow() != 1 {
		t.Fatalf("rows = %d, want 1", df.Nrow())
	}
	wantInts := map[string]int{"bedrooms": 3, "area": 1500, "tax_value": 300000, "year_built": 1995}
	for col, want := range wantInts {
		got, err := df.Col(col).Int()
		if err != nil {
			t.Fatalf("%s as int: %v", col, err)
		}
		if got[0] != want {
			t.Fatalf("%s = %d, want %d", col, got[0], want)
		}
	}
	if got := df.Col("bathrooms").Float()[0]; got != 2 {
		t.Fatalf("bathrooms = %v, want 2", got)
	}
	if got := df.Col("tax_amount").Float()[0]; got != 4500.0 {
		t.Fatalf("tax_amount = %v, want 4500", got)
	}
	if got := df.Col("county").Records()[0]; got != "LA" {
		t.Fatalf("county = %q, want LA", got)
	}
	if frame.HasColumn(df, "fips") || frame.HasColumn(df, "bedroomcnt") {
		t.Fatalf("raw names survived: %v", df.Names())
	}
}

func TestPrepareHousingDropsMissingAndUnmappedCodes(t *testing.T) {
	raw := mustFrame(t, [][]string{
		housingHeader,
		{"3", "2", "1500", "6037.0", "4500.0", "300000", "1995"},
		{"4", "3", "", "6059.0", "5100.5", "410000", "2001"},
		{"2", "1", "900", "9999.0", "2100.0", "150000", "1950"},
		{"5", "3.5", "3100", "6111.0", "9000.0", "720000", "2010"},
	})
	df, err := Prepare("housing", raw)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if df.Nrow() != 2 {
		t.Fatalf("rows = %d, want 2 (blank area and unmapped fips dropped)", df.Nrow())
	}
	if n := frame.CountMissing(df); n != 0 {
		t.Fatalf("missing cells = %d, want 0", n)
	}
	labels := map[string]bool{"LA": true, "Orange": true, "Ventura": true}
	for _, v := range df.Col("county").Records() {
		if !labels[v] {
			t.Fatalf("county %q is not a label", v)
		}
	}
}

func TestPrepareGradesBlankAndTypes(t *testing.T) {
	raw := mustFrame(t, [][]string{
		{"student_id", "exam1", "exam2", "exam3", "final_grade"},
		{"1", "100", "90", "95", "96"},
		{"2", "98", "93", "96", "95"},
		{"3", " ", "79", "70", "75"},
		{"4", "85.0", "83", "87", "87"},
	})
	df, err := Prepare("grades", raw)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if df.Nrow() != 3 {
		t.Fatalf("rows = %d, want 3", df.Nrow())
	}
	for _, col := range df.Names() {
		if _, err := df.Col(col).Int(); err != nil {
			t.Fatalf("%s not int: %v", col, err)
		}
	}
	if raw.Nrow() != 4 {
		t.Fatalf("raw dataset mutated")
	}
}

func TestPrepareCoercionFailure(t *testing.T) {
	raw := mustFrame(t, [][]string{
		{"student_id", "exam1", "exam2", "exam3", "final_grade"},
		{"1", "100", "90", "95", "A"},
	})
	_, err := Prepare("grades", raw)
	var ce *frame.CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CoercionError", err)
	}
	if ce.Column != "final_grade" || ce.Value != "A" {
		t.Fatalf("coercion error = %+v", ce)
	}
}

func TestPrepareMissingRawColumn(t *testing.T) {
	raw := mustFrame(t, [][]string{{"bedroomcnt"}, {"3"}})
	_, err := Prepare("housing", raw)
	var uc *frame.UnknownColumnError
	if !errors.As(err, &uc) {
		t.Fatalf("err = %v, want UnknownColumnError", err)
	}
}

func TestPrepareUnknownDataset(t *testing.T) {
	if _, err := Prepare("iris", dataframe.DataFrame{}); err == nil {
		t.Fatalf("expected error for unknown dataset")
	}
}

func TestRecodeCompleteMappingLeavesNoCodes(t *testing.T) {
	raw := mustFrame(t, [][]string{{"region"}, {"1"}, {"2"}, {"1"}, {"3"}})
	r := Rules{Recode: &Recode{Column: "region", Labels: map[string]string{"1": "north", "2": "south", "3": "west"}}}
	df, err := r.Apply(raw)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if df.Nrow() != 4 {
		t.Fatalf("rows = %d, want 4", df.Nrow())
	}
	for _, v := range df.Col("region").Records() {
		if _, isCode := r.Recode.Labels[v]; isCode {
			t.Fatalf("raw code %q survived recode", v)
		}
	}
}

func TestLookupAndNames(t *testing.T) {
	names := Names()
	want := []string{"grades", "housing", "housing-sample", "telco"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	e, err := Lookup(" Housing-Sample ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.CacheFile != "zillow_sample.csv" || e.Database != "zillow" {
		t.Fatalf("entry = %+v", e)
	}
}

type staticSource struct {
	recs  [][]string
	query string
}

func (s *staticSource) Query(_ context.Context, q string) ([][]string, error) {
	s.query = q
	return s.recs, nil
}

func TestAcquireUsesCatalogEntry(t *testing.T) {
	dir := t.TempDir()
	src := &staticSource{recs: [][]string{{"student_id", "exam1", "exam2", "exam3", "final_grade"}, {"1", "100", "90", "95", "96"}}}
	df, err := Acquire(context.Background(), "grades", cache.NewLoader(nil), src, dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if src.query != "SELECT * FROM student_grades" {
		t.Fatalf("query = %q", src.query)
	}
	if df.Nrow() != 1 {
		t.Fatalf("rows = %d", df.Nrow())
	}
	if ok, _ := (cache.FileStore{}).Exists(filepath.Join(dir, "student_grades.csv")); !ok {
		t.Fatalf("cache file not written")
	}
}

func TestApplyFloatCastKeepsValues(t *testing.T) {
	raw := mustFrame(t, [][]string{
		{"monthly_charges", "total_charges"},
		{"29.8512345678", "0.0000004"},
		{"56.95", "1889.5"},
	})
	out, err := Rules{Floats: []string{"monthly_charges", "total_charges"}}.Apply(raw)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := out.Col("monthly_charges").Float(); got[0] != 29.8512345678 || got[1] != 56.95 {
		t.Fatalf("monthly_charges = %v", got)
	}
	if got := out.Col("total_charges").Float(); got[0] != 4e-07 || got[1] != 1889.5 {
		t.Fatalf("total_charges = %v", got)
	}
}

func TestApplyIntCastOverflowIsCoercionError(t *testing.T) {
	raw := mustFrame(t, [][]string{{"tax_value"}, {"1e20"}, {"300000"}})
	_, err := Rules{Ints: []string{"tax_value"}}.Apply(raw)
	var ce *frame.CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CoercionError", err)
	}
	if ce.Column != "tax_value" {
		t.Fatalf("column = %q", ce.Column)
	}
}
