package wrangle

import (
	"fmt"
	"sort"
	"testing"

	"github.com/go-gota/gota/dataframe"
)

func idFrame(t *testing.T, n int) dataframe.DataFrame {
	t.Helper()
	recs := [][]string{{"id", "value"}}
	for i := 0; i < n; i++ {
		recs = append(recs, []string{fmt.Sprint(i), fmt.Sprint(i * 10)})
	}
	return mustFrame(t, recs)
}

func TestSplitIndexesSizesAndCoverage(t *testing.T) {
	cases := []struct {
		n                  int
		train, valid, test int
	}{
		{10, 6, 2, 2},
		{7, 4, 1, 2},
		{100, 60, 20, 20},
		{11, 7, 2, 2},
		{3, 2, 0, 1},
	}
	for _, c := range cases {
		tr, va, te := SplitIndexes(c.n, 123)
		if len(tr) != c.train || len(va) != c.valid || len(te) != c.test {
			t.Fatalf("n=%d sizes = %d/%d/%d, want %d/%d/%d", c.n, len(tr), len(va), len(te), c.train, c.valid, c.test)
		}
		all := append(append(append([]int{}, tr...), va...), te...)
		sort.Ints(all)
		for i, v := range all {
			if v != i {
				t.Fatalf("n=%d: partitions do not cover rows exactly once: %v", c.n, all)
			}
		}
	}
}

func TestSplitDatasetDeterministic(t *testing.T) {
	ds := idFrame(t, 50)
	a, err := SplitDataset(ds, 123)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	b, err := SplitDataset(ds, 123)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	pairs := [][2]dataframe.DataFrame{{a.Train, b.Train}, {a.Validate, b.Validate}, {a.Test, b.Test}}
	for i, p := range pairs {
		x, y := p[0].Col("id").Records(), p[1].Col("id").Records()
		if len(x) != len(y) {
			t.Fatalf("partition %d sizes differ", i)
		}
		for j := range x {
			if x[j] != y[j] {
				t.Fatalf("partition %d differs at %d: %s vs %s", i, j, x[j], y[j])
			}
		}
	}
	if a.Train.Nrow() != 30 || a.Validate.Nrow() != 10 || a.Test.Nrow() != 10 {
		t.Fatalf("sizes = %d/%d/%d", a.Train.Nrow(), a.Validate.Nrow(), a.Test.Nrow())
	}

	seen := map[string]int{}
	for _, part := range []dataframe.DataFrame{a.Train, a.Validate, a.Test} {
		for _, id := range part.Col("id").Records() {
			seen[id]++
		}
	}
	if len(seen) != 50 {
		t.Fatalf("union covers %d rows, want 50", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("row %s appears %d times", id, n)
		}
	}
}

func TestSplitDatasetSeedMatters(t *testing.T) {
	tr1, _, _ := SplitIndexes(40, 1)
	tr2, _, _ := SplitIndexes(40, 2)
	same := true
	for i := range tr1 {
		if tr1[i] != tr2[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced the same train partition")
	}
}

func TestSplitDatasetTooSmall(t *testing.T) {
	if _, err := SplitDataset(idFrame(t, 2), 123); err == nil {
		t.Fatalf("expected error for 2 rows")
	}
}
