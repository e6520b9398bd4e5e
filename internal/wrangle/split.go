package wrangle

import (
	"errors"
	"math"
	"math/rand"

	"github.com/go-gota/gota/dataframe"
)

// Partition proportions.
const (
	TrainFraction = 0.6
	// TestShare is the share of the non-train rows that goes to test; the rest validates.
	TestShare = 0.5
)

// Split holds three row-disjoint partitions of one dataset.
type Split struct {
	Train    dataframe.DataFrame
	Validate dataframe.DataFrame
	Test     dataframe.DataFrame
}

// SplitIndexes returns the row indexes of each partition for n rows. The assignment
// depends only on n and seed.
func SplitIndexes(n int, seed int64) (train, validate, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTrain := int(math.Round(TrainFraction * float64(n)))
	rest := perm[nTrain:]
	nTest := int(math.Ceil(TestShare * float64(len(rest))))
	nValidate := len(rest) - nTest
	return perm[:nTrain], rest[:nValidate], rest[nValidate:]
}

// SplitDataset partitions ds 60/20/20 into train, validate and test. No stratification.
func SplitDataset(ds dataframe.DataFrame, seed int64) (Split, error) {
	if ds.Err != nil {
		return Split{}, ds.Err
	}
	n := ds.Nrow()
	if n < 3 {
		return Split{}, errors.New("split needs at least 3 rows")
	}
	tr, va, te := SplitIndexes(n, seed)
	return Split{
		Train:    ds.Subset(tr),
		Validate: ds.Subset(va),
		Test:     ds.Subset(te),
	}, nil
}
