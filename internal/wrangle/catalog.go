// Package wrangle turns raw acquired datasets into analysis-ready ones. Each known dataset
// is described by a catalog entry: where it lives, which cache file holds it, and the
// cleaning rules applied by Prepare.
package wrangle

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/edakit/internal/cache"
	"github.com/KaramelBytes/edakit/internal/source"
)

// Dataset names a known dataset.
type Dataset string

const (
	Grades        Dataset = "grades"
	Housing       Dataset = "housing"
	HousingSample Dataset = "housing-sample"
	Telco         Dataset = "telco"
)

// Entry describes where a dataset comes from and how it is cleaned.
type Entry struct {
	Name      Dataset
	Database  string
	Query     string
	CacheFile string
	Rules     Rules
}

const housingQuery = `
SELECT bedroomcnt, bathroomcnt, calculatedfinishedsquarefeet,
       taxvaluedollarcnt, yearbuilt, taxamount, fips
FROM properties_2017
JOIN propertylandusetype USING (propertylandusetypeid)
WHERE propertylandusedesc = 'Single Family Residential'`

var housingRules = Rules{
	Rename: map[string]string{
		"bedroomcnt":                   "bedrooms",
		"bathroomcnt":                  "bathrooms",
		"calculatedfinishedsquarefeet": "area",
		"taxvaluedollarcnt":            "tax_value",
		"yearbuilt":                    "year_built",
		"taxamount":                    "tax_amount",
		"fips":                         "county",
	},
	Ints:   []string{"bedrooms", "area", "tax_value", "year_built"},
	Floats: []string{"bathrooms", "tax_amount"},
	Recode: &Recode{
		Column: "county",
		Labels: map[string]string{"6037": "LA", "6059": "Orange", "6111": "Ventura"},
	},
}

var catalog = map[Dataset]Entry{
	Grades: {
		Name:      Grades,
		Database:  "school_sample",
		Query:     "SELECT * FROM student_grades",
		CacheFile: "student_grades.csv",
		Rules: Rules{
			Ints: []string{"student_id", "exam1", "exam2", "exam3", "final_grade"},
		},
	},
	Housing: {
		Name:      Housing,
		Database:  "zillow",
		Query:     housingQuery,
		CacheFile: "zillow.csv",
		Rules:     housingRules,
	},
	HousingSample: {
		Name:      HousingSample,
		Database:  "zillow",
		Query:     housingQuery + "\nLIMIT 1000",
		CacheFile: "zillow_sample.csv",
		Rules:     housingRules,
	},
	Telco: {
		Name:     Telco,
		Database: "telco_churn",
		Query: `
SELECT *
FROM customers
    JOIN contract_types USING (contract_type_id)
    JOIN internet_service_types USING (internet_service_type_id)
    JOIN payment_types USING (payment_type_id)`,
		CacheFile: "telco_churn.csv",
		Rules: Rules{
			Drop:   []string{"contract_type_id", "internet_service_type_id", "payment_type_id"},
			Floats: []string{"monthly_charges", "total_charges"},
		},
	},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Entry, error) {
	e, ok := catalog[Dataset(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Entry{}, fmt.Errorf("unknown dataset %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return e, nil
}

// Names lists the known dataset names in sorted order.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for k := range catalog {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// CachePath returns where the entry's snapshot lives under cacheDir.
func (e Entry) CachePath(cacheDir string) string {
	return filepath.Join(cacheDir, e.CacheFile)
}

// Acquire loads the named dataset through the cache.
func Acquire(ctx context.Context, name string, l *cache.Loader, src source.Source, cacheDir string) (dataframe.DataFrame, error) {
	e, err := Lookup(name)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return l.Load(ctx, e.CachePath(cacheDir), e.Query, src)
}
