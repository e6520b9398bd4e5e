// Package cache implements the acquire-through-cache protocol: a hit parses the stored
// snapshot, a miss runs exactly one source query and persists the result before returning.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/edakit/internal/frame"
	"github.com/KaramelBytes/edakit/internal/source"
)

// Loader fills and reads dataset snapshots.
type Loader struct {
	Store Store
	// Log receives one line per Load describing the hit or miss. Nil discards.
	Log io.Writer
}

// NewLoader returns a Loader backed by delimited text files.
func NewLoader(log io.Writer) *Loader {
	return &Loader{Store: FileStore{}, Log: log}
}

// Load returns the dataset cached at cachePath, or runs query against src, writes the
// result to cachePath and returns it. The query is ignored on a hit.
func (l *Loader) Load(ctx context.Context, cachePath, query string, src source.Source) (dataframe.DataFrame, error) {
	if cachePath == "" {
		return dataframe.DataFrame{}, errors.New("cache path is required")
	}
	hit, err := l.Store.Exists(cachePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("stat cache: %w", err)
	}
	if hit {
		return l.readHit(cachePath)
	}
	return l.fillMiss(ctx, cachePath, query, src)
}

// Invalidate removes the snapshot at cachePath so the next Load queries the source.
func (l *Loader) Invalidate(cachePath string) error {
	return l.Store.Remove(cachePath)
}

func (l *Loader) readHit(cachePath string) (dataframe.DataFrame, error) {
	l.logf("cache hit: reading %s\n", cachePath)
	recs, err := l.Store.Read(cachePath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := frame.FromRecords(stripRowID(recs))
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: cachePath, Err: err}
	}
	return df, nil
}

func (l *Loader) fillMiss(ctx context.Context, cachePath, query string, src source.Source) (dataframe.DataFrame, error) {
	if src == nil {
		return dataframe.DataFrame{}, &source.UnavailableError{Err: errors.New("no source configured")}
	}
	l.logf("cache miss: querying source, writing %s\n", cachePath)
	recs, err := src.Query(ctx, query)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := frame.FromRecords(recs)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build dataset: %w", err)
	}
	if err := l.Store.Write(cachePath, withRowID(recs)); err != nil {
		return dataframe.DataFrame{}, err
	}
	return df, nil
}

func (l *Loader) logf(format string, args ...interface{}) {
	if l.Log != nil {
		fmt.Fprintf(l.Log, format, args...)
	}
}

// withRowID prefixes each record with a row identifier; the header cell is empty.
func withRowID(recs [][]string) [][]string {
	out := make([][]string, len(recs))
	for i, rec := range recs {
		row := make([]string, 0, len(rec)+1)
		if i == 0 {
			row = append(row, "")
		} else {
			row = append(row, strconv.Itoa(i-1))
		}
		out[i] = append(row, rec...)
	}
	return out
}

func stripRowID(recs [][]string) [][]string {
	out := make([][]string, len(recs))
	for i, rec := range recs {
		out[i] = rec[1:]
	}
	return out
}
