package cache

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/edakit/internal/utils"
)

// Store persists dataset snapshots. Records handed to Write and returned by Read include
// the row identifier column.
type Store interface {
	Exists(path string) (bool, error)
	Read(path string) ([][]string, error)
	Write(path string, records [][]string) error
	Remove(path string) error
}

// FileStore keeps snapshots as delimited text files.
type FileStore struct {
	// Delimiter for the file. If 0, tab for .tsv paths and comma otherwise.
	Delimiter rune
}

func (s FileStore) Exists(path string) (bool, error) {
	return utils.FileExists(path)
}

func (s FileStore) Read(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.delimiter(path)
	// Every record must match the header's field count.
	r.FieldsPerRecord = 0
	var out [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Path: path, Line: pe.Line, Err: pe.Err}
			}
			return nil, &ParseError{Path: path, Err: err}
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("empty file")}
	}
	if len(out[0]) < 2 {
		return nil, &ParseError{Path: path, Line: 1, Err: errors.New("header has no data columns after the row identifier")}
	}
	return out, nil
}

func (s FileStore) Write(path string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = s.delimiter(path)
	if err := w.WriteAll(records); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func (s FileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s FileStore) delimiter(path string) rune {
	if s.Delimiter != 0 {
		return s.Delimiter
	}
	return sniffDelimiter(path)
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
