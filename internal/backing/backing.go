// Package backing holds what the dataset readers share: the structured
// error they report and a CSV scanner that addresses columns by header name.
package backing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrOpen marks a database that could not be opened or indexed. It stays
// unusable for the rest of the run.
var ErrOpen = errors.New("backing database unavailable")

type DBError struct {
	DB   string
	Op   string
	Path string
	Err  error
}

func (e *DBError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s %s: %v", e.DB, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.DB, e.Op, e.Path, e.Err)
}

func (e *DBError) Unwrap() error { return e.Err }

// OpenError wraps err as an open failure of db, matching ErrOpen.
func OpenError(db, path string, err error) error {
	return &DBError{DB: db, Op: "open", Path: path, Err: fmt.Errorf("%w: %w", ErrOpen, err)}
}

// Column names a CSV column and the header spellings it may appear under.
type Column struct {
	Name    string
	Aliases []string
}

func Col(name string, aliases ...string) Column {
	return Column{Name: name, Aliases: append([]string{name}, aliases...)}
}

// Record is one CSV row keyed by Column.Name.
type Record struct {
	Line int
	vals map[string]string
}

func (r Record) Text(name string) string { return r.vals[name] }

func (r Record) Float(name string) (float64, error) {
	s := r.vals[name]
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s %q: %w", r.Line, name, s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("line %d: column %s is not finite", r.Line, name)
	}
	return v, nil
}

// ScanCSV reads a header row, resolves cols against it and calls fn for
// every data row. Lines starting with '#' are comments.
func ScanCSV(in io.Reader, cols []Column, fn func(Record) error) error {
	cr := csv.NewReader(in)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty csv: missing header")
		}
		return fmt.Errorf("csv header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := make(map[string]int, len(cols))
	for _, c := range cols {
		found := false
		for _, a := range c.Aliases {
			if i, ok := pos[strings.ToLower(a)]; ok {
				idx[c.Name] = i
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("csv header %v: missing column %s", header, strings.Join(c.Aliases, "|"))
		}
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rec := Record{Line: line, vals: make(map[string]string, len(idx))}
		for name, i := range idx {
			rec.vals[name] = strings.TrimSpace(row[i])
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
