// Package table holds the in-memory, column-oriented representation of a
// mobile-usage dataset along with its CSV loader and writer.
package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the value type held by a column.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrLengthMismatch  = errors.New("column length does not match table")
)

// Column is a named, typed vector of values. Only the slice matching Kind is populated.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Ints    []int64
	Floats  []float64
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindInt:
		return len(c.Ints)
	case KindFloat:
		return len(c.Floats)
	default:
		return len(c.Strings)
	}
}

// Format renders the i-th value the way it is written to CSV.
func (c *Column) Format(i int) string {
	switch c.Kind {
	case KindInt:
		return strconv.FormatInt(c.Ints[i], 10)
	case KindFloat:
		return FormatFloat(c.Floats[i])
	default:
		return c.Strings[i]
	}
}

// FormatFloat uses the shortest representation that round-trips and keeps a
// trailing ".0" on integral values.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// Table is an ordered set of equally sized columns. Lines holds the source
// CSV line of each row (1-based, header is line 1) so errors can point back
// at the input.
type Table struct {
	columns []*Column
	index   map[string]int
	lines   []int
}

// New creates an empty table with the given string columns.
func New(names ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(names))}
	for _, n := range names {
		if err := t.AddColumn(&Column{Name: n, Kind: KindString}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.lines)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return t.columns[i], nil
}

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Line returns the source line of row i, or 0 when the row was not loaded from a file.
func (t *Table) Line(i int) int {
	if i < 0 || i >= len(t.lines) {
		return 0
	}
	return t.lines[i]
}

// AddColumn appends a column. Once the table has rows the column must match its length.
func (t *Table) AddColumn(c *Column) error {
	if c == nil || c.Name == "" {
		return errors.New("column name required")
	}
	if _, ok := t.index[c.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
	}
	if len(t.columns) > 0 && c.Len() != t.Len() {
		return fmt.Errorf("%w: %s has %d values, table has %d rows", ErrLengthMismatch, c.Name, c.Len(), t.Len())
	}
	if len(t.columns) == 0 && c.Len() > 0 {
		t.lines = make([]int, c.Len())
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// AppendRow adds one row of raw string values. Only valid while every column is a string column.
func (t *Table) AppendRow(line int, values []string) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("line %d: %w: got %d fields, want %d", line, ErrLengthMismatch, len(values), len(t.columns))
	}
	for i, c := range t.columns {
		if c.Kind != KindString {
			return fmt.Errorf("append to typed column %s", c.Name)
		}
		c.Strings = append(c.Strings, values[i])
	}
	t.lines = append(t.lines, line)
	return nil
}

// Row renders row i as strings in column order.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.Format(i)
	}
	return out
}

// Filter keeps the rows for which keep[i] is true, preserving order.
func (t *Table) Filter(keep []bool) error {
	if len(keep) != t.Len() {
		return fmt.Errorf("%w: filter mask has %d entries, table has %d rows", ErrLengthMismatch, len(keep), t.Len())
	}
	for _, c := range t.columns {
		switch c.Kind {
		case KindInt:
			c.Ints = compact(c.Ints, keep)
		case KindFloat:
			c.Floats = compact(c.Floats, keep)
		default:
			c.Strings = compact(c.Strings, keep)
		}
	}
	t.lines = compact(t.lines, keep)
	return nil
}

func compact[T any](in []T, keep []bool) []T {
	out := in[:0]
	for i, v := range in {
		if keep[i] {
			out = append(out, v)
		}
	}
	return out
}
