package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrNoHeader      = errors.New("header row required")
)

// Field is one required column and the kind it is expected to hold.
type Field struct {
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`
}

// Schema lists the columns an input file must carry.
type Schema []Field

// Kinds returns the kinds by column name.
func (s Schema) Kinds() map[string]Kind {
	m := make(map[string]Kind, len(s))
	for _, f := range s {
		m[f.Name] = f.Kind
	}
	return m
}

// Names returns the names of the fields with the given kind, in schema order.
func (s Schema) Names(k Kind) []string {
	var out []string
	for _, f := range s {
		if f.Kind == k {
			out = append(out, f.Name)
		}
	}
	return out
}

// Check verifies the header carries every schema field.
func (s Schema) Check(header []string) error {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	var missing []string
	for _, f := range s {
		if _, ok := have[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Load reads a headed CSV into a table of string columns after checking the
// header against the schema. Columns not in the schema are carried through untouched.
func Load(r io.Reader, schema Schema) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	if err := schema.Check(header); err != nil {
		return nil, err
	}

	t, err := New(header...)
	if err != nil {
		return nil, fmt.Errorf("building table: %w", err)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if err := t.AppendRow(line, rec); err != nil {
			return nil, err
		}
	}

	slog.Debug("csv loaded", "rows", t.Len(), "columns", len(header))
	return t, nil
}

// ReadFile opens path and loads it with Load.
func ReadFile(path string, schema Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := Load(f, schema)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return t, nil
}

// Missing counts empty cells per column. Typed columns never hold empty values.
func (t *Table) Missing() map[string]int {
	out := make(map[string]int, len(t.columns))
	for _, c := range t.columns {
		n := 0
		if c.Kind == KindString {
			for _, v := range c.Strings {
				if strings.TrimSpace(v) == "" {
					n++
				}
			}
		}
		out[c.Name] = n
	}
	return out
}
