package report

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/mchmarny/mobusage/pkg/table"
)

var ErrNoNumericColumns = errors.New("table has no numeric columns")

// ColumnInfo mirrors one line of a dataframe info listing.
type ColumnInfo struct {
	Name    string     `json:"name" yaml:"name"`
	Kind    table.Kind `json:"kind" yaml:"kind"`
	NonNull int        `json:"non_null" yaml:"non_null"`
	Missing int        `json:"missing" yaml:"missing"`
	Unique  int        `json:"unique" yaml:"unique"`
}

// Description combines the per-column info with the numeric statistics table.
type Description struct {
	Rows    int          `json:"rows" yaml:"rows"`
	Columns []ColumnInfo `json:"columns" yaml:"columns"`
	Stats   [][]string   `json:"stats" yaml:"stats"`
}

// Info lists kind, non-null, missing and distinct counts for every column.
func Info(t *table.Table) []ColumnInfo {
	missing := t.Missing()
	out := make([]ColumnInfo, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		distinct := make(map[string]struct{})
		for i := 0; i < c.Len(); i++ {
			distinct[c.Format(i)] = struct{}{}
		}
		out = append(out, ColumnInfo{
			Name:    c.Name,
			Kind:    c.Kind,
			NonNull: c.Len() - missing[c.Name],
			Missing: missing[c.Name],
			Unique:  len(distinct),
		})
	}
	return out
}

// Frame converts the numeric columns of the table into a dataframe.
func Frame(t *table.Table) (dataframe.DataFrame, error) {
	var cols []series.Series
	for _, c := range t.Columns() {
		switch c.Kind {
		case table.KindInt:
			vals := make([]int, len(c.Ints))
			for i, v := range c.Ints {
				vals[i] = int(v)
			}
			cols = append(cols, series.New(vals, series.Int, c.Name))
		case table.KindFloat:
			cols = append(cols, series.New(c.Floats, series.Float, c.Name))
		}
	}
	if len(cols) == 0 {
		return dataframe.DataFrame{}, ErrNoNumericColumns
	}

	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("building dataframe: %w", df.Err)
	}
	return df, nil
}

// Describe returns the info listing plus the descriptive statistics (mean,
// median, stddev, min, quartiles, max) of the numeric columns.
func Describe(t *table.Table) (*Description, error) {
	d := &Description{Rows: t.Len(), Columns: Info(t)}
	if t.Len() == 0 {
		return d, nil
	}

	df, err := Frame(t)
	if err != nil {
		if errors.Is(err, ErrNoNumericColumns) {
			return d, nil
		}
		return nil, err
	}

	stats := df.Describe()
	if stats.Err != nil {
		return nil, fmt.Errorf("describing dataframe: %w", stats.Err)
	}
	d.Stats = stats.Records()
	return d, nil
}
