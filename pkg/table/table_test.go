package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	{Name: "user_id", Kind: KindString},
	{Name: "age", Kind: KindInt},
	{Name: "avg_screen_time_hrs", Kind: KindFloat},
}

const testCSV = `user_id,age,avg_screen_time_hrs,extra
u1,21,4.5,a
u2,34,1.25,
u3,45,8,c
`

func TestLoad(t *testing.T) {
	tbl, err := Load(strings.NewReader(testCSV), testSchema)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"user_id", "age", "avg_screen_time_hrs", "extra"}, tbl.Names())
	assert.Equal(t, 2, tbl.Line(0))
	assert.Equal(t, 4, tbl.Line(2))
	assert.Equal(t, 0, tbl.Line(9))

	c, err := tbl.Column("age")
	require.NoError(t, err)
	assert.Equal(t, KindString, c.Kind)
	assert.Equal(t, []string{"21", "34", "45"}, c.Strings)
}

func TestLoad_MissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("user_id,age\nu1,3\n"), testSchema)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "avg_screen_time_hrs")
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(strings.NewReader(""), testSchema)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestLoad_HeaderOnly(t *testing.T) {
	tbl, err := Load(strings.NewReader("user_id,age,avg_screen_time_hrs\n"), testSchema)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestLoad_RaggedRow(t *testing.T) {
	_, err := Load(strings.NewReader("user_id,age,avg_screen_time_hrs\nu1,3\n"), testSchema)
	assert.Error(t, err)
}

func TestLoad_BOMHeader(t *testing.T) {
	tbl, err := Load(strings.NewReader("\ufeffuser_id,age,avg_screen_time_hrs\nu1,3,1.0\n"), testSchema)
	require.NoError(t, err)
	assert.True(t, tbl.Has("user_id"))
}

func TestReadFile_NotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), testSchema)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMissing(t *testing.T) {
	tbl, err := Load(strings.NewReader(testCSV), testSchema)
	require.NoError(t, err)
	m := tbl.Missing()
	assert.Equal(t, 1, m["extra"])
	assert.Equal(t, 0, m["user_id"])
}

func TestFilter(t *testing.T) {
	tbl, err := Load(strings.NewReader(testCSV), testSchema)
	require.NoError(t, err)

	require.NoError(t, tbl.Filter([]bool{true, false, true}))
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"u3", "45", "8", "c"}, tbl.Row(1))
	assert.Equal(t, 4, tbl.Line(1))

	assert.ErrorIs(t, tbl.Filter([]bool{true}), ErrLengthMismatch)
}

func TestAddColumn(t *testing.T) {
	tbl, err := Load(strings.NewReader(testCSV), testSchema)
	require.NoError(t, err)

	err = tbl.AddColumn(&Column{Name: "score", Kind: KindFloat, Floats: []float64{1, 2}})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	err = tbl.AddColumn(&Column{Name: "age", Kind: KindInt, Ints: []int64{1, 2, 3}})
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	require.NoError(t, tbl.AddColumn(&Column{Name: "score", Kind: KindFloat, Floats: []float64{1, 2.5, 3}}))
	assert.Equal(t, "score", tbl.Names()[4])

	_, err = tbl.Column("missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3.0"},
		{3.5, "3.5"},
		{0.1, "0.1"},
		{2.67, "2.67"},
		{-1, "-1.0"},
		{1234567, "1234567.0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.in))
		})
	}
}

func TestWrite(t *testing.T) {
	tbl := &Table{index: map[string]int{}}
	require.NoError(t, tbl.AddColumn(&Column{Name: "id", Kind: KindString, Strings: []string{"a", "b,c"}}))
	require.NoError(t, tbl.AddColumn(&Column{Name: "n", Kind: KindInt, Ints: []int64{1, -2}}))
	require.NoError(t, tbl.AddColumn(&Column{Name: "f", Kind: KindFloat, Floats: []float64{3, 0.25}}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl))
	assert.Equal(t, "id,n,f\na,1,3.0\n\"b,c\",-2,0.25\n", buf.String())
}

func TestWriteFile_Overwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0600))

	tbl, err := Load(strings.NewReader(testCSV), testSchema)
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, tbl))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testCSV, string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile_BadDir(t *testing.T) {
	tbl, err := New("a")
	require.NoError(t, err)
	err = WriteFile(filepath.Join(t.TempDir(), "missing", "out.csv"), tbl)
	assert.Error(t, err)
}
