package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/mobusage/pkg/clean"
	"github.com/mchmarny/mobusage/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawCSV = `user_id,age,app_count,charging_freq,avg_screen_time_hrs,daily_data_gb,battery_drain_pct,age_group
u1,21,10,3,5.0,2.0,50,18-25
u2,34,5,1,1.0,0.5,30,26-35
u3,45,50,8,9.0,7.0,95,36-45
u4,19,20,2,3.5,1.5,60,18-25
u5,28,35,4,6.0,3.0,70,26-35
u6,52,8,1,0.8,0.6,35,46-55
u3,45,1,1,1.0,1.0,40,36-45
u7,23,42,6,7.5,5.5,88,18-25
u8,31,15,2,2.5,1.2,45,26-35
u9,40,25,3,4.0,2.5,55,36-45
`

func TestMain(m *testing.M) {
	initLogging(false)
	os.Exit(m.Run())
}

type testEnv struct {
	dir    string
	input  string
	output string
	db     string
}

func newTestEnv(t *testing.T, raw string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	e := &testEnv{
		dir:    dir,
		input:  filepath.Join(dir, "raw.csv"),
		output: filepath.Join(dir, "clean.csv"),
		db:     filepath.Join(dir, "history.db"),
	}
	require.NoError(t, os.WriteFile(e.input, []byte(raw), 0600))
	return e
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	if stdin != "" {
		app.Reader = strings.NewReader(stdin)
	}
	err := app.Run(context.Background(), append([]string{appName}, args...))
	return out.String(), err
}

func (e *testEnv) clean(t *testing.T, extra ...string) *report.Summary {
	t.Helper()
	args := append([]string{"--db", e.db, "clean", "--input", e.input, "--output", e.output}, extra...)
	out, err := run(t, "", args...)
	require.NoError(t, err)

	var s report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	return &s
}

func TestClean(t *testing.T) {
	e := newTestEnv(t, rawCSV)
	metricsPath := filepath.Join(e.dir, "mobusage.prom")

	s := e.clean(t, "--metrics-file", metricsPath)
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, 10, s.Loaded)
	assert.Equal(t, 1, s.Duplicates)
	assert.Equal(t, 9, s.Rows)
	assert.Equal(t, 10, s.Columns)
	assert.NotEmpty(t, s.Distribution)

	b, err := os.ReadFile(e.output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "user_id,age,"))
	assert.Contains(t, string(b), "u1,21,10,3,5.0,2.0,50.0,18-25,3.0,Light")

	m, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(m), "mobusage_clean_rows_written 9")
}

func TestClean_History(t *testing.T) {
	e := newTestEnv(t, rawCSV)
	first := e.clean(t)
	e.clean(t)

	out, err := run(t, "", "--db", e.db, "history")
	require.NoError(t, err)
	var list []*report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 2)

	out, err = run(t, "", "--db", e.db, "history", "--limit", "1")
	require.NoError(t, err)
	list = nil
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 1)

	out, err = run(t, "", "--db", e.db, "history", "--id", first.RunID)
	require.NoError(t, err)
	var got report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, first.RunID, got.RunID)
	assert.Equal(t, len(first.Distribution), len(got.Distribution))
	assert.Equal(t, first.GroupMeans, got.GroupMeans)

	out, err = run(t, "", "--db", e.db, "history", "--stats")
	require.NoError(t, err)
	var state map[string]int64
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, int64(2), state["runs"])
	assert.Equal(t, int64(18), state["rows_written"])
}

func TestClean_NoHistory(t *testing.T) {
	e := newTestEnv(t, rawCSV)
	e.clean(t, "--no-history")

	_, err := os.Stat(e.db)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClean_RangeViolation(t *testing.T) {
	e := newTestEnv(t, strings.Replace(rawCSV, "u2,34,5,1,1.0,0.5,30", "u2,34,5,1,1.0,0.5,99", 1))

	_, err := run(t, "", "--db", e.db, "clean", "--input", e.input, "--output", e.output)
	require.ErrorIs(t, err, clean.ErrRangeViolation)

	_, statErr := os.Stat(e.output)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
	_, statErr = os.Stat(e.db)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestDefaultAction(t *testing.T) {
	e := newTestEnv(t, rawCSV)
	require.NoError(t, os.Rename(e.input, filepath.Join(e.dir, "raw_mobile_usage.csv")))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(e.dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, err := run(t, "", "--db", e.db)
	require.NoError(t, err)
	assert.Contains(t, out, `"rows": 9`)

	_, err = os.Stat(filepath.Join(e.dir, "cleaned_mobile_usage.csv"))
	assert.NoError(t, err)
}

func TestDefaultAction_UnknownCommand(t *testing.T) {
	e := newTestEnv(t, rawCSV)
	_, err := run(t, "", "--db", e.db, "bogus")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	e := newTestEnv(t, rawCSV)

	out, err := run(t, "", "--db", e.db, "describe", "--input", e.input)
	require.NoError(t, err)

	var res describeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, e.input, res.Input)
	assert.Equal(t, 1, res.Duplicates)
	assert.Zero(t, res.RangeViolations)
	assert.Equal(t, 9, res.Rows)
	assert.NotEmpty(t, res.Stats)

	_, err = os.Stat(e.output)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDescribe_ReportsViolations(t *testing.T) {
	e := newTestEnv(t, strings.Replace(rawCSV, "u2,34,5,1,1.0,0.5,30", "u2,34,5,1,1.0,0.1,99", 1))

	out, err := run(t, "", "--db", e.db, "describe", "--input", e.input)
	require.NoError(t, err)

	var res describeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.RangeViolations)
}

func TestConfig(t *testing.T) {
	e := newTestEnv(t, rawCSV)
	path := filepath.Join(e.dir, "conf", "mobusage.yaml")

	_, err := run(t, "", "--db", e.db, "config", "init", "--path", path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	out, err := run(t, "", "--db", e.db, "--config", path, "--format", "yaml", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "key: user_id")
	assert.Contains(t, out, "group_by: age_group")
}

func TestConfig_Invalid(t *testing.T) {
	e := newTestEnv(t, rawCSV)
	path := filepath.Join(e.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: \"\"\n"), 0600))

	_, err := run(t, "", "--db", e.db, "--config", path, "config")
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	e := newTestEnv(t, rawCSV)
	e.clean(t)

	out, err := run(t, "n\n", "--db", e.db, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	out, err = run(t, "", "--db", e.db, "history")
	require.NoError(t, err)
	var list []*report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 1)

	out, err = run(t, "", "--db", e.db, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset complete.")

	out, err = run(t, "", "--db", e.db, "history")
	require.NoError(t, err)
	list = nil
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Empty(t, list)
}
