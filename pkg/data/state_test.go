package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDataState(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	require.NoError(t, SaveRun(db, testRun("run-1", now)))
	second := testRun("run-2", now.Add(time.Minute))
	second.Input = "other.csv"
	require.NoError(t, SaveRun(db, second))

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), state["runs"])
	assert.Equal(t, int64(18), state["rows_written"])
	assert.Equal(t, int64(2), state["duplicates"])
	assert.Equal(t, int64(2), state["inputs"])
}
