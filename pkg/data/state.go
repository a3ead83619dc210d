package data

import (
	"database/sql"
	"fmt"
)

var stateQueries = map[string]string{
	"runs":         "SELECT COUNT(*) FROM run",
	"rows_written": "SELECT COALESCE(SUM(row_count), 0) FROM run",
	"duplicates":   "SELECT COALESCE(SUM(duplicates), 0) FROM run",
	"inputs":       "SELECT COUNT(DISTINCT input) FROM run",
}

// GetDataState returns aggregate counters over the recorded runs.
func GetDataState(db *sql.DB) (map[string]int64, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	state := make(map[string]int64, len(stateQueries))
	for k, q := range stateQueries {
		var count int64
		if err := db.QueryRow(q).Scan(&count); err != nil {
			return nil, fmt.Errorf("getting %s count: %w", k, err)
		}
		state[k] = count
	}
	return state, nil
}
