package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mchmarny/mobusage/pkg/report"
	"github.com/mchmarny/mobusage/pkg/score"
)

const (
	insertRunSQL = `INSERT INTO run (id, started_at, input, output, loaded, duplicates, row_count, column_count, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertRunCategorySQL = `INSERT INTO run_category (run_id, category, count, percent) VALUES (?, ?, ?, ?)`

	insertRunGroupSQL = `INSERT INTO run_group (run_id, grp, count, mean_score) VALUES (?, ?, ?, ?)`

	selectRunsSQL = `SELECT id, started_at, input, output, loaded, duplicates, row_count, column_count, duration
		FROM run
		ORDER BY started_at DESC, id
		LIMIT ?`

	selectRunSQL = `SELECT id, started_at, input, output, loaded, duplicates, row_count, column_count, duration
		FROM run
		WHERE id = ?`

	selectRunCategoriesSQL = `SELECT category, count, percent FROM run_category WHERE run_id = ?`

	selectRunGroupsSQL = `SELECT grp, count, mean_score FROM run_group WHERE run_id = ? ORDER BY grp`

	timeFormat = time.RFC3339Nano
)

var ErrRunNotFound = errors.New("run not found")

// SaveRun stores the summary and its aggregates in one transaction.
func SaveRun(db *sql.DB, s *report.Summary) error {
	if db == nil {
		return errDBNotInitialized
	}
	if s == nil || s.RunID == "" {
		return errors.New("summary with run id required")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(insertRunSQL, s.RunID, s.StartedAt.UTC().Format(timeFormat), s.Input, s.Output,
		s.Loaded, s.Duplicates, s.Rows, s.Columns, s.Duration); err != nil {
		return fmt.Errorf("inserting run %s: %w", s.RunID, err)
	}

	catStmt, err := tx.Prepare(insertRunCategorySQL)
	if err != nil {
		return fmt.Errorf("preparing category statement: %w", err)
	}
	defer catStmt.Close()
	for _, d := range s.Distribution {
		if _, err := catStmt.Exec(s.RunID, string(d.Category), d.Count, d.Percent); err != nil {
			return fmt.Errorf("inserting category %s: %w", d.Category, err)
		}
	}

	grpStmt, err := tx.Prepare(insertRunGroupSQL)
	if err != nil {
		return fmt.Errorf("preparing group statement: %w", err)
	}
	defer grpStmt.Close()
	for _, g := range s.GroupMeans {
		if _, err := grpStmt.Exec(s.RunID, g.Group, g.Count, g.MeanScore); err != nil {
			return fmt.Errorf("inserting group %s: %w", g.Group, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*report.Summary, error) {
	var (
		s       report.Summary
		started string
	)
	if err := r.Scan(&s.RunID, &started, &s.Input, &s.Output, &s.Loaded, &s.Duplicates, &s.Rows, &s.Columns, &s.Duration); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeFormat, started)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
	}
	s.StartedAt = t
	return &s, nil
}

// ListRuns returns up to limit runs, newest first, without their aggregates.
func ListRuns(db *sql.DB, limit int) ([]*report.Summary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.Query(selectRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	list := make([]*report.Summary, 0)
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return list, nil
}

// GetRun returns one run with its distribution and group means.
func GetRun(db *sql.DB, id string) (*report.Summary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	s, err := scanRun(db.QueryRow(selectRunSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("scanning run %s: %w", id, err)
	}

	if s.Distribution, err = getRunCategories(db, id); err != nil {
		return nil, err
	}
	if s.GroupMeans, err = getRunGroups(db, id); err != nil {
		return nil, err
	}
	return s, nil
}

func getRunCategories(db *sql.DB, id string) ([]report.CategoryShare, error) {
	rows, err := db.Query(selectRunCategoriesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying categories of %s: %w", id, err)
	}
	defer rows.Close()

	out := make([]report.CategoryShare, 0)
	for rows.Next() {
		var (
			c   report.CategoryShare
			cat string
		)
		if err := rows.Scan(&cat, &c.Count, &c.Percent); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		c.Category = score.Category(cat)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	report.SortDistribution(out)
	return out, nil
}

func getRunGroups(db *sql.DB, id string) ([]report.GroupMean, error) {
	rows, err := db.Query(selectRunGroupsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying groups of %s: %w", id, err)
	}
	defer rows.Close()

	out := make([]report.GroupMean, 0)
	for rows.Next() {
		var g report.GroupMean
		if err := rows.Scan(&g.Group, &g.Count, &g.MeanScore); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
