// Package clean implements the deduplication, type normalization and range
// validation stages applied to a loaded table.
package clean

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/mobusage/pkg/table"
)

// Deduplicate drops every row whose key was already seen, keeping the first
// occurrence and the original row order. It returns the number of rows removed.
func Deduplicate(t *table.Table, key string) (int, error) {
	c, err := t.Column(key)
	if err != nil {
		return 0, fmt.Errorf("dedup key: %w", err)
	}

	n := t.Len()
	seen := make(map[string]struct{}, n)
	keep := make([]bool, n)
	removed := 0
	for i := 0; i < n; i++ {
		k := strings.TrimSpace(c.Format(i))
		if _, ok := seen[k]; ok {
			removed++
			continue
		}
		seen[k] = struct{}{}
		keep[i] = true
	}

	if removed == 0 {
		return 0, nil
	}
	if err := t.Filter(keep); err != nil {
		return 0, fmt.Errorf("dropping duplicates: %w", err)
	}
	slog.Debug("duplicates dropped", "key", key, "removed", removed, "rows", t.Len())
	return removed, nil
}
