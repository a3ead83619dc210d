// Package report computes the reporting-only aggregates of a cleaned table
// and the summary emitted at the end of a run.
package report

import (
	"fmt"
	"sort"

	"github.com/mchmarny/mobusage/pkg/score"
	"github.com/mchmarny/mobusage/pkg/table"
)

// CategoryShare is one line of the behaviour distribution.
type CategoryShare struct {
	Category score.Category `json:"category" yaml:"category"`
	Count    int            `json:"count" yaml:"count"`
	Percent  float64        `json:"percent" yaml:"percent"`
}

// GroupMean is the mean score of one group.
type GroupMean struct {
	Group     string  `json:"group" yaml:"group"`
	Count     int     `json:"count" yaml:"count"`
	MeanScore float64 `json:"mean_score" yaml:"mean_score"`
}

// Aggregates are computed for reporting only and are never written to the output file.
type Aggregates struct {
	Distribution []CategoryShare `json:"distribution" yaml:"distribution"`
	GroupMeans   []GroupMean     `json:"group_means" yaml:"group_means"`
}

// Aggregate computes the category distribution (count descending, ties by
// severity) and the mean score per group (group key ascending).
func Aggregate(t *table.Table, categoryCol, groupCol, scoreCol string) (*Aggregates, error) {
	cats, err := t.Column(categoryCol)
	if err != nil {
		return nil, err
	}
	groups, err := t.Column(groupCol)
	if err != nil {
		return nil, err
	}
	scores, err := t.Column(scoreCol)
	if err != nil {
		return nil, err
	}
	if scores.Kind != table.KindFloat {
		return nil, fmt.Errorf("column %s is %s, want %s", scoreCol, scores.Kind, table.KindFloat)
	}

	return &Aggregates{
		Distribution: distribution(cats),
		GroupMeans:   groupMeans(groups, scores.Floats),
	}, nil
}

func distribution(c *table.Column) []CategoryShare {
	n := c.Len()
	counts := make(map[score.Category]int)
	for i := 0; i < n; i++ {
		counts[score.Category(c.Format(i))]++
	}

	out := make([]CategoryShare, 0, len(counts))
	for cat, cnt := range counts {
		out = append(out, CategoryShare{
			Category: cat,
			Count:    cnt,
			Percent:  float64(cnt) / float64(n) * 100,
		})
	}
	SortDistribution(out)
	return out
}

// SortDistribution orders shares by count descending, then by severity.
func SortDistribution(d []CategoryShare) {
	sort.Slice(d, func(i, j int) bool {
		if d[i].Count != d[j].Count {
			return d[i].Count > d[j].Count
		}
		ri, rj := d[i].Category.Rank(), d[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return d[i].Category < d[j].Category
	})
}

func groupMeans(g *table.Column, scores []float64) []GroupMean {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, s := range scores {
		k := g.Format(i)
		sums[k] += s
		counts[k]++
	}

	out := make([]GroupMean, 0, len(sums))
	for k, sum := range sums {
		out = append(out, GroupMean{Group: k, Count: counts[k], MeanScore: sum / float64(counts[k])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}
