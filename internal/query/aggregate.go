package query

import (
	"strings"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// DateRange bounds the filtered set: Min is the earliest CreatedAt, Max
// the latest UpdatedAt. Both are nil when the set is empty.
type DateRange struct {
	Min *time.Time `json:"min"`
	Max *time.Time `json:"max"`
}

// Summary is the fixed aggregate over a filtered note set.
type Summary struct {
	Count      int       `json:"count"`
	AvgLinks   float64   `json:"avg_links"`
	AvgTags    float64   `json:"avg_tags"`
	TotalWords int       `json:"total_words"`
	DateRange  DateRange `json:"date_range"`
}

// Aggregate parses the query, applies only its WHERE clause, and
// summarizes the filtered set. Grouping, ordering, limit, and projection
// are ignored.
func Aggregate(input string, notes []*models.Note) (*Summary, error) {
	stmt, err := Parse(input)
	if err != nil {
		return nil, err
	}

	var s Summary
	var totalLinks, totalTags int
	for _, n := range notes {
		row := noteRow(n)
		if !matchWhere(stmt.Where, row) {
			continue
		}
		s.Count++
		totalLinks += len(n.Links)
		totalTags += len(n.Tags)
		s.TotalWords += len(strings.Fields(n.Body))

		if s.DateRange.Min == nil || n.CreatedAt.Before(*s.DateRange.Min) {
			created := n.CreatedAt
			s.DateRange.Min = &created
		}
		if s.DateRange.Max == nil || n.UpdatedAt.After(*s.DateRange.Max) {
			updated := n.UpdatedAt
			s.DateRange.Max = &updated
		}
	}
	if s.Count > 0 {
		s.AvgLinks = float64(totalLinks) / float64(s.Count)
		s.AvgTags = float64(totalTags) / float64(s.Count)
	}
	return &s, nil
}
