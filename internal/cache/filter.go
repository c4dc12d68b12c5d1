package cache

import (
	"strings"
	"time"

	"campus-events/internal/model"
)

type TimeRange string

const (
	RangeUpcoming TimeRange = "upcoming"
	RangePast     TimeRange = "past"
	RangeAll      TimeRange = "all"
)

// Filter narrows a list of events the way the directory's search bar does.
// Zero values match everything.
type Filter struct {
	Search     string
	Department model.Department
	Range      TimeRange
}

func (f Filter) Apply(events []model.EventRecord, now time.Time) []model.EventRecord {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.EventRecord, 0, len(events))
	for _, e := range events {
		switch f.Range {
		case RangeUpcoming:
			if e.Date.Before(now) {
				continue
			}
		case RangePast:
			if !e.Date.Before(now) {
				continue
			}
		}
		if f.Department != "" && f.Department != "all" && e.Department != f.Department {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) &&
			!strings.Contains(strings.ToLower(e.Venue), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}
