package reconcile

import (
	"fmt"
	"time"

	"github.com/dori/teamboard/internal/model"
)

// Bucketing is the width of a time series bucket
type Bucketing string

const (
	ByDay   Bucketing = "day"
	ByMonth Bucketing = "month"
)

// ParseBucketing accepts "day" or "month"
func ParseBucketing(s string) (Bucketing, error) {
	switch Bucketing(s) {
	case ByDay, ByMonth:
		return Bucketing(s), nil
	default:
		return "", fmt.Errorf("unknown bucketing %q (want day or month)", s)
	}
}

// Bucket is one point of a time series
type Bucket struct {
	Start time.Time `json:"start"`
	Label string    `json:"label"`
	Count int       `json:"count"`
}

// Dated is anything with selectable dates
type Dated interface {
	Date(field model.DateField) *time.Time
}

// TimeSeries counts items by the chosen date over the n buckets ending with
// the bucket containing end. Every bucket in the window is present, empty
// ones with a zero count. Items without the date, or outside the window,
// are ignored.
func TimeSeries[T Dated](items []T, field model.DateField, by Bucketing, end time.Time, n int) []Bucket {
	if n <= 0 {
		return []Bucket{}
	}

	loc := end.Location()
	last := truncate(end, by, loc)
	buckets := make([]Bucket, n)
	for i := 0; i < n; i++ {
		start := step(last, by, i-(n-1))
		buckets[i] = Bucket{Start: start, Label: label(start, by)}
	}
	first := buckets[0].Start
	limit := step(last, by, 1)

	for _, it := range items {
		d := it.Date(field)
		if d == nil {
			continue
		}
		t := d.In(loc)
		if t.Before(first) || !t.Before(limit) {
			continue
		}
		start := truncate(t, by, loc)
		for i := range buckets {
			if buckets[i].Start.Equal(start) {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

func truncate(t time.Time, by Bucketing, loc *time.Location) time.Time {
	t = t.In(loc)
	if by == ByMonth {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func step(t time.Time, by Bucketing, k int) time.Time {
	if by == ByMonth {
		return t.AddDate(0, k, 0)
	}
	return t.AddDate(0, 0, k)
}

func label(t time.Time, by Bucketing) string {
	if by == ByMonth {
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}
