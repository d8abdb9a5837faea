package main

import (
	"fmt"
	"strings"
	"time"
)

// parseDate reads an absolute or relative date and returns the start of that
// day in now's location
func parseDate(s string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, nil
	case "tomorrow", "tom":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "monday", "mon":
		return nextWeekday(today, time.Monday), nil
	case "tuesday", "tue":
		return nextWeekday(today, time.Tuesday), nil
	case "wednesday", "wed":
		return nextWeekday(today, time.Wednesday), nil
	case "thursday", "thu":
		return nextWeekday(today, time.Thursday), nil
	case "friday", "fri":
		return nextWeekday(today, time.Friday), nil
	case "saturday", "sat":
		return nextWeekday(today, time.Saturday), nil
	case "sunday", "sun":
		return nextWeekday(today, time.Sunday), nil
	case "nextweek":
		return today.AddDate(0, 0, 7), nil
	}

	formats := []string{
		"2006-01-02",
		"01/02/2006",
		"Jan 2, 2006",
		"Jan 2",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, strings.TrimSpace(s), now.Location()); err == nil {
			// If no year, use current year
			if t.Year() == 0 {
				t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			}
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot read date %q (try 2026-01-15, tomorrow or friday)", s)
}

// nextWeekday returns the next day strictly after today falling on day
func nextWeekday(today time.Time, day time.Weekday) time.Time {
	daysUntil := int(day - today.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	return today.AddDate(0, 0, daysUntil)
}

// endOfDay returns the last instant of t's day
func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// formatDay renders a date column
func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02")
}
