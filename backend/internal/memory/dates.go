package memory

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extracted dates carry a fixed 09:00 UTC time of day; the engine only
// reasons about calendar days.
const eventHour = 9

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	isoDatePattern      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayPattern     = regexp.MustCompile(`(?i)\b(` + monthAlt + `)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\b`)
	dayMonthPattern     = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlt + `)(?:,?\s*(\d{4}))?\b`)
)

// ExtractDate attempts a best-effort parse of an absolute instant from free
// text. Absence of a parseable date is not an error; ok is simply false.
func ExtractDate(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)

	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if validDate(year, time.Month(month), day) {
			return atEventHour(year, time.Month(month), day), true
		}
	}

	if m := monthDayPattern.FindStringSubmatch(lower); m != nil {
		month := monthsByName[m[1]]
		day, _ := strconv.Atoi(m[2])
		if t, ok := resolveDate(month, day, m[3], now); ok {
			return t, true
		}
	}

	if m := dayMonthPattern.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthsByName[m[2]]
		if t, ok := resolveDate(month, day, m[3], now); ok {
			return t, true
		}
	}

	switch {
	case strings.Contains(lower, "tomorrow"):
		d := now.UTC().AddDate(0, 0, 1)
		return atEventHour(d.Year(), d.Month(), d.Day()), true
	case strings.Contains(lower, "next week"):
		d := now.UTC().AddDate(0, 0, 7)
		return atEventHour(d.Year(), d.Month(), d.Day()), true
	case strings.Contains(lower, "next month"):
		d := now.UTC().AddDate(0, 1, 0)
		return atEventHour(d.Year(), d.Month(), d.Day()), true
	}

	return time.Time{}, false
}

// resolveDate applies year inference: a date with no explicit year is
// assumed to be in the current year, rolling to the next year when it has
// already passed.
func resolveDate(month time.Month, day int, yearStr string, now time.Time) (time.Time, bool) {
	if month == 0 {
		return time.Time{}, false
	}
	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || !validDate(year, month, day) {
			return time.Time{}, false
		}
		return atEventHour(year, month, day), true
	}

	year := now.UTC().Year()
	if !validDate(year, month, day) {
		return time.Time{}, false
	}
	candidate := atEventHour(year, month, day)
	if candidate.Before(now.UTC()) {
		candidate = atEventHour(year+1, month, day)
	}
	return candidate, true
}

func atEventHour(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, eventHour, 0, 0, 0, time.UTC)
}

func validDate(year int, month time.Month, day int) bool {
	if year < 1970 || year > 2200 || month < time.January || month > time.December || day < 1 {
		return false
	}
	// Normalization in time.Date would silently roll invalid days forward
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Month() == month && t.Day() == day
}
