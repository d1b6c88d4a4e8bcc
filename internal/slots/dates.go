package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var (
	monthDayRe = regexp.MustCompile(`^([a-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?$`)
	inDaysRe   = regexp.MustCompile(`^in\s+(\d+)\s+days?$`)
)

// ParseDueDate resolves a date expression against "now". Relative expressions
// ("next friday", "in 5 days") and year-less dates ("July 15") resolve to the
// current or next occurrence. The result is a bare calendar date in UTC.
func ParseDueDate(value string, now time.Time) (time.Time, error) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	today := truncateToDate(now)

	switch cleaned {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if day, ok := strings.CutPrefix(cleaned, "next "); ok {
		if wd, known := weekdays[day]; known {
			return nextWeekday(today, wd), nil
		}
	}

	if m := inDaysRe.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, n), nil
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return truncateToDate(t), nil
		}
	}

	if m := monthDayRe.FindStringSubmatch(cleaned); m != nil {
		month, known := monthNames[m[1]]
		if known {
			day, _ := strconv.Atoi(m[2])
			if day >= 1 && day <= 31 {
				if m[3] != "" {
					year, _ := strconv.Atoi(m[3])
					return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
				}
				// No year given: current occurrence if not yet past, else next year
				candidate := time.Date(today.Year(), month, day, 0, 0, 0, 0, time.UTC)
				if candidate.Before(today) {
					candidate = candidate.AddDate(1, 0, 0)
				}
				return candidate, nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	days := int(wd-today.Weekday()+7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}
