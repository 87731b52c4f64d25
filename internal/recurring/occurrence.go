package recurring

import (
	"fmt"
	"time"

	"balance-sheet-go/internal/models"
)

// ComputeNextOccurrence returns the occurrence after from. Month-based
// frequencies clamp to the last day of the target month, so Jan 31 plus
// one month is Feb 28 (Feb 29 in leap years).
func ComputeNextOccurrence(frequency models.Frequency, from time.Time) (time.Time, error) {
	return nextOccurrence(frequency, from, from.Day())
}

// nextOccurrence advances from by one period. anchorDay is the rule's
// original day of month; it keeps a clamped month from drifting the series
// (Jan 31, Feb 28, Mar 31).
func nextOccurrence(frequency models.Frequency, from time.Time, anchorDay int) (time.Time, error) {
	switch frequency {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, 1), nil
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case models.FrequencyBiweekly:
		return from.AddDate(0, 0, 14), nil
	case models.FrequencyMonthly:
		return addMonths(from, 1, anchorDay), nil
	case models.FrequencyQuarterly:
		return addMonths(from, 3, anchorDay), nil
	case models.FrequencyYearly:
		return addMonths(from, 12, anchorDay), nil
	}
	return time.Time{}, fmt.Errorf("unknown frequency %q", frequency)
}

func addMonths(from time.Time, months, day int) time.Time {
	first := time.Date(from.Year(), from.Month()+time.Month(months), 1, 0, 0, 0, 0, from.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// NextDate is ComputeNextOccurrence over YYYY-MM-DD strings
func NextDate(frequency models.Frequency, from string) (string, error) {
	t, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", from, err)
	}
	next, err := ComputeNextOccurrence(frequency, t)
	if err != nil {
		return "", err
	}
	return next.Format(models.DateLayout), nil
}
