package dates

import (
	"strconv"
	"strings"
	"time"
)

func allMonths() []string {
	out := make([]string, 12)
	for i := range out {
		out[i] = twoDigit(i + 1)
	}
	return out
}

func twoDigit(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// MonthName returns the English month name for a one or two digit month
// number ("03" → "March"). It reports false for anything outside 1-12.
func MonthName(month string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || n < 1 || n > 12 {
		return "", false
	}
	return time.Month(n).String(), true
}

// DayNumber strips leading zeros from a day ("05" → "5") as used in
// day-of-year page titles. It reports false for anything outside 1-31.
func DayNumber(day string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || n < 1 || n > 31 {
		return "", false
	}
	return strconv.Itoa(n), true
}
