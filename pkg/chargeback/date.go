// Package chargeback holds the small domain helpers the report generators
// share: month arithmetic, billing datestrings, buildpack-name parsing,
// licensed-service checks, line extraction, and table building.
package chargeback

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidMonth means a month value fell outside 1-12.
var ErrInvalidMonth = errors.New("invalid month")

// DaysInMonth returns the number of days in a numeric month, e.g. 31 for
// 3 (March). February is always 28; billing months ignore leap years.
func DaysInMonth(month int) (int, error) {
	switch month {
	case 4, 6, 9, 11:
		return 30, nil
	case 2:
		return 28, nil
	case 1, 3, 5, 7, 8, 10, 12:
		return 31, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
}

// ParseMonth parses the month component of a datestring and validates it.
func ParseMonth(s string) (int, error) {
	month, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return month, nil
}

// BillingDatestring returns the default yyyymm datestring for a billing
// file: monthOffset months before the current month. An offset below 1
// defaults to 1 (the previous month).
func BillingDatestring(monthOffset int) string {
	if monthOffset < 1 {
		monthOffset = 1
	}
	today := time.Now()
	year, month := today.Year(), int(today.Month())
	month -= monthOffset
	for month < 1 {
		month += 12
		year--
	}
	return fmt.Sprintf("%d%02d", year, month)
}
