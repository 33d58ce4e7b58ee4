package handler

import (
	"errors"
	"fmt"
	"time"
)

var errRangeReversed = errors.New("from must not be after to")

func parseDate(name, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return t, nil
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	fromDate, err := parseDate("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	toDate, err := parseDate("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if fromDate.After(toDate) {
		return time.Time{}, time.Time{}, errRangeReversed
	}
	return fromDate, toDate, nil
}
