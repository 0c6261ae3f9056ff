// Package timewindow converts clock labels such as "08:30 AM" into minutes
// since midnight so departures can be compared and sorted.
package timewindow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformed = errors.New("malformed time label")

type ParseError struct {
	Label  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse time %q: %s", e.Label, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrMalformed }

// Parse accepts "H:MM" or "HH:MM" optionally followed by a space and AM/PM.
// Without a meridiem the hour is read on a 24h clock.
func Parse(label string) (int, error) {
	fields := strings.Fields(label)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, &ParseError{Label: label, Reason: "expected \"HH:MM [AM|PM]\""}
	}

	hh, mm, ok := strings.Cut(fields[0], ":")
	if !ok {
		return 0, &ParseError{Label: label, Reason: "missing ':' separator"}
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, &ParseError{Label: label, Reason: "hour is not numeric"}
	}
	if len(mm) != 2 {
		return 0, &ParseError{Label: label, Reason: "minute must have two digits"}
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, &ParseError{Label: label, Reason: "minute is not numeric"}
	}
	if minute < 0 || minute > 59 {
		return 0, &ParseError{Label: label, Reason: "minute out of range"}
	}

	if len(fields) == 1 {
		if hour < 0 || hour > 23 {
			return 0, &ParseError{Label: label, Reason: "hour out of range"}
		}
		return hour*60 + minute, nil
	}

	if hour < 1 || hour > 12 {
		return 0, &ParseError{Label: label, Reason: "hour out of range"}
	}
	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 12 {
			hour += 12
		}
	default:
		return 0, &ParseError{Label: label, Reason: "meridiem must be AM or PM"}
	}
	return hour*60 + minute, nil
}

// Minutes is the sort key for a label. Malformed labels sort as midnight.
func Minutes(label string) int {
	m, err := Parse(label)
	if err != nil {
		return 0
	}
	return m
}
