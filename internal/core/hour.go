package core

import (
	"strings"
	"time"
)

// TimeLayout is the layout of the worksheet's Time column.
const TimeLayout = "15:04:05"

// ParseHour extracts the hour of day from an "HH:MM:SS" value.
func ParseHour(value string) (int, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	return t.Hour(), nil
}
