package util

import (
	"time"
)

// DateTimeLayout is the storage and wire format for alarm times.
// Local time, minute precision, no timezone offset.
const DateTimeLayout = "2006-01-02 15:04"

func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, s, time.Local)
}

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}
