package util

import (
    "strconv"
    "time"
)

// DayLayout is the ISO calendar-day layout used on every wire format.
const DayLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, a plain YYYY-MM-DD day and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(DayLayout, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseDay parses s with ParseTime and truncates the result to its UTC day.
func ParseDay(s string) (time.Time, bool) {
    t, ok := ParseTime(s)
    if !ok {
        return time.Time{}, false
    }
    return Day(t), true
}

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
    u := t.UTC()
    return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats t as YYYY-MM-DD in UTC.
func DayKey(t time.Time) string {
    return t.UTC().Format(DayLayout)
}

// FromUnixMillis converts a millisecond epoch into its UTC day.
func FromUnixMillis(ms int64) time.Time {
    return Day(time.UnixMilli(ms))
}

// WeekStart returns the Monday that opens the ISO week containing t.
func WeekStart(t time.Time) time.Time {
    d := Day(t)
    offset := (int(d.Weekday()) + 6) % 7
    return d.AddDate(0, 0, -offset)
}

// MonthKey formats t as YYYY-MM in UTC.
func MonthKey(t time.Time) string {
    return t.UTC().Format("2006-01")
}
