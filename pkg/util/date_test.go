package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseDay(t *testing.T) {
    got, ok := ParseDay("2024-02-29")
    if !ok {
        t.Fatalf("expected ok")
    }
    if DayKey(got) != "2024-02-29" || got.Location() != time.UTC {
        t.Fatalf("unexpected day %v", got)
    }
    if _, ok := ParseDay("29/02/2024"); ok {
        t.Fatalf("expected failure for unsupported layout")
    }
}

func TestDayTruncatesToUTC(t *testing.T) {
    loc := time.FixedZone("UTC+9", 9*3600)
    in := time.Date(2024, 3, 1, 5, 0, 0, 0, loc)
    if got := DayKey(Day(in)); got != "2024-02-29" {
        t.Fatalf("unexpected day %s", got)
    }
}

func TestWeekStart(t *testing.T) {
    cases := map[string]string{
        "2024-01-01": "2024-01-01", // Monday
        "2024-01-03": "2024-01-01",
        "2024-01-07": "2024-01-01", // Sunday closes the week
        "2024-01-08": "2024-01-08",
    }
    for in, want := range cases {
        d, _ := ParseDay(in)
        if got := DayKey(WeekStart(d)); got != want {
            t.Fatalf("WeekStart(%s) = %s, want %s", in, got, want)
        }
    }
}

func TestSplitCSV(t *testing.T) {
    got := SplitCSV(" kafka-1:9092, ,kafka-2:9092,")
    if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
        t.Fatalf("unexpected split %q", got)
    }
}

func TestFromUnixMillis(t *testing.T) {
    ms := time.Date(2024, 5, 6, 23, 59, 0, 0, time.UTC).UnixMilli()
    if got := DayKey(FromUnixMillis(ms)); got != "2024-05-06" {
        t.Fatalf("unexpected day %s", got)
    }
}
