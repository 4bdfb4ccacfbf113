package models

import (
	"fmt"
	"strings"
	"time"
)

// Storage layouts. The trading agent writes dotted dates, the relational
// schema keeps ISO-style dashes.
const (
	DashLayout = "2006-01-02 15:04:05"
	DotLayout  = "2006.01.02 15:04:05"
)

// ParseTradeTime parses the two timestamp formats accepted from clients and the
// agent: "YYYY-MM-DD HH:MM:SS" and "YYYY.MM.DD HH:MM:SS". The dotted form is
// normalized by replacing its first two dots with dashes.
func ParseTradeTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	normalized := strings.Replace(s, ".", "-", 2)
	t, err := time.ParseInLocation(DashLayout, normalized, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not in YYYY-MM-DD HH:MM:SS or YYYY.MM.DD HH:MM:SS format", s)
	}
	return t, nil
}

// TradeTime is a timestamp that marshals to JSON in the agent's dotted layout
// and accepts either accepted layout when unmarshalling.
type TradeTime struct {
	time.Time
}

// NewTradeTime truncates t to whole seconds, the precision both backends keep.
func NewTradeTime(t time.Time) TradeTime {
	return TradeTime{Time: t.Truncate(time.Second)}
}

// TimePtr is a convenience for nullable trade timestamps.
func TimePtr(t time.Time) *TradeTime {
	tt := NewTradeTime(t)
	return &tt
}

func (t TradeTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(DotLayout) + `"`), nil
}

func (t *TradeTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTradeTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// DisplayTime formats t compactly for the dashboard: seconds are dropped when
// zero and midnight timestamps collapse to the bare date. sep is the date
// separator of the serving backend ("-" or ".").
func DisplayTime(t time.Time, sep string) string {
	datePart := t.Format("2006" + sep + "01" + sep + "02")
	switch {
	case t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0:
		return datePart
	case t.Second() == 0:
		return datePart + " " + t.Format("15:04")
	default:
		return datePart + " " + t.Format("15:04:05")
	}
}
