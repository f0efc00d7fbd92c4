package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wall-clock helpers for the trading day. Input timestamps carry no zone
// beyond what the source data supplied, so times of day are compared on
// the clock face only.

// MinuteOfDay is a time of day in whole minutes since midnight.
type MinuteOfDay int

// ParseMinuteOfDay parses "HH:MM" (24h) into a MinuteOfDay.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("time of day %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return MinuteOfDay(h*60 + m), nil
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Session is an inclusive intraday trading window. The close minute also
// names the preferred exit bar: a bar at exactly Close is the exit when
// present.
type Session struct {
	Open  MinuteOfDay
	Close MinuteOfDay
}

// NewSession builds a Session from "HH:MM" open and close times.
func NewSession(open, close string) (Session, error) {
	o, err := ParseMinuteOfDay(open)
	if err != nil {
		return Session{}, err
	}
	c, err := ParseMinuteOfDay(close)
	if err != nil {
		return Session{}, err
	}
	if c < o {
		return Session{}, fmt.Errorf("session close %s before open %s", c, o)
	}
	return Session{Open: o, Close: c}, nil
}

// Contains reports whether ts falls inside the window, both ends
// inclusive.
func (s Session) Contains(ts time.Time) bool {
	m := minuteOf(ts)
	return m >= s.Open && m <= s.Close
}

func minuteOf(ts time.Time) MinuteOfDay {
	return MinuteOfDay(ts.Hour()*60 + ts.Minute())
}

// dateOf truncates ts to midnight of its calendar date, keeping the
// location so dates remain comparable as map keys.
func dateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
