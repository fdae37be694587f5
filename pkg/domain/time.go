package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay is a minute-resolution clock time expressed as minutes since
// midnight. It marshals as "HH:MM", the wire format used by timeslot data.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (and, leniently, "HH:MM:SS") clock strings.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("parse time of day %q: want HH:MM", s)
}

// MustTimeOfDay parses a clock string and panics on failure. Intended for
// fixed literals in seed data and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON encodes the time as an "HH:MM" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an "HH:MM" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Valid reports whether the interval is well-formed (Start < End).
func (i Interval) Valid() bool {
	return i.Start < i.End
}

// Overlaps reports whether two half-open intervals intersect:
// [a,b) and [c,d) overlap iff a < d && c < b.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether the point in time falls inside the interval.
func (i Interval) Contains(t TimeOfDay) bool {
	return i.Start <= t && t < i.End
}

// DurationMinutes returns the interval length in minutes.
func (i Interval) DurationMinutes() int {
	return int(i.End - i.Start)
}

func (i Interval) String() string {
	return fmt.Sprintf("%s-%s", i.Start, i.End)
}
