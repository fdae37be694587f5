package domain

import (
	"encoding/json"
	"testing"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "08:00", want: 480},
		{in: "16:45", want: 1005},
		{in: "23:59", want: 1439},
		{in: "08:00:30", want: 480},
		{in: "8am", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if got := TimeOfDay(480).String(); got != "08:00" {
		t.Fatalf("expected 08:00, got %s", got)
	}
	if got := TimeOfDay(1439).String(); got != "23:59" {
		t.Fatalf("expected 23:59, got %s", got)
	}
}

func TestTimeOfDayJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(TimeOfDay(645))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"10:45"` {
		t.Fatalf("expected \"10:45\", got %s", data)
	}
	var back TimeOfDay
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != 645 {
		t.Fatalf("expected 645, got %d", back)
	}
	if err := json.Unmarshal([]byte(`"not a time"`), &back); err == nil {
		t.Fatal("expected unmarshal error for malformed clock string")
	}
}

func TestIntervalOverlaps(t *testing.T) {
	base := Interval{Start: MustTimeOfDay("08:00"), End: MustTimeOfDay("10:30")}
	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"identical", base, true},
		{"contained", Interval{MustTimeOfDay("09:00"), MustTimeOfDay("10:00")}, true},
		{"partial", Interval{MustTimeOfDay("10:00"), MustTimeOfDay("12:00")}, true},
		{"adjacent after", Interval{MustTimeOfDay("10:30"), MustTimeOfDay("12:00")}, false},
		{"adjacent before", Interval{MustTimeOfDay("06:00"), MustTimeOfDay("08:00")}, false},
		{"disjoint", Interval{MustTimeOfDay("14:00"), MustTimeOfDay("16:30")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.want {
				t.Fatalf("%v.Overlaps(%v) = %v, want %v", base, tc.other, got, tc.want)
			}
			if got := tc.other.Overlaps(base); got != tc.want {
				t.Fatalf("%v.Overlaps(%v) = %v, want %v", tc.other, base, got, tc.want)
			}
		})
	}
}

func TestIntervalValidContainsDuration(t *testing.T) {
	iv := Interval{Start: MustTimeOfDay("08:00"), End: MustTimeOfDay("10:30")}
	if !iv.Valid() {
		t.Fatal("expected valid interval")
	}
	if (Interval{Start: 600, End: 600}).Valid() {
		t.Fatal("zero-length interval must be invalid")
	}
	if (Interval{Start: 700, End: 600}).Valid() {
		t.Fatal("inverted interval must be invalid")
	}
	if !iv.Contains(iv.Start) {
		t.Fatal("interval must contain its start")
	}
	if iv.Contains(iv.End) {
		t.Fatal("half-open interval must not contain its end")
	}
	if got := iv.DurationMinutes(); got != 150 {
		t.Fatalf("expected 150 minutes, got %d", got)
	}
}
