package engine_test

import (
	"testing"
	"time"

	"github.com/warp/pto-engine/engine"
)

func TestDateRange_Overlaps(t *testing.T) {
	a := engine.DateRange{Start: engine.NewDate(2026, 6, 1), End: engine.NewDate(2026, 6, 10)}

	cases := []struct {
		name  string
		other engine.DateRange
		want  bool
	}{
		{"identical", a, true},
		{"touching end", engine.DateRange{Start: engine.NewDate(2026, 6, 10), End: engine.NewDate(2026, 6, 15)}, true},
		{"touching start", engine.DateRange{Start: engine.NewDate(2026, 5, 25), End: engine.NewDate(2026, 6, 1)}, true},
		{"contained", engine.DateRange{Start: engine.NewDate(2026, 6, 3), End: engine.NewDate(2026, 6, 5)}, true},
		{"before", engine.DateRange{Start: engine.NewDate(2026, 5, 1), End: engine.NewDate(2026, 5, 31)}, false},
		{"after", engine.DateRange{Start: engine.NewDate(2026, 6, 11), End: engine.NewDate(2026, 6, 20)}, false},
	}
	for _, tc := range cases {
		if got := a.Overlaps(tc.other); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestNewDateRange_RejectsInvertedRange(t *testing.T) {
	_, err := engine.NewDateRange(engine.NewDate(2026, 6, 10), engine.NewDate(2026, 6, 1))
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestDaysOnWeekdays(t *testing.T) {
	// 2026-03-09 is a Monday; the two Fridays in the fortnight are the
	// 13th and the 20th.
	r := engine.DateRange{Start: engine.NewDate(2026, 3, 9), End: engine.NewDate(2026, 3, 22)}

	fridays := r.DaysOnWeekdays([]time.Weekday{time.Friday})
	if len(fridays) != 2 {
		t.Fatalf("expected 2 Fridays, got %d", len(fridays))
	}
	if fridays[0].String() != "2026-03-13" || fridays[1].String() != "2026-03-20" {
		t.Errorf("unexpected Fridays: %v, %v", fridays[0], fridays[1])
	}
}

func TestDisplayString(t *testing.T) {
	d := engine.NewDate(2026, 3, 13)
	if got := d.DisplayString(); got != "Friday, Mar 13" {
		t.Errorf("expected %q, got %q", "Friday, Mar 13", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := engine.ParseDate("2026-12-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2026-12-25" {
		t.Errorf("round trip mismatch: %s", d)
	}

	if _, err := engine.ParseDate("25/12/2026"); err == nil {
		t.Error("expected error for wrong format")
	}
}
