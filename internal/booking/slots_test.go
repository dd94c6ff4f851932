package booking

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestSlotsFutureDateIsFullDay(t *testing.T) {
	now := date(2025, time.January, 9, 11, 45)
	slots := Slots("2025-01-10", now)

	if len(slots) != 17 {
		t.Fatalf("got %d slots, want 17: %v", len(slots), slots)
	}
	if slots[0] != "09:00" || slots[16] != "17:00" {
		t.Fatalf("unexpected bounds: first=%s last=%s", slots[0], slots[16])
	}
	for i := 1; i < len(slots); i++ {
		prev, _ := time.Parse(TimeLayout, slots[i-1])
		cur, _ := time.Parse(TimeLayout, slots[i])
		if cur.Sub(prev) != 30*time.Minute {
			t.Fatalf("slots not 30m apart at %d: %s -> %s", i, slots[i-1], slots[i])
		}
	}
}

func TestSlotsEmptyDateTreatedAsFutureDate(t *testing.T) {
	slots := Slots("", date(2025, time.January, 9, 16, 50))
	if len(slots) != 17 || slots[0] != "09:00" {
		t.Fatalf("unexpected slots for empty date: %v", slots)
	}
}

func TestSlotsTodayRoundsUpStrictly(t *testing.T) {
	cases := []struct {
		hh, mm int
		first  string
		count  int
	}{
		{10, 0, "10:30", 14},  // exact boundary still advances
		{10, 1, "10:30", 14},
		{10, 29, "10:30", 14},
		{10, 30, "11:00", 13},
		{16, 31, "17:00", 1},
		{16, 59, "17:00", 1},
		{8, 15, "08:30", 18}, // before opening, the rounded time wins
	}
	for _, tc := range cases {
		now := date(2025, time.January, 10, tc.hh, tc.mm)
		slots := Slots("2025-01-10", now)
		if len(slots) != tc.count {
			t.Errorf("now=%02d:%02d: got %d slots, want %d (%v)", tc.hh, tc.mm, len(slots), tc.count, slots)
			continue
		}
		if slots[0] != tc.first {
			t.Errorf("now=%02d:%02d: first slot %s, want %s", tc.hh, tc.mm, slots[0], tc.first)
		}
		if last := slots[len(slots)-1]; last != "17:00" {
			t.Errorf("now=%02d:%02d: last slot %s, want 17:00", tc.hh, tc.mm, last)
		}
	}
}

func TestSlotsTodayPastClosingIsEmpty(t *testing.T) {
	for _, tc := range []struct{ hh, mm int }{{17, 0}, {17, 1}, {18, 30}, {23, 59}} {
		now := date(2025, time.January, 10, tc.hh, tc.mm)
		if slots := Slots("2025-01-10", now); len(slots) != 0 {
			t.Errorf("now=%02d:%02d: expected no slots, got %v", tc.hh, tc.mm, slots)
		}
	}
}

func TestMinSelectableDate(t *testing.T) {
	now := date(2025, time.January, 10, 13, 7)
	if got := MinSelectableDate(now); got != "2025-01-10" {
		t.Fatalf("MinSelectableDate = %q", got)
	}
}

func TestEarliestSlot(t *testing.T) {
	now := date(2025, time.January, 10, 14, 10)
	if got := EarliestSlot("2025-01-10", now); got != "14:30" {
		t.Fatalf("today earliest = %q, want 14:30", got)
	}
	if got := EarliestSlot("2025-02-01", now); got != "09:00" {
		t.Fatalf("future earliest = %q, want 09:00", got)
	}
}

func TestCombineAndSplitDateTime(t *testing.T) {
	if got := CombineDateTime("2025-01-10", "14:00"); got != "2025-01-10T14:00" {
		t.Fatalf("CombineDateTime = %q", got)
	}

	d, tod := SplitDateTime("2025-01-10T14:00")
	if d != "2025-01-10" || tod != "14:00" {
		t.Fatalf("SplitDateTime naive = %q %q", d, tod)
	}

	d, tod = SplitDateTime("2025-01-10T14:00:00Z")
	if d != "2025-01-10" || tod != "14:00" {
		t.Fatalf("SplitDateTime rfc3339 = %q %q", d, tod)
	}

	d, tod = SplitDateTime("bogus")
	if d != "" || tod != "" {
		t.Fatalf("SplitDateTime bogus = %q %q", d, tod)
	}
}
