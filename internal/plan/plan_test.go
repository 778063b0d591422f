package plan

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayOffset(t *testing.T) {
	tattoo := date(2024, time.January, 1)

	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{"same day", date(2024, time.January, 1), 0},
		{"next day", date(2024, time.January, 2), 1},
		{"one week", date(2024, time.January, 8), 7},
		{"thirty days", date(2024, time.January, 31), 30},
		{"window closed", date(2024, time.February, 1), 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayOffset(tattoo, tt.today); got != tt.want {
				t.Errorf("DayOffset = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDayOffsetIgnoresTimeOfDay(t *testing.T) {
	tattoo := time.Date(2024, time.January, 1, 23, 45, 0, 0, time.UTC)

	morning := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2024, time.January, 8, 23, 59, 0, 0, time.UTC)

	if got := DayOffset(tattoo, morning); got != 7 {
		t.Errorf("morning offset = %d, want 7", got)
	}
	if got := DayOffset(tattoo, evening); got != 7 {
		t.Errorf("evening offset = %d, want 7", got)
	}
}

func TestDayOffsetAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Dublin")
	if err != nil {
		t.Skipf("load location: %v", err)
	}

	// Irish clocks go forward on 2024-03-31; the day count must not drift.
	tattoo := time.Date(2024, time.March, 25, 9, 0, 0, 0, loc)
	today := time.Date(2024, time.April, 1, 9, 0, 0, 0, loc)

	if got := DayOffset(tattoo, today); got != 7 {
		t.Errorf("offset across DST = %d, want 7", got)
	}
}

func TestInWindow(t *testing.T) {
	tests := []struct {
		day  int
		want bool
	}{
		{0, false},
		{1, true},
		{15, true},
		{30, true},
		{31, false},
		{-1, false},
	}

	for _, tt := range tests {
		if got := InWindow(tt.day); got != tt.want {
			t.Errorf("InWindow(%d) = %v, want %v", tt.day, got, tt.want)
		}
	}
}

func TestEmailDue(t *testing.T) {
	wantDays := []int{1, 3, 5, 7, 30}
	seen := map[int]bool{}
	for day := 0; day <= 31; day++ {
		if EmailDue(day) {
			seen[day] = true
		}
	}
	if len(seen) != len(wantDays) {
		t.Fatalf("email due on %d days, want %d", len(seen), len(wantDays))
	}
	for _, d := range wantDays {
		if !seen[d] {
			t.Errorf("expected email due on day %d", d)
		}
	}
}

func TestPushMessageDays(t *testing.T) {
	wantDays := []int{1, 2, 3, 4, 5, 6, 7, 10, 14, 21, 30}
	for _, d := range wantDays {
		msg, ok := PushMessageFor(d)
		if !ok {
			t.Errorf("no push message for day %d", d)
			continue
		}
		if msg.Title == "" || msg.Body == "" {
			t.Errorf("day %d push message has empty content", d)
		}
	}

	if _, ok := PushMessageFor(8); ok {
		t.Error("unexpected push message for day 8")
	}
	if _, ok := PushMessageFor(0); ok {
		t.Error("unexpected push message for day 0")
	}
}

func TestPhotoReminderDays(t *testing.T) {
	for _, d := range []int{3, 7, 14, 30} {
		if _, ok := PhotoReminderFor(d); !ok {
			t.Errorf("no photo reminder for day %d", d)
		}
	}
	for _, d := range []int{1, 2, 10, 21} {
		if _, ok := PhotoReminderFor(d); ok {
			t.Errorf("unexpected photo reminder for day %d", d)
		}
	}
}

func TestDay7HasAllThreeChannels(t *testing.T) {
	if !EmailDue(7) {
		t.Error("expected email due on day 7")
	}
	if _, ok := PushMessageFor(7); !ok {
		t.Error("expected push due on day 7")
	}
	if _, ok := PhotoReminderFor(7); !ok {
		t.Error("expected photo reminder due on day 7")
	}
}
