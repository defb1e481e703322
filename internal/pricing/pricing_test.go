package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/villa-booking/internal/availability"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := availability.ParseDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestTotal(t *testing.T) {
	got, err := Total(day(t, "2024-01-10"), day(t, "2024-01-13"), 1000)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if got != 3000 {
		t.Fatalf("Total = %d, want 3000", got)
	}
}

func TestTotalTwoNights(t *testing.T) {
	got, err := Total(day(t, "2024-02-02"), day(t, "2024-02-04"), 5000)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if got != 10000 {
		t.Fatalf("Total = %d, want 10000", got)
	}
}

func TestTotalInvalidRange(t *testing.T) {
	cases := []struct {
		name    string
		in, out string
	}{
		{"same day", "2024-01-10", "2024-01-10"},
		{"checkout before checkin", "2024-01-10", "2024-01-05"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Total(day(t, tc.in), day(t, tc.out), 1000)
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("err = %v, want ErrInvalidRange", err)
			}
			if got != 0 {
				t.Fatalf("Total = %d on error, want 0", got)
			}
		})
	}
}
