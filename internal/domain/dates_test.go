package domain_test

import (
	"testing"
	"time"

	"github.com/iho/subscriptions/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateEndDate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		days  int
		want  time.Time
	}{
		{"thirty days", date(2024, time.January, 1), 30, date(2024, time.January, 31)},
		{"across leap february", date(2024, time.February, 1), 30, date(2024, time.March, 2)},
		{"zero days", date(2024, time.June, 15), 0, date(2024, time.June, 15)},
		{"full year", date(2023, time.March, 1), 365, date(2024, time.February, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.CalculateEndDate(tt.start, tt.days)
			if !got.Equal(tt.want) {
				t.Errorf("CalculateEndDate(%v, %d) = %v, want %v", tt.start, tt.days, got, tt.want)
			}
		})
	}
}

func TestExtendEndDate(t *testing.T) {
	tests := []struct {
		name    string
		current time.Time
		days    int
		want    time.Time
	}{
		{"extend past month boundary", date(2024, time.January, 31), 30, date(2024, time.March, 1)},
		{"extend within month", date(2024, time.April, 1), 7, date(2024, time.April, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ExtendEndDate(tt.current, tt.days)
			if !got.Equal(tt.want) {
				t.Errorf("ExtendEndDate(%v, %d) = %v, want %v", tt.current, tt.days, got, tt.want)
			}
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := date(2024, time.January, 31)
	parsed, err := domain.ParseDate(domain.FormatDate(d))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.Equal(d) {
		t.Errorf("round trip mismatch: got %v, want %v", parsed, d)
	}
}
