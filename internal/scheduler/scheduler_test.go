package scheduler

import (
	"testing"
	"time"
)

func TestNextMonthStart(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{
			now:  time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC),
			want: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			now:  time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
			want: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			// At the boundary itself, the next run is a month out.
			now:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		if got := nextMonthStart(tt.now); !got.Equal(tt.want) {
			t.Errorf("nextMonthStart(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}
