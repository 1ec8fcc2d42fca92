package models

import "testing"

func TestDailyLogAfterFindNormalizesDate(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{"timestamp from DATE scan", "2026-09-01T00:00:00Z", "2026-09-01"},
		{"fractional seconds", "2026-09-01T00:00:00.000Z", "2026-09-01"},
		{"already plain date", "2026-09-01", "2026-09-01"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &DailyLog{Date: tt.date}
			if err := log.AfterFind(nil); err != nil {
				t.Fatalf("AfterFind: %v", err)
			}
			if log.Date != tt.want {
				t.Errorf("Date = %q, want %q", log.Date, tt.want)
			}
		})
	}
}
