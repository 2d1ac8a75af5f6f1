package tools

import (
	"testing"
	"time"
)

func TestTimeData(t *testing.T) {
	now := time.Date(2026, time.March, 14, 9, 5, 7, 0, time.UTC)
	data := timeData(now)

	requiredKeys := []string{
		"current", "clock", "date", "year", "month", "day", "hour", "minute", "second",
		"weekday", "timezone", "timestamp",
	}
	for _, key := range requiredKeys {
		if _, exists := data[key]; !exists {
			t.Errorf("timeData result missing key: %s", key)
		}
	}

	tests := []struct {
		key  string
		want interface{}
	}{
		{"current", "2026-03-14 09:05:07"},
		{"clock", "09:05"},
		{"date", "Saturday, March 14, 2026"},
		{"year", 2026},
		{"month", 3},
		{"weekday", "Saturday"},
		{"timezone", "UTC"},
		{"timestamp", now.Unix()},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if data[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, data[tt.key], tt.want)
			}
		})
	}
}
