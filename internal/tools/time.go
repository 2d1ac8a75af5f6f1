package tools

import (
	"time"
)

// timeData 当前时间的各个字段，回复和日志都用它
func timeData(now time.Time) map[string]interface{} {
	zone, _ := now.Zone()
	return map[string]interface{}{
		"current":   now.Format("2006-01-02 15:04:05"),
		"clock":     now.Format("15:04"),
		"date":      now.Format("Monday, January 2, 2006"),
		"year":      now.Year(),
		"month":     int(now.Month()),
		"day":       now.Day(),
		"hour":      now.Hour(),
		"minute":    now.Minute(),
		"second":    now.Second(),
		"weekday":   now.Weekday().String(),
		"timezone":  zone,
		"timestamp": now.Unix(),
	}
}
