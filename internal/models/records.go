package models

// Raw record shapes as persisted by the tracking features. Numeric fields are
// typed any because older app versions stored some of them as strings; callers
// must check the dynamic type before using a value.

// FastingLog is one stored fasting session. Either the start/end pair or
// Duration (minutes) is populated. StartTime and EndTime hold either "HH:MM"
// clock times or full timestamps.
type FastingLog struct {
	StartDate string `json:"startDate"`
	StartTime string `json:"startTime"`
	EndDate   string `json:"endDate"`
	EndTime   string `json:"endTime"`
	Duration  any    `json:"duration"`
}

// MeditationSession is one completed meditation session. Date holds a date key
// or timestamp; CompletedAt holds a timestamp string or epoch milliseconds.
type MeditationSession struct {
	Date        string `json:"date"`
	CompletedAt any    `json:"completedAt"`
	Duration    any    `json:"duration"`
}

// MeasurementEntry is one day of body measurements. Date is only set in the
// array form; the map form carries the date as the key.
type MeasurementEntry struct {
	Date   string `json:"date,omitempty"`
	Weight any    `json:"weight"`
	Chest  any    `json:"chest"`
	Waist  any    `json:"waist"`
	Biceps any    `json:"biceps"`
	Thighs any    `json:"thighs"`
}

// Number returns v as a float64 when it is a JSON number.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
