package models

import "time"

// TimeframeDuration maps a bar timeframe to its length
func TimeframeDuration(timeframe string) time.Duration {
	switch timeframe {
	case "1Min", "1m":
		return time.Minute
	case "5Min", "5m":
		return 5 * time.Minute
	case "15Min", "15m":
		return 15 * time.Minute
	case "30Min", "30m":
		return 30 * time.Minute
	case "1Hour", "1hr", "1h":
		return time.Hour
	case "6hr", "6Hour":
		return 6 * time.Hour
	case "1Week":
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// LookbackStart estimates the start time needed to receive `bars` bars
// ending at end. Daily bars get a weekend/holiday buffer.
func LookbackStart(end time.Time, timeframe string, bars int) time.Time {
	d := TimeframeDuration(timeframe)
	span := d * time.Duration(bars) * 11 / 10
	if d >= 24*time.Hour {
		// roughly 252 trading days per 365
		span = span * 3 / 2
	}
	return end.Add(-span)
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
