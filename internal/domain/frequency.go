package domain

import "time"

// Frequency is the harvest cadence of a source.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

const (
	day           = 24 * time.Hour
	daysPerWeek   = 7
	daysPerMonth  = 30
	lookbackDaily = 1
)

// Interval returns the minimum time between two runs of a source.
// Unknown frequencies are treated as daily.
func (f Frequency) Interval() time.Duration {
	return time.Duration(f.LookbackDays()) * day
}

// LookbackDays returns the default date window, in days, used when a crawl
// is started without an explicit date_from.
func (f Frequency) LookbackDays() int {
	switch f {
	case FrequencyWeekly:
		return daysPerWeek
	case FrequencyMonthly:
		return daysPerMonth
	case FrequencyDaily:
		return lookbackDaily
	default:
		return lookbackDaily
	}
}

// IsDue reports whether a source last synced at lastSync is due at now.
// A zero lastSync means the source never ran.
func (f Frequency) IsDue(lastSync, now time.Time) bool {
	if lastSync.IsZero() {
		return true
	}
	return now.Sub(lastSync) >= f.Interval()
}
