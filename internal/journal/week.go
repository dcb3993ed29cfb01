package journal

import "time"

// WeekStartsOn is the first day of a journal week. Week groups are keyed by
// the most recent WeekStartsOn on or before an entry's date.
const WeekStartsOn = time.Sunday

// WeekStart returns the first day of the week containing day.
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) - int(WeekStartsOn) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekKey is the group key for the week containing day.
func WeekKey(day time.Time) string {
	return WeekStart(day).Format(DateFormat)
}
