package keygen

import "time"

// DeriveSelector returns the default selector for now: the year and month
// as YYYYMM, anchored to the first of the month. With nextMonth the
// selector for the following rotation period is produced instead, rolling
// the year over at December.
func DeriveSelector(now time.Time, nextMonth bool) string {
	date := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if nextMonth {
		date = date.AddDate(0, 1, 0)
	}
	return date.Format("200601")
}
