// Package folio converts calendar days to the spreadsheet serial numbers the
// yard uses to batch a day's turn queue.
package folio

import "time"

const secondsPerDay = 24 * 60 * 60

var epoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// FromDate returns the folio of t's calendar day (in t's location).
// 2024-01-01 is folio 45292.
func FromDate(t time.Time) int {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int((day.Unix()-epoch.Unix())/secondsPerDay) + 2
}

// ToDate is the inverse of FromDate, at midnight UTC.
func ToDate(folio int) time.Time {
	return epoch.AddDate(0, 0, folio-2)
}

// Today returns the folio of the current day in loc.
func Today(loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return FromDate(time.Now().In(loc))
}
