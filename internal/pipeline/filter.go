package pipeline

import (
	"strings"
	"time"

	"efrsbmon/internal/notice"
)

// DateLayout is the day.month.year form notice documents use.
const DateLayout = "2.1.2006"

// FilterCurrentMonth keeps the lots published in the calendar month and year
// of now. Lots with a missing or unparsable date are dropped. Only the first
// whitespace-separated token of the date is parsed, so a trailing time is ignored.
func FilterCurrentMonth(lots []notice.Lot, now time.Time) []notice.Lot {
	var out []notice.Lot
	for _, lot := range lots {
		d, ok := parseDate(lot.PublishedAt, now.Location())
		if !ok {
			continue
		}
		if d.Year() == now.Year() && d.Month() == now.Month() {
			out = append(out, lot)
		}
	}
	return out
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, fields[0], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
