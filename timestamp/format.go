package timestamp

import (
	"fmt"
	"time"
)

// Formatter renders timestamps for display. It is passed to whoever renders
// rather than configured globally. The zero value formats like Japanese.
type Formatter struct {
	weekdays   [7]string
	timeLayout string
	dateFormat func(f Fields, weekday string) string
}

var japaneseWeekdays = [7]string{
	time.Sunday:    "日曜日",
	time.Monday:    "月曜日",
	time.Tuesday:   "火曜日",
	time.Wednesday: "水曜日",
	time.Thursday:  "木曜日",
	time.Friday:    "金曜日",
	time.Saturday:  "土曜日",
}

// Japanese renders "15:04:05" and "2024年2月29日(木曜日)".
func Japanese() Formatter {
	return Formatter{
		weekdays:   japaneseWeekdays,
		timeLayout: "15:04:05",
		dateFormat: func(f Fields, weekday string) string {
			return fmt.Sprintf("%d年%d月%d日(%s)", f.Year, f.Month, f.Day, weekday)
		},
	}
}

// Time formats the clock face, HH:mm:ss.
func (f Formatter) Time(ts Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.t.Format(f.orJapanese().timeLayout)
}

// Date formats the calendar line with the localized weekday.
func (f Formatter) Date(ts Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	f = f.orJapanese()
	return f.dateFormat(ts.Fields(), f.Weekday(ts))
}

// Weekday returns the localized weekday name.
func (f Formatter) Weekday(ts Timestamp) string {
	return f.orJapanese().weekdays[ts.Weekday()]
}

func (f Formatter) orJapanese() Formatter {
	if f.dateFormat == nil {
		return Japanese()
	}
	return f
}
