package parse

import (
	"fmt"
	"time"
)

const (
	// GroupNotification is the sender of payloads that carry no "name: " prefix
	// (member added, subject changed, ...).
	GroupNotification = "group_notification"

	// MediaOmitted is the placeholder body the exporter writes for attachments.
	MediaOmitted = "<Media omitted>"
)

type Meta struct {
	FilePath string
	Title    string
	FirstAt  time.Time
	LastAt   time.Time
	Mtime    time.Time
	Size     int64
}

// TimeFields are derived once from a parsed timestamp.
type TimeFields struct {
	Year        int
	Month       time.Month
	MonthName   string
	Day         int
	Hour        int
	Minute      int
	Date        time.Time // midnight UTC of the calendar date
	Weekday     time.Weekday
	WeekdayName string
	HourBucket  string
}

type Record struct {
	Index      int
	Header     string // timestamp text exactly as matched
	Timestamp  *time.Time
	Time       *TimeFields
	Sender     string
	Body       string
	LineNumber int // line of the timestamp header in the source, 1-based
}

func (r Record) HasTime() bool {
	return r.Time != nil
}

func (r Record) IsNotification() bool {
	return r.Sender == GroupNotification
}

type Result struct {
	Meta          Meta
	Records       []Record
	Unparsable    int // records whose timestamp could not be parsed
	Notifications int
	PreambleBytes int
}

// HourBucket labels the one-hour window starting at hour, wrapping 23 to "23-00".
func HourBucket(hour int) string {
	return fmt.Sprintf("%02d-%02d", hour, (hour+1)%24)
}

// Derive computes the time fields of ts.
func Derive(ts time.Time) TimeFields {
	return TimeFields{
		Year:        ts.Year(),
		Month:       ts.Month(),
		MonthName:   ts.Month().String(),
		Day:         ts.Day(),
		Hour:        ts.Hour(),
		Minute:      ts.Minute(),
		Date:        time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
		Weekday:     ts.Weekday(),
		WeekdayName: ts.Weekday().String(),
		HourBucket:  HourBucket(ts.Hour()),
	}
}

// NewRecord builds a record from already-split fields; a nil ts leaves the
// derived time fields absent.
func NewRecord(index int, ts *time.Time, sender, body string) Record {
	rec := Record{
		Index:  index,
		Sender: sender,
		Body:   body,
	}
	if ts != nil {
		t := *ts
		tf := Derive(t)
		rec.Timestamp = &t
		rec.Time = &tf
	}
	return rec
}
