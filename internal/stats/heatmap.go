package stats

import (
	"time"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

// Heatmap is a weekday by hour-bucket matrix. Rows run Monday to Sunday,
// columns "00-01" to "23-00"; empty cells are zero.
type Heatmap struct {
	Weekdays []string   `json:"weekdays" yaml:"weekdays"`
	Buckets  []string   `json:"buckets" yaml:"buckets"`
	Counts   [7][24]int `json:"counts" yaml:"counts"`
}

var weekdayRows = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func weekdayRow(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func newHeatmap() Heatmap {
	h := Heatmap{
		Weekdays: make([]string, 0, 7),
		Buckets:  make([]string, 0, 24),
	}
	for _, d := range weekdayRows {
		h.Weekdays = append(h.Weekdays, d.String())
	}
	for hour := 0; hour < 24; hour++ {
		h.Buckets = append(h.Buckets, parse.HourBucket(hour))
	}
	return h
}

// ActivityHeatmap counts timestamped messages per (weekday, hour bucket).
func (e *Engine) ActivityHeatmap(sender string, t *transcript.Table) Heatmap {
	h := newHeatmap()
	t.Filter(sender).Each(func(r parse.Record) {
		if !r.HasTime() {
			return
		}
		h.Counts[weekdayRow(r.Time.Weekday)][r.Time.Hour]++
	})
	return h
}

// At returns the count for weekday d and the bucket starting at hour.
func (h Heatmap) At(d time.Weekday, hour int) int {
	return h.Counts[weekdayRow(d)][hour]
}

func (h Heatmap) Total() int {
	total := 0
	for _, row := range h.Counts {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Peak returns the busiest cell; ok is false when the map is empty.
func (h Heatmap) Peak() (weekday, bucket string, count int, ok bool) {
	for i, row := range h.Counts {
		for j, n := range row {
			if n > count {
				weekday, bucket, count, ok = h.Weekdays[i], h.Buckets[j], n, true
			}
		}
	}
	return weekday, bucket, count, ok
}
