package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

// Records without a parsed timestamp are skipped by every query in this file.

type MonthPoint struct {
	Year  int        `json:"year" yaml:"year"`
	Month time.Month `json:"month" yaml:"month"`
	Label string     `json:"label" yaml:"label"`
	Count int        `json:"count" yaml:"count"`
}

type DayPoint struct {
	Date  time.Time `json:"date" yaml:"date"`
	Count int       `json:"count" yaml:"count"`
}

// MonthlyTimeline groups by numeric (year, month) in calendar order and
// labels each point "Month-Year".
func (e *Engine) MonthlyTimeline(sender string, t *transcript.Table) []MonthPoint {
	counts := make(map[int]int)
	t.Filter(sender).Each(func(r parse.Record) {
		if !r.HasTime() {
			return
		}
		counts[r.Time.Year*12+int(r.Time.Month)-1]++
	})

	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]MonthPoint, 0, len(keys))
	for _, k := range keys {
		year, month := k/12, time.Month(k%12+1)
		out = append(out, MonthPoint{
			Year:  year,
			Month: month,
			Label: fmt.Sprintf("%s-%d", month, year),
			Count: counts[k],
		})
	}
	return out
}

// DailyTimeline counts messages per calendar date, ascending.
func (e *Engine) DailyTimeline(sender string, t *transcript.Table) []DayPoint {
	counts := make(map[time.Time]int)
	t.Filter(sender).Each(func(r parse.Record) {
		if !r.HasTime() {
			return
		}
		counts[r.Time.Date]++
	})

	out := make([]DayPoint, 0, len(counts))
	for d, n := range counts {
		out = append(out, DayPoint{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// WeekdayHistogram counts messages per weekday name, ranked by count.
func (e *Engine) WeekdayHistogram(sender string, t *transcript.Table) []LabelCount {
	c := newCounter()
	t.Filter(sender).Each(func(r parse.Record) {
		if r.HasTime() {
			c.add(r.Time.WeekdayName)
		}
	})
	return c.ranked()
}

// MonthHistogram counts messages per month name across years, ranked by count.
func (e *Engine) MonthHistogram(sender string, t *transcript.Table) []LabelCount {
	c := newCounter()
	t.Filter(sender).Each(func(r parse.Record) {
		if r.HasTime() {
			c.add(r.Time.MonthName)
		}
	})
	return c.ranked()
}
