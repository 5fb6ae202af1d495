package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

func TestWordCloudText_Exclusions(t *testing.T) {
	text := newTestEngine().WordCloudText(transcript.Overall, transcript.Preprocess(chat))

	want := "Hello there " + smile + "\n" +
		" check http://a.example and http://b.example\n" +
		" Note: see below " + smile + smile + "\n" +
		" old " + thumbs + "\n"
	assert.Equal(t, want, text)
	assert.NotContains(t, text, "<Media omitted>")
	assert.NotContains(t, text, "null")
	assert.NotContains(t, text, "created group")
}

func TestWordCloudText_BlankAndNullVariants(t *testing.T) {
	table := transcript.Preprocess("1/1/24, 09:00 - A:  \n1/1/24, 09:01 - A: NULL\n1/1/24, 09:02 - A: kept\n")
	assert.Equal(t, "kept\n", newTestEngine().WordCloudText("A", table))
}

func TestWordCloudText_MediaExcluded(t *testing.T) {
	e := newTestEngine()
	table := transcript.Preprocess("1/1/24, 09:00 - Bob: <Media omitted>\n")

	assert.Equal(t, 1, e.FetchStats(transcript.Overall, table).Media)
	assert.Empty(t, e.WordCloudText(transcript.Overall, table))
}

func TestTopTokens(t *testing.T) {
	got := TopTokens("Hello, hello world! WORLD world ...", 2)
	assert.Equal(t, []LabelCount{{Label: "world", Count: 3}, {Label: "hello", Count: 2}}, got)

	assert.Len(t, TopTokens("a b c", 0), 3)
	assert.Empty(t, TopTokens("", 5))
}

func TestEmojiFrequency(t *testing.T) {
	got := newTestEngine().EmojiFrequency(transcript.Overall, transcript.Preprocess(chat))
	assert.Equal(t, []LabelCount{{Label: smile, Count: 3}, {Label: thumbs, Count: 1}}, got)
}

func TestEmojiFrequency_TiesFirstSeen(t *testing.T) {
	table := transcript.Preprocess("1/1/24, 09:00 - A: " + thumbs + smile + "\n")
	got := newTestEngine().EmojiFrequency("A", table)
	assert.Equal(t, []string{thumbs, smile}, labels(got))
}

func TestMonthlyTimeline_CalendarOrder(t *testing.T) {
	got := newTestEngine().MonthlyTimeline(transcript.Overall, transcript.Preprocess(chat))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"March-2023", "January-2024", "February-2024"}, []string{got[0].Label, got[1].Label, got[2].Label})
	assert.Equal(t, MonthPoint{Year: 2024, Month: time.January, Label: "January-2024", Count: 4}, got[1])
	assert.Equal(t, 2, got[2].Count)
}

func TestMonthlyTimeline_SkipsUntimed(t *testing.T) {
	table := transcript.Preprocess("31/2/24, 09:00 - A: x\n1/12/24, 09:00 - A: y\n")
	got := newTestEngine().MonthlyTimeline("A", table)
	require.Len(t, got, 1)
	assert.Equal(t, "December-2024", got[0].Label)
}

func TestWeekdayHistogram(t *testing.T) {
	got := newTestEngine().WeekdayHistogram(transcript.Overall, transcript.Preprocess(chat))
	assert.Equal(t, []LabelCount{
		{Label: "Monday", Count: 3},
		{Label: "Thursday", Count: 2},
		{Label: "Tuesday", Count: 1},
		{Label: "Friday", Count: 1},
	}, got)
}

func TestMonthHistogram(t *testing.T) {
	got := newTestEngine().MonthHistogram(transcript.Overall, transcript.Preprocess(chat))
	assert.Equal(t, []LabelCount{
		{Label: "January", Count: 4},
		{Label: "February", Count: 2},
		{Label: "March", Count: 1},
	}, got)
}

func TestActivityHeatmap(t *testing.T) {
	h := newTestEngine().ActivityHeatmap(transcript.Overall, transcript.Preprocess(chat))

	assert.Len(t, h.Weekdays, 7)
	assert.Equal(t, "Monday", h.Weekdays[0])
	assert.Equal(t, "Sunday", h.Weekdays[6])
	assert.Len(t, h.Buckets, 24)
	assert.Equal(t, "00-01", h.Buckets[0])
	assert.Equal(t, "23-00", h.Buckets[23])

	assert.Equal(t, 7, h.Total())
	assert.Equal(t, 2, h.At(time.Monday, 9))
	assert.Equal(t, 1, h.At(time.Monday, 23))
	assert.Equal(t, 1, h.At(time.Friday, 8))
	assert.Equal(t, 0, h.At(time.Sunday, 0))

	for _, row := range h.Counts {
		for _, n := range row {
			assert.GreaterOrEqual(t, n, 0)
		}
	}

	day, bucket, n, ok := h.Peak()
	assert.True(t, ok)
	assert.Equal(t, "Monday", day)
	assert.Equal(t, "09-10", bucket)
	assert.Equal(t, 2, n)
}

func TestActivityHeatmap_FilteredSum(t *testing.T) {
	e := newTestEngine()
	table := transcript.Preprocess(chat)
	for _, s := range table.Senders() {
		assert.Equal(t, e.FetchStats(s, table).Messages, e.ActivityHeatmap(s, table).Total(), s)
	}
}
