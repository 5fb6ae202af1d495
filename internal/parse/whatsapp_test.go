package parse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicFormat(t *testing.T) {
	records := Parse("1/1/24, 09:00 - Alice: Hello there\n1/1/24, 09:05 - Bob: Hi!\n")
	require.Len(t, records, 2)

	assert.Equal(t, "Alice", records[0].Sender)
	assert.Equal(t, "Hello there\n", records[0].Body)
	assert.Equal(t, "Bob", records[1].Sender)
	assert.Equal(t, "Hi!\n", records[1].Body)

	require.NotNil(t, records[0].Timestamp)
	assert.Equal(t, time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC), *records[0].Timestamp)
	assert.Equal(t, "1/1/24, 09:00 - ", records[0].Header)
	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, 1, records[1].Index)
}

func TestParse_DerivedFields(t *testing.T) {
	records := Parse("15/3/2024, 23:41 - Alice: late\n")
	require.Len(t, records, 1)
	require.True(t, records[0].HasTime())

	tf := records[0].Time
	assert.Equal(t, 2024, tf.Year)
	assert.Equal(t, time.March, tf.Month)
	assert.Equal(t, "March", tf.MonthName)
	assert.Equal(t, 15, tf.Day)
	assert.Equal(t, 23, tf.Hour)
	assert.Equal(t, 41, tf.Minute)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), tf.Date)
	assert.Equal(t, "Friday", tf.WeekdayName)
	assert.Equal(t, "23-00", tf.HourBucket)
}

func TestHourBucket(t *testing.T) {
	assert.Equal(t, "23-00", HourBucket(23))
	assert.Equal(t, "05-06", HourBucket(5))
	assert.Equal(t, "00-01", HourBucket(0))
	assert.Equal(t, "09-10", HourBucket(9))
}

func TestParse_DiscardsPreamble(t *testing.T) {
	raw := "Messages to this group are now secured with end-to-end encryption.\n" +
		"2/1/24, 10:00 - Alice: first\n"

	result := ParseText(raw)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "first\n", result.Records[0].Body)
	assert.Equal(t, strings.Index(raw, "2/1/24"), result.PreambleBytes)
	assert.Equal(t, 2, result.Records[0].LineNumber)
}

func TestParse_GroupNotification(t *testing.T) {
	raw := "1/1/24, 09:00 - Alice created group \"Trip\"\n" +
		"1/1/24, 09:01 - Alice added Bob\n" +
		"1/1/24, 09:02 - Bob: thanks\n"

	result := ParseText(raw)
	require.Len(t, result.Records, 3)
	assert.Equal(t, GroupNotification, result.Records[0].Sender)
	assert.Equal(t, "Alice created group \"Trip\"\n", result.Records[0].Body)
	assert.True(t, result.Records[1].IsNotification())
	assert.Equal(t, "Bob", result.Records[2].Sender)
	assert.Equal(t, 2, result.Notifications)
}

func TestParse_ColonInBody(t *testing.T) {
	records := Parse("1/1/24, 09:00 - Alice: Note: see below\n")
	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].Sender)
	assert.Equal(t, "Note: see below\n", records[0].Body)
}

func TestParse_URLIsNotASenderSplit(t *testing.T) {
	records := Parse("1/1/24, 09:00 - https://example.com was shared\n")
	require.Len(t, records, 1)
	assert.Equal(t, GroupNotification, records[0].Sender)
}

func TestParse_ColonOnLaterLineIsNotASender(t *testing.T) {
	records := Parse("1/1/24, 09:00 - Alice changed the group description\nRules: be nice\n")
	require.Len(t, records, 1)
	assert.Equal(t, GroupNotification, records[0].Sender)
	assert.Equal(t, "Alice changed the group description\nRules: be nice\n", records[0].Body)
}

func TestParse_MultiLineMessage(t *testing.T) {
	raw := "1/1/24, 09:00 - Alice: line one\nline two\n\nline four\n1/1/24, 09:01 - Bob: ok\n"

	result := ParseText(raw)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "line one\nline two\n\nline four\n", result.Records[0].Body)
	assert.Equal(t, 1, result.Records[0].LineNumber)
	assert.Equal(t, 5, result.Records[1].LineNumber)
}

func TestParse_YearForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"two digit recent", "1/2/24, 09:00 - A: x\n", 2024},
		{"two digit boundary below", "1/2/69, 09:00 - A: x\n", 2069},
		{"two digit boundary", "1/2/70, 09:00 - A: x\n", 1970},
		{"two digit old", "1/2/99, 09:00 - A: x\n", 1999},
		{"four digit", "1/2/2023, 09:00 - A: x\n", 2023},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Parse(tt.raw)
			require.Len(t, records, 1)
			require.True(t, records[0].HasTime())
			assert.Equal(t, tt.want, records[0].Time.Year)
			assert.Equal(t, time.February, records[0].Time.Month)
		})
	}
}

func TestParse_ThreeDigitYearDoesNotMatch(t *testing.T) {
	assert.Empty(t, Parse("1/1/024, 09:00 - A: x\n"))
}

func TestParse_UnparsableTimestampKeepsRecord(t *testing.T) {
	raw := "31/2/24, 09:00 - Alice: impossible date\n" +
		"1/13/24, 09:00 - Bob: bad month\n" +
		"1/1/24, 25:00 - Carol: bad hour\n" +
		"1/1/24, 10:00 - Dave: fine\n"

	result := ParseText(raw)
	require.Len(t, result.Records, 4)
	assert.Equal(t, 3, result.Unparsable)

	for _, rec := range result.Records[:3] {
		assert.Nil(t, rec.Timestamp)
		assert.Nil(t, rec.Time)
		assert.False(t, rec.HasTime())
	}
	assert.Equal(t, "Alice", result.Records[0].Sender)
	assert.True(t, result.Records[3].HasTime())
	assert.Equal(t, result.Meta.FirstAt, result.Meta.LastAt)
}

func TestParse_EmptyAndUnmatchedInput(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("no timestamps here\njust text\n"))

	result := ParseText("2024-01-01 09:00 : Alice : other vendor format\n")
	assert.Empty(t, result.Records)
	assert.Equal(t, len("2024-01-01 09:00 : Alice : other vendor format\n"), result.PreambleBytes)
}

func TestParse_UnicodeSpacesInHeader(t *testing.T) {
	records := Parse("1/1/24,\u202f09:00\u00a0- Alice: hi\n")
	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].Sender)
	assert.True(t, records[0].HasTime())
}

func TestParse_RecordCountMatchesHeaderCount(t *testing.T) {
	inputs := []string{
		"",
		"1/1/24, 09:00 - A: x",
		"preamble\n1/1/24, 09:00 - A: x\n2/1/24, 10:00 - B: y\n3/1/24, 11:00 - joined\n",
		"1/1/24, 09:00 - A: see 2/1/24, 10:00 - inline header\n",
		"12/12/2012, 12:12 - A: 1/1/1, 1:1 - not a header\n",
	}
	for _, raw := range inputs {
		tok := newTokenizer(raw)
		headers := 0
		for {
			if _, ok := tok.nextHeader(); !ok {
				break
			}
			headers++
		}
		assert.Len(t, Parse(raw), headers, "input %q", raw)
	}
}

func TestParse_HeaderInsideDigitRun(t *testing.T) {
	records := Parse("111/1/24, 09:00 - A: x\n")
	require.Len(t, records, 1)
	assert.Equal(t, 11, records[0].Time.Day)
}

func TestParseFile_NormalizesBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "WhatsApp Chat with Family.txt")
	content := "\ufeff1/1/24, 09:00 - Alice: <Media omitted>\r\n1/1/24, 09:01 - Bob: hi\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	result, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	assert.Equal(t, MediaOmitted+"\n", result.Records[0].Body)
	assert.Equal(t, 0, result.PreambleBytes)
	assert.Equal(t, "Family", result.Meta.Title)
	assert.Equal(t, path, result.Meta.FilePath)
	assert.Equal(t, int64(len(content)), result.Meta.Size)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 1, 0, 0, time.UTC), result.Meta.LastAt)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "Family", TitleFromPath("/x/WhatsApp Chat with Family.txt"))
	assert.Equal(t, "Work", TitleFromPath("WhatsApp Chat - Work.txt"))
	assert.Equal(t, "export", TitleFromPath("export.txt"))
}
