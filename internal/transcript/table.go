// Package transcript holds the frozen, in-memory table of parsed records
// that every analytics query reads from.
package transcript

import (
	"sort"

	"github.com/Zuo-Peng/chatstat/internal/parse"
)

// Overall selects every record in Filter.
const Overall = "Overall"

// Table is immutable after construction; concurrent readers are safe.
type Table struct {
	records []parse.Record
	senders []string
}

// New copies records into a new table.
func New(records []parse.Record) *Table {
	t := &Table{records: make([]parse.Record, len(records))}
	copy(t.records, records)

	seen := make(map[string]struct{})
	for _, r := range t.records {
		if _, ok := seen[r.Sender]; ok {
			continue
		}
		seen[r.Sender] = struct{}{}
		t.senders = append(t.senders, r.Sender)
	}
	sort.Strings(t.senders)
	return t
}

// Preprocess parses raw transcript text into a table.
func Preprocess(raw string) *Table {
	return New(parse.Parse(raw))
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the records in document order.
func (t *Table) Records() []parse.Record {
	if t == nil {
		return nil
	}
	out := make([]parse.Record, len(t.records))
	copy(out, t.records)
	return out
}

// Each calls fn for every record in document order without copying the table.
func (t *Table) Each(fn func(parse.Record)) {
	if t == nil {
		return
	}
	for _, r := range t.records {
		fn(r)
	}
}

// Filter returns the sub-table for sender, or t itself for Overall.
// An unknown sender yields an empty table.
func (t *Table) Filter(sender string) *Table {
	if t == nil {
		return New(nil)
	}
	if sender == Overall {
		return t
	}
	var out []parse.Record
	for _, r := range t.records {
		if r.Sender == sender {
			out = append(out, r)
		}
	}
	return New(out)
}

// Senders returns the distinct sender values, sorted. The group
// notification sentinel is included when present.
func (t *Table) Senders() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.senders))
	copy(out, t.senders)
	return out
}

// HasSender reports whether any record belongs to sender.
func (t *Table) HasSender(sender string) bool {
	if t == nil {
		return false
	}
	i := sort.SearchStrings(t.senders, sender)
	return i < len(t.senders) && t.senders[i] == sender
}

// SelectionList is the sender picker shown to users: Overall first, then
// the real senders without the group notification sentinel.
func (t *Table) SelectionList() []string {
	out := []string{Overall}
	for _, s := range t.Senders() {
		if s == parse.GroupNotification {
			continue
		}
		out = append(out, s)
	}
	return out
}
