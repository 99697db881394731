// Package entries models the submission identifiers scraped from a published
// form. A title can occur many times on a form, so every title owns a FIFO
// queue of entries that a reconciliation pass consumes in document order.
package entries

import (
	"encoding/json"
)

type Row struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

// Entry is one occurrence of a question title. It is either a simple
// identifier (ID is set) or a grid row-map (Rows is set).
type Entry struct {
	ID   string
	Rows []Row
}

func Simple(id string) Entry {
	return Entry{ID: id}
}

func Grid(rows ...Row) Entry {
	if rows == nil {
		rows = []Row{}
	}
	return Entry{Rows: rows}
}

func (e Entry) IsGrid() bool {
	return e.Rows != nil
}

// RowID looks up a row identifier by its exact label.
func (e Entry) RowID(label string) (string, bool) {
	for _, r := range e.Rows {
		if r.Label == label {
			return r.ID, true
		}
	}
	return "", false
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if !e.IsGrid() {
		return json.Marshal(e.ID)
	}
	rows := make(map[string]string, len(e.Rows))
	for _, r := range e.Rows {
		rows[r.Label] = r.ID
	}
	return json.Marshal(rows)
}

// Map is title -> queue of entries. Titles keep their first-seen order so
// scans over keys are deterministic.
//
// A Map belongs to a single reconciliation pass, it is not safe for
// concurrent use.
type Map struct {
	order  []string
	queues map[string][]Entry
}

func NewMap() *Map {
	return &Map{queues: map[string][]Entry{}}
}

func (m *Map) Append(title string, entry Entry) {
	queue, ok := m.queues[title]
	if !ok {
		m.order = append(m.order, title)
	}
	m.queues[title] = append(queue, entry)
}

// Titles returns every title ever appended, including titles whose queue
// has been fully consumed.
func (m *Map) Titles() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Map) Has(title string) bool {
	_, ok := m.queues[title]
	return ok
}

// Queue returns a copy of the remaining entries for title.
func (m *Map) Queue(title string) []Entry {
	queue := m.queues[title]
	out := make([]Entry, len(queue))
	copy(out, queue)
	return out
}

// Len is the number of remaining entries across all titles.
func (m *Map) Len() int {
	n := 0
	for _, queue := range m.queues {
		n += len(queue)
	}
	return n
}

func (m *Map) Empty() bool {
	return m.Len() == 0
}

// Peek reports whether title has an entry matching pred without consuming it.
func (m *Map) Peek(title string, pred func(Entry) bool) bool {
	return m.find(title, pred) >= 0
}

// Consume removes and returns the first entry of title's queue that
// matches pred. Entries before it stay queued in their original order.
func (m *Map) Consume(title string, pred func(Entry) bool) (Entry, bool) {
	idx := m.find(title, pred)
	if idx < 0 {
		return Entry{}, false
	}
	queue := m.queues[title]
	entry := queue[idx]
	m.queues[title] = append(queue[:idx:idx], queue[idx+1:]...)
	return entry, true
}

func (m *Map) find(title string, pred func(Entry) bool) int {
	for i, e := range m.queues[title] {
		if pred(e) {
			return i
		}
	}
	return -1
}

type TitleQueue struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// Snapshot lists the remaining queues in title order.
func (m *Map) Snapshot() []TitleQueue {
	out := make([]TitleQueue, 0, len(m.order))
	for _, title := range m.order {
		out = append(out, TitleQueue{Title: title, Entries: m.Queue(title)})
	}
	return out
}

func IsSimple(e Entry) bool {
	return !e.IsGrid()
}

// HasRow matches grid entries that contain label.
func HasRow(label string) func(Entry) bool {
	return func(e Entry) bool {
		if !e.IsGrid() {
			return false
		}
		_, ok := e.RowID(label)
		return ok
	}
}
