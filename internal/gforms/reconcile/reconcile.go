// Package reconcile attaches scraped submission identifiers to the questions
// of a form's canonical structure.
//
// Scraped identifiers are only keyed by question title, so a title that
// appears N times owns a queue of N entries. Questions consume entries from
// the front of their title's queue, the Nth question with a title receives
// the Nth occurrence of that title on the page.
package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/gforms/entries"
	"eventreg-backend/internal/gforms/structure"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	report_reconciler_question = "reconciler.question"
	report_reconciler_row      = "reconciler.row"
	report_reconciler_resolved = "reconciler.resolved"
	report_reconciler_fallback = "reconciler.fallback"
)

var tracer = otel.Tracer("eventreg.gforms.reconcile")

type Row struct {
	Label string
	// EntryID is empty when the row could not be resolved.
	EntryID string
	// ID is EntryID, or a generated placeholder that will not submit.
	ID       string
	Fallback bool
}

type Question struct {
	structure.CanonicalQuestion

	// EntryID is the submission identifier of a simple question, it is
	// empty for grids (see Rows) and for unresolved questions.
	EntryID string
	// ID identifies the question towards the UI: EntryID when resolved,
	// otherwise a generated key.
	ID       string
	Fallback bool

	Match        MatchReason
	MatchedTitle string

	Rows []Row
}

// Miss describes a title or grid row that degraded to a fallback.
type Miss struct {
	ItemID string
	Title  string
	// Row is set when a single grid row was not found.
	Row string
	// Nearest is the most similar scraped title that still had entries.
	Nearest    string
	Similarity float64
}

type Report struct {
	Resolved     int
	Fallbacks    int
	RowsResolved int
	RowsFallback int
	Misses       []Miss
}

type Reconciler struct {
	tel telemetry.API
	// newSuffix generates placeholder suffixes, replaced in tests.
	newSuffix func() string
}

func New(tel telemetry.API) *Reconciler {
	assert.NotNil(tel)
	return &Reconciler{
		tel:       telemetry.NewScopedAPI("gforms_reconcile", tel),
		newSuffix: randomSuffix,
	}
}

func randomSuffix() string {
	suffix, err := random.String(9)
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return strings.ToLower(suffix)
}

// Reconcile resolves every question against m, consuming the entries it
// uses. m must not be shared with any other pass. Unresolved questions and
// rows never abort the pass, they get placeholder ids and are listed in the
// report.
func (r *Reconciler) Reconcile(ctx context.Context, questions []structure.CanonicalQuestion, m *entries.Map) ([]Question, Report) {
	_, span := tracer.Start(ctx, "Reconcile")
	defer span.End()

	assert.NotNil(m)

	var report Report
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		var resolved Question
		if q.IsGrid() {
			resolved = r.reconcileGrid(q, m, &report)
		} else {
			resolved = r.reconcileSimple(q, m, &report)
		}
		out = append(out, resolved)
	}

	r.tel.ReportCount(report_reconciler_resolved, int64(report.Resolved))
	r.tel.ReportCount(report_reconciler_fallback, int64(report.Fallbacks))
	span.SetAttributes(
		attribute.Int("resolved", report.Resolved),
		attribute.Int("fallbacks", report.Fallbacks),
		attribute.Int("rows_resolved", report.RowsResolved),
		attribute.Int("rows_fallback", report.RowsFallback),
	)
	return out, report
}

func (r *Reconciler) fallbackID(q structure.CanonicalQuestion) string {
	if q.ItemID != "" {
		return "fallback_" + q.ItemID
	}
	return "fallback_" + r.newSuffix()
}

func (r *Reconciler) miss(report *Report, m *entries.Map, q structure.CanonicalQuestion, row string) {
	nearest, similarity := nearestTitle(m, q.Title)
	report.Misses = append(report.Misses, Miss{
		ItemID:     q.ItemID,
		Title:      q.Title,
		Row:        row,
		Nearest:    nearest,
		Similarity: similarity,
	})
	if row != "" {
		r.tel.ReportWarning(report_reconciler_row, fmt.Sprintf("no entry id for row %q of %q", row, q.Title))
		return
	}
	r.tel.ReportWarning(
		report_reconciler_question,
		fmt.Sprintf("no entry id for %q", q.Title),
		fmt.Sprintf("nearest %q (%.2f)", nearest, similarity),
	)
}

func (r *Reconciler) reconcileSimple(q structure.CanonicalQuestion, m *entries.Map, report *Report) Question {
	out := Question{CanonicalQuestion: q, Match: MatchNone}

	match, ok := resolveTitle(m, q.Title, entries.IsSimple)
	if ok {
		entry, consumed := m.Consume(match.key, entries.IsSimple)
		if consumed {
			out.EntryID = entry.ID
			out.ID = entry.ID
			out.Match = match.reason
			out.MatchedTitle = match.key
			report.Resolved++
			r.tel.ReportDebug("resolved question", q.Title, match.reason, entry.ID)
			return out
		}
	}

	r.miss(report, m, q, "")
	out.ID = r.fallbackID(q)
	out.Fallback = true
	report.Fallbacks++
	return out
}

func (r *Reconciler) reconcileGrid(q structure.CanonicalQuestion, m *entries.Map, report *Report) Question {
	out := Question{
		CanonicalQuestion: q,
		ID:                "grid_" + q.ItemID,
		Match:             MatchNone,
		Rows:              make([]Row, 0, len(q.Rows)),
	}
	if q.ItemID == "" {
		out.ID = "grid_" + r.newSuffix()
	}

	// the grid's row-map is identified by its first row label, every other
	// row is looked up inside that one consumed map only.
	var rowMap entries.Entry
	if len(q.Rows) > 0 {
		compatible := entries.HasRow(q.Rows[0])
		match, ok := resolveTitle(m, q.Title, compatible)
		if ok {
			rowMap, ok = m.Consume(match.key, compatible)
		}
		if ok {
			out.Match = match.reason
			out.MatchedTitle = match.key
			report.Resolved++
			r.tel.ReportDebug("resolved grid", q.Title, match.reason)
		}
	}
	if !rowMap.IsGrid() {
		r.miss(report, m, q, "")
		out.Fallback = true
		report.Fallbacks++
	}

	for _, label := range q.Rows {
		id, ok := rowMap.RowID(label)
		if ok {
			out.Rows = append(out.Rows, Row{Label: label, EntryID: id, ID: id})
			report.RowsResolved++
			continue
		}
		if rowMap.IsGrid() {
			// the question itself resolved, report the single row
			r.miss(report, m, q, label)
		}
		out.Rows = append(out.Rows, Row{
			Label:    label,
			ID:       "row_" + r.newSuffix(),
			Fallback: true,
		})
		report.RowsFallback++
	}

	return out
}
