package reconcile

import (
	"context"
	"fmt"
	"testing"

	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/gforms/entries"
	"eventreg-backend/internal/gforms/structure"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/forms/v1"
)

func newTestReconciler(tel telemetry.API) *Reconciler {
	r := New(tel)
	n := 0
	r.newSuffix = func() string {
		n++
		return fmt.Sprintf("gen%d", n)
	}
	return r
}

func simpleQuestion(itemID, title string) structure.CanonicalQuestion {
	return structure.CanonicalQuestion{ItemID: itemID, Title: title, Type: structure.TypeShortAnswer}
}

func gridQuestion(itemID, title string, rows ...string) structure.CanonicalQuestion {
	return structure.CanonicalQuestion{
		ItemID:  itemID,
		Title:   title,
		Type:    structure.TypeGridRadio,
		Rows:    rows,
		Columns: []string{"Low", "High"},
	}
}

func TestReconcileDuplicateTitlesAndGrid(t *testing.T) {
	m := entries.NewMap()
	m.Append("Name", entries.Simple("111"))
	m.Append("Name", entries.Simple("222"))
	m.Append("Skills", entries.Grid(
		entries.Row{Label: "Coding", ID: "333"},
		entries.Row{Label: "Design", ID: "444"},
	))

	questions := []structure.CanonicalQuestion{
		simpleQuestion("a", "Name"),
		simpleQuestion("b", "Name"),
		gridQuestion("c", "Skills", "Coding", "Design"),
	}

	out, report := newTestReconciler(telemetry.NewRecorder()).Reconcile(context.Background(), questions, m)
	require.Len(t, out, 3)

	require.Equal(t, "111", out[0].EntryID)
	require.Equal(t, "222", out[1].EntryID)
	require.Equal(t, MatchExact, out[0].Match)

	require.Empty(t, out[2].EntryID)
	require.False(t, out[2].Fallback)
	require.Equal(t, []Row{
		{Label: "Coding", EntryID: "333", ID: "333"},
		{Label: "Design", EntryID: "444", ID: "444"},
	}, out[2].Rows)

	require.Equal(t, 3, report.Resolved)
	require.Zero(t, report.Fallbacks)
	require.Equal(t, 2, report.RowsResolved)
	require.Empty(t, report.Misses)
	require.True(t, m.Empty())
}

func TestReconcileUnsupportedItemKeepsItsOccurrence(t *testing.T) {
	rec := telemetry.NewRecorder()
	form := structure.Convert(&forms.Form{
		FormId: "F",
		Items: []*forms.Item{
			{ItemId: "a", Title: "Document", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				FileUploadQuestion: &forms.FileUploadQuestion{},
			}}},
			{ItemId: "b", Title: "Document", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				TextQuestion: &forms.TextQuestion{},
			}}},
		},
	}, rec)
	require.Len(t, form.Questions, 2)
	require.True(t, form.Questions[0].Unsupported)

	m := entries.NewMap()
	m.Append("Document", entries.Simple("111"))
	m.Append("Document", entries.Simple("222"))

	out, _ := newTestReconciler(rec).Reconcile(context.Background(), form.Questions, m)
	require.Len(t, out, 2)
	require.Equal(t, "111", out[0].EntryID)
	require.Equal(t, "b", out[1].ItemID)
	require.Equal(t, "222", out[1].EntryID)
	require.True(t, m.Empty())
}

func TestReconcileDuplicateTitlesAreABijection(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			m := entries.NewMap()
			questions := make([]structure.CanonicalQuestion, 0, n)
			for i := 0; i < n; i++ {
				m.Append("Attendee name", entries.Simple(fmt.Sprint(1000+i)))
				questions = append(questions, simpleQuestion(fmt.Sprint("item", i), "Attendee name"))
			}

			out, _ := newTestReconciler(telemetry.NewRecorder()).Reconcile(context.Background(), questions, m)

			seen := map[string]bool{}
			for i, q := range out {
				require.Equal(t, fmt.Sprint(1000+i), q.EntryID, "question %d", i)
				require.False(t, seen[q.EntryID])
				seen[q.EntryID] = true
			}
			require.True(t, m.Empty())
		})
	}
}

func TestReconcileConsumedEntryIsNeverReused(t *testing.T) {
	m := entries.NewMap()
	m.Append("Email", entries.Simple("555"))
	r := newTestReconciler(telemetry.NewRecorder())

	out, _ := r.Reconcile(context.Background(), []structure.CanonicalQuestion{simpleQuestion("e1", "Email")}, m)
	require.Equal(t, "555", out[0].EntryID)

	out, report := r.Reconcile(context.Background(), []structure.CanonicalQuestion{simpleQuestion("e1", "Email")}, m)
	require.Empty(t, out[0].EntryID)
	require.True(t, out[0].Fallback)
	require.Equal(t, "fallback_e1", out[0].ID)
	require.Equal(t, MatchNone, out[0].Match)
	require.Equal(t, 1, report.Fallbacks)
}

func TestReconcileGridRowsOnlyResolveInsideTheirOwnMap(t *testing.T) {
	m := entries.NewMap()
	m.Append("Ratings", entries.Grid(
		entries.Row{Label: "Food", ID: "1"},
		entries.Row{Label: "Venue", ID: "2"},
	))
	m.Append("Ratings", entries.Grid(
		entries.Row{Label: "Speakers", ID: "3"},
	))

	questions := []structure.CanonicalQuestion{
		gridQuestion("g2", "Ratings", "Speakers", "Venue"),
		gridQuestion("g1", "Ratings", "Food"),
	}

	rec := telemetry.NewRecorder()
	out, report := newTestReconciler(rec).Reconcile(context.Background(), questions, m)

	// g2 identifies the second map by its first row, Venue lives in the first
	// map and must not be borrowed from it.
	require.Equal(t, "3", out[0].Rows[0].EntryID)
	require.True(t, out[0].Rows[1].Fallback)
	require.Empty(t, out[0].Rows[1].EntryID)
	require.Equal(t, "row_gen1", out[0].Rows[1].ID)

	require.Equal(t, "1", out[1].Rows[0].EntryID)

	require.Equal(t, 2, report.Resolved)
	require.Equal(t, 1, report.RowsFallback)
	require.Len(t, report.Misses, 1)
	require.Equal(t, "Venue", report.Misses[0].Row)
	require.Len(t, rec.Find(telemetry.ReportKindWarning, report_reconciler_row), 1)
}

func TestReconcileGridSkipsSimpleEntriesWithSameTitle(t *testing.T) {
	m := entries.NewMap()
	m.Append("Availability", entries.Simple("10"))
	m.Append("Availability", entries.Grid(entries.Row{Label: "Morning", ID: "11"}))

	questions := []structure.CanonicalQuestion{
		gridQuestion("g", "Availability", "Morning"),
		simpleQuestion("s", "Availability"),
	}
	out, _ := newTestReconciler(telemetry.NewRecorder()).Reconcile(context.Background(), questions, m)

	require.Equal(t, "11", out[0].Rows[0].EntryID)
	require.Equal(t, "10", out[1].EntryID)
}

func TestReconcileStrategies(t *testing.T) {
	cases := []struct {
		name    string
		scraped []string
		title   string
		reason  MatchReason
		key     string
	}{
		{name: "exact", scraped: []string{"Phone"}, title: "Phone", reason: MatchExact, key: "Phone"},
		{name: "required marker", scraped: []string{"Email *"}, title: "Email", reason: MatchRequiredMarker, key: "Email *"},
		{name: "trimmed", scraped: []string{" Phone "}, title: "Phone", reason: MatchTrimmed, key: " Phone "},
		{name: "trimmed title", scraped: []string{"Phone"}, title: "Phone  ", reason: MatchTrimmed, key: "Phone"},
		{name: "trimmed required marker", scraped: []string{" City * "}, title: "City", reason: MatchTrimmedRequiredMarker, key: " City * "},
		{name: "exact preferred over marker", scraped: []string{"Age *", "Age"}, title: "Age", reason: MatchExact, key: "Age"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := entries.NewMap()
			for i, title := range c.scraped {
				m.Append(title, entries.Simple(fmt.Sprint(i+1)))
			}
			out, _ := newTestReconciler(telemetry.NewRecorder()).Reconcile(
				context.Background(),
				[]structure.CanonicalQuestion{simpleQuestion("q", c.title)},
				m,
			)
			require.Equal(t, c.reason, out[0].Match)
			require.Equal(t, c.key, out[0].MatchedTitle)
			require.NotEmpty(t, out[0].EntryID)
		})
	}
}

func TestReconcileExhaustedTitleFallsThroughToMarker(t *testing.T) {
	m := entries.NewMap()
	m.Append("Name", entries.Simple("1"))
	m.Append("Name *", entries.Simple("2"))

	questions := []structure.CanonicalQuestion{
		simpleQuestion("a", "Name"),
		simpleQuestion("b", "Name"),
	}
	out, _ := newTestReconciler(telemetry.NewRecorder()).Reconcile(context.Background(), questions, m)

	require.Equal(t, "1", out[0].EntryID)
	require.Equal(t, "2", out[1].EntryID)
	require.Equal(t, MatchRequiredMarker, out[1].Match)
}

func TestReconcileMissReportsNearestTitle(t *testing.T) {
	m := entries.NewMap()
	m.Append("Company name", entries.Simple("1"))
	m.Append("Dietary needs", entries.Simple("2"))

	rec := telemetry.NewRecorder()
	out, report := newTestReconciler(rec).Reconcile(
		context.Background(),
		[]structure.CanonicalQuestion{simpleQuestion("x", "Company")},
		m,
	)

	require.True(t, out[0].Fallback)
	require.Len(t, report.Misses, 1)
	require.Equal(t, "Company name", report.Misses[0].Nearest)
	require.Greater(t, report.Misses[0].Similarity, 0.8)
	require.Len(t, rec.Find(telemetry.ReportKindWarning, report_reconciler_question), 1)
	// nothing was consumed by the diagnostic
	require.Equal(t, 2, m.Len())
}

func TestReconcileUnresolvedGrid(t *testing.T) {
	m := entries.NewMap()
	out, report := newTestReconciler(telemetry.NewRecorder()).Reconcile(
		context.Background(),
		[]structure.CanonicalQuestion{gridQuestion("g", "Sessions", "Morning", "Evening")},
		m,
	)

	require.True(t, out[0].Fallback)
	require.Equal(t, "grid_g", out[0].ID)
	require.Equal(t, []Row{
		{Label: "Morning", ID: "row_gen1", Fallback: true},
		{Label: "Evening", ID: "row_gen2", Fallback: true},
	}, out[0].Rows)
	require.Equal(t, 1, report.Fallbacks)
	require.Equal(t, 2, report.RowsFallback)
	// the question miss covers its rows
	require.Len(t, report.Misses, 1)
}
