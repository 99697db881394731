package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPINamespaces(t *testing.T) {
	rec := NewRecorder()
	tel := NewScopedAPI("scraper", NewScopedAPI("gforms", rec))

	tel.ReportBroken("scraper.fetch-page", "boom")
	tel.ReportWarning("scraper.parse")
	tel.ReportCount("entries", 3)

	reports := rec.Reports()
	require.Len(t, reports, 3)
	require.Equal(t, "gforms: scraper: scraper.fetch-page", reports[0].ID)
	require.Equal(t, []any{"boom"}, reports[0].Params)
	require.Equal(t, int64(3), reports[2].Count)

	require.Len(t, rec.Find(ReportKindWarning, "scraper.parse"), 1)
	require.Empty(t, rec.Find(ReportKindBroken, "scraper.parse"))
}
