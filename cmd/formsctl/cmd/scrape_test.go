package cmd

import (
	"testing"

	"eventreg-backend/internal/gforms/entries"

	"github.com/stretchr/testify/require"
)

func TestFlattenEntries(t *testing.T) {
	m := entries.NewMap()
	m.Append("Name", entries.Simple("1"))
	m.Append("Name", entries.Simple("2"))
	m.Append("Skills", entries.Grid(
		entries.Row{Label: "Coding", ID: "3"},
		entries.Row{Label: "Design", ID: "4"},
	))
	index := entries.Index{
		"1": {Title: "Name", Kind: entries.KindShortAnswer},
	}

	flat := flattenEntries(m.Snapshot(), index)
	require.Equal(t, []scrapedEntry{
		{Title: "Name", Occurrence: 1, ID: "1", Kind: entries.KindShortAnswer},
		{Title: "Name", Occurrence: 2, ID: "2"},
		{Title: "Skills", Occurrence: 1, Kind: entries.KindGrid, Rows: []entries.Row{
			{Label: "Coding", ID: "3"},
			{Label: "Design", ID: "4"},
		}},
	}, flat)
	require.Equal(t, "Coding=3\nDesign=4", rowsText(flat[2].Rows))
}
