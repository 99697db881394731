package entries

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsumeIsFIFOAndSkipsIncompatible(t *testing.T) {
	m := NewMap()
	m.Append("Skills", Grid(Row{Label: "Coding", ID: "222"}))
	m.Append("Skills", Simple("100"))
	m.Append("Skills", Simple("101"))

	e, ok := m.Consume("Skills", IsSimple)
	require.True(t, ok)
	require.Equal(t, "100", e.ID)

	e, ok = m.Consume("Skills", IsSimple)
	require.True(t, ok)
	require.Equal(t, "101", e.ID)

	_, ok = m.Consume("Skills", IsSimple)
	require.False(t, ok)

	// the grid that was skipped over is still first in line
	e, ok = m.Consume("Skills", HasRow("Coding"))
	require.True(t, ok)
	require.True(t, e.IsGrid())
	require.True(t, m.Empty())
	require.True(t, m.Has("Skills"))
}

func TestConsumeDoesNotAliasRemaining(t *testing.T) {
	m := NewMap()
	m.Append("A", Simple("1"))
	m.Append("A", Simple("2"))
	m.Append("A", Simple("3"))

	e, _ := m.Consume("A", func(e Entry) bool { return e.ID == "2" })
	require.Equal(t, "2", e.ID)
	require.Equal(t, []Entry{Simple("1"), Simple("3")}, m.Queue("A"))
}

func TestEntryJSON(t *testing.T) {
	m := NewMap()
	m.Append("Name", Simple("111"))
	m.Append("Skills", Grid(Row{Label: "Coding", ID: "222"}, Row{Label: "Design", ID: "223"}))

	out, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"title": "Name", "entries": ["111"]},
		{"title": "Skills", "entries": [{"Coding": "222", "Design": "223"}]}
	]`, string(out))
}

func TestKindFromTypeCode(t *testing.T) {
	require.Equal(t, KindGrid, KindFromTypeCode(7))
	require.Equal(t, KindDate, KindFromTypeCode(9))
	require.Equal(t, KindUnknown, KindFromTypeCode(8))
	require.True(t, Field{Kind: KindTime}.IsTemporal())
	require.False(t, Field{Kind: KindShortAnswer}.IsTemporal())
}
