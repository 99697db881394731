package scraper

import (
	"errors"
	"strings"
	"testing"

	"eventreg-backend/internal/gforms/entries"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	result, err := Parse(fixturePayload)
	require.NoError(t, err)
	require.Equal(t, 9, result.Items)

	require.Equal(t, []string{"Name", "Skills", "Event date", "Big", "Solo grid", "Stringly"}, result.Entries.Titles())

	require.Equal(t, []entries.Entry{
		entries.Simple("1000000001"),
		entries.Simple("1000000004"),
	}, result.Entries.Queue("Name"))

	require.Equal(t, []entries.Entry{
		entries.Simple("1000000002"),
		entries.Grid(
			entries.Row{Label: "Coding", ID: "1000000002"},
			entries.Row{Label: "Design", ID: "1000000003"},
		),
	}, result.Entries.Queue("Skills"))

	// single row grids are only recognized through the type code
	require.Equal(t, []entries.Entry{
		entries.Simple("1000000007"),
		entries.Grid(entries.Row{Label: "Only row", ID: "1000000007"}),
	}, result.Entries.Queue("Solo grid"))

	require.Equal(t, []entries.Entry{entries.Simple("9007199254740993")}, result.Entries.Queue("Big"))
	require.Equal(t, []entries.Entry{entries.Simple("1000000009")}, result.Entries.Queue("Stringly"))
	require.False(t, result.Entries.Has("Section"))

	require.Equal(t, entries.Field{Title: "Event date", Kind: entries.KindDate}, result.Index["1000000005"])
	require.Equal(t, entries.Field{Title: "Skills", Kind: entries.KindGrid, Row: "Design"}, result.Index["1000000003"])
	require.Equal(t, entries.KindShortAnswer, result.Index["1000000004"].Kind)
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		`[null, {`,
		`{"not": "an array"}`,
		`[null, [null, "items"]]`,
		``,
	}
	for _, raw := range cases {
		result, err := Parse(raw)
		require.Error(t, err, raw)
		require.True(t, errors.Is(err, ErrPayloadMalformed), raw)
		require.NotNil(t, result.Entries)
		require.True(t, result.Entries.Empty())
		require.Empty(t, result.Index)
	}
}

func TestParseIgnoresNonNumericIdentifiers(t *testing.T) {
	result, err := Parse(`[null,[null,[
		[1,"Zero",null,0,[[0,null,0]]],
		[2,"Text",null,0,[["abc",null,0]]],
		[3,"Negative",null,0,[[-5,null,0]]],
		[4,"Fraction",null,0,[[1.5,null,0]]],
		[5,"Nothing",null,0,[]]
	]]]`)
	require.NoError(t, err)
	require.True(t, result.Entries.Empty())
}

func TestExtract(t *testing.T) {
	html := fixtureHtml(fixturePayload, "-123456789")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	require.Equal(t, fixturePayload, extractPayload(doc, html))
	require.Equal(t, "-123456789", extractToken(doc, html))

	// without a parsed document the regex fallbacks apply
	require.Equal(t, "-123456789", extractToken(nil, html))
	require.Equal(t, "", extractPayload(nil, "<html><script>var other = 1;</script></html>"))
	require.Equal(t, "[1]", extractPayload(nil, "<script>var FB_PUBLIC_LOAD_DATA_ = [1];</script>"))
}

func TestRawItem(t *testing.T) {
	raw, err := RawItem(fixturePayload, "Solo grid")
	require.NoError(t, err)
	require.JSONEq(t, `[777777,"Solo grid",null,7,[[1000000007,[["A"]],0,["Only row"]]]]`, string(raw))

	raw, err = RawItem(fixturePayload, "Missing")
	require.NoError(t, err)
	require.Nil(t, raw)
}
