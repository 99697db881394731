package prompt

import (
	"testing"

	"eventreg-backend/internal/gforms/payload"
	"eventreg-backend/internal/gforms/reconcile"
	"eventreg-backend/internal/gforms/structure"

	"github.com/stretchr/testify/require"
)

func question(id string, t structure.QuestionType) reconcile.Question {
	return reconcile.Question{
		CanonicalQuestion: structure.CanonicalQuestion{Title: id, Type: t},
		ID:                id,
	}
}

func TestAnswers(t *testing.T) {
	grid := question("grid_c", structure.TypeGridCheckbox)
	grid.CanonicalQuestion.Rows = []string{"Coding", "Design"}
	grid.CanonicalQuestion.Columns = []string{"Low", "High"}
	grid.Rows = []reconcile.Row{
		{Label: "Coding", EntryID: "201", ID: "201"},
		{Label: "Design", EntryID: "202", ID: "202"},
	}

	f := Build([]reconcile.Question{
		question("101", structure.TypeShortAnswer),
		question("102", structure.TypeCheckbox),
		question("103", structure.TypeDate),
		question("104", structure.TypeParagraph),
		grid,
	})
	require.Len(t, f.groups, 5)
	require.Len(t, f.bindings, 6)

	*f.bindings[0].text = " Ada "
	*f.bindings[1].list = []string{"A", "B"}
	*f.bindings[2].text = "2026-03-28"
	// 104 left empty
	*f.bindings[4].list = []string{"High"}
	*f.bindings[5].list = []string{"Low", "High"}

	require.Equal(t, map[string]payload.Answer{
		"101": payload.Text("Ada"),
		"102": payload.List("A", "B"),
		"103": payload.Text("2026-03-28"),
		"grid_c": {
			Kind: payload.AnswerGrid,
			Grid: []payload.GridCell{
				{RowID: "201", Values: []string{"High"}},
				{RowID: "202", Values: []string{"Low", "High"}},
			},
		},
	}, f.Answers())
}

func TestValidators(t *testing.T) {
	date := layoutValidator("2006-01-02", "YYYY-MM-DD", true)
	require.NoError(t, date("2026-03-28"))
	require.ErrorIs(t, date(""), errRequired)
	require.Error(t, date("28/03/2026"))

	optional := layoutValidator("15:04", "HH:MM", false)
	require.NoError(t, optional(""))
	require.Error(t, optional("9.30"))
}

func TestScaleValues(t *testing.T) {
	scale := question("s", structure.TypeLinearScale)
	scale.Min, scale.Max = 0, 3
	require.Equal(t, []string{"0", "1", "2", "3"}, scaleValues(scale))

	stars := question("r", structure.TypeStarRating)
	stars.Max = 5
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, scaleValues(stars))
}
