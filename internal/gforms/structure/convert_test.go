package structure

import (
	"testing"

	"eventreg-backend/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/forms/v1"
)

func TestConvert(t *testing.T) {
	rec := telemetry.NewRecorder()
	form := Convert(&forms.Form{
		FormId: "F1",
		Info:   &forms.Info{Title: "Hackathon", Description: "Sign up"},
		Items: []*forms.Item{
			{ItemId: "a", Title: "Name", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				Required:     true,
				TextQuestion: &forms.TextQuestion{},
			}}},
			{ItemId: "b", Title: "About you", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				TextQuestion: &forms.TextQuestion{Paragraph: true},
			}}},
			{ItemId: "pb", Title: "Page two", PageBreakItem: &forms.PageBreakItem{}},
			{ItemId: "c", Title: "Track", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				ChoiceQuestion: &forms.ChoiceQuestion{Type: "DROP_DOWN", Options: []*forms.Option{{Value: "AI"}, {Value: "Web"}}},
			}}},
			{ItemId: "d", Title: "Experience", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				ScaleQuestion: &forms.ScaleQuestion{High: 10, LowLabel: "none", HighLabel: "lots"},
			}}},
			{ItemId: "e", Title: "Rate us", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				RatingQuestion: &forms.RatingQuestion{},
			}}},
			{ItemId: "f", Title: "Arrival", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				DateQuestion: &forms.DateQuestion{IncludeTime: true},
			}}},
			{ItemId: "g", Title: "Talk length", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				TimeQuestion: &forms.TimeQuestion{Duration: true},
			}}},
			{ItemId: "h", Title: "Resume", QuestionItem: &forms.QuestionItem{Question: &forms.Question{
				FileUploadQuestion: &forms.FileUploadQuestion{},
			}}},
			{ItemId: "i", Title: "Skills", QuestionGroupItem: &forms.QuestionGroupItem{
				Grid: &forms.Grid{Columns: &forms.ChoiceQuestion{
					Type:    "CHECKBOX",
					Options: []*forms.Option{{Value: "Beginner"}, {Value: "Expert"}},
				}},
				Questions: []*forms.Question{
					{RowQuestion: &forms.RowQuestion{Title: "Coding"}},
					{Required: true, RowQuestion: &forms.RowQuestion{Title: "Design"}},
				},
			}},
		},
	}, rec)

	expected := Form{
		ID:          "F1",
		Title:       "Hackathon",
		Description: "Sign up",
		Questions: []CanonicalQuestion{
			{ItemID: "a", Title: "Name", Type: TypeShortAnswer, Required: true, Placeholder: textPlaceholder},
			{ItemID: "b", Title: "About you", Type: TypeParagraph, Placeholder: textPlaceholder},
			{ItemID: "c", Title: "Track", Type: TypeDropdown, Options: []string{"AI", "Web"}},
			{ItemID: "d", Title: "Experience", Type: TypeLinearScale, Min: 1, Max: 10, MinLabel: "none", MaxLabel: "lots"},
			{ItemID: "e", Title: "Rate us", Type: TypeStarRating, Max: 5},
			{ItemID: "f", Title: "Arrival", Type: TypeDateTime},
			{ItemID: "g", Title: "Talk length", Type: TypeDuration},
			{ItemID: "h", Title: "Resume", Type: TypeShortAnswer, Unsupported: true},
			{
				ItemID:   "i",
				Title:    "Skills",
				Type:     TypeGridCheckbox,
				Required: true,
				Rows:     []string{"Coding", "Design"},
				Columns:  []string{"Beginner", "Expert"},
			},
		},
	}
	if diff := cmp.Diff(expected, form); diff != "" {
		t.Fatal(diff)
	}

	// the file upload question is reported and kept as unsupported
	require.Len(t, rec.Find(telemetry.ReportKindWarning, report_convert_item), 1)
}

func TestConvertDefaultTitle(t *testing.T) {
	form := Convert(&forms.Form{FormId: "F2"}, telemetry.NewRecorder())
	require.Equal(t, defaultFormTitle, form.Title)
	require.Empty(t, form.Questions)
}
