package structure

import (
	"fmt"

	"eventreg-backend/internal/components/telemetry"

	"google.golang.org/api/forms/v1"
)

const (
	report_convert_item = "convert.item"

	defaultFormTitle  = "Application Form"
	textPlaceholder   = "Enter your answer..."
	defaultScaleLow   = 1
	defaultScaleHigh  = 5
	defaultRatingHigh = 5
)

func choiceType(kind string) (QuestionType, bool) {
	switch kind {
	case "RADIO":
		return TypeRadio, true
	case "CHECKBOX":
		return TypeCheckbox, true
	case "DROP_DOWN":
		return TypeDropdown, true
	}
	return "", false
}

func optionValues(options []*forms.Option) []string {
	values := make([]string, 0, len(options))
	for _, o := range options {
		if o == nil {
			continue
		}
		values = append(values, o.Value)
	}
	return values
}

func orDefault(value int64, fallback int) int {
	if value == 0 {
		return fallback
	}
	return int(value)
}

func convertQuestion(item *forms.Item, question *forms.Question) (CanonicalQuestion, error) {
	q := CanonicalQuestion{
		ItemID:      item.ItemId,
		Title:       item.Title,
		Description: item.Description,
		Type:        TypeShortAnswer,
		Required:    question.Required,
	}

	switch {
	case question.TextQuestion != nil:
		q.Type = TypeShortAnswer
		if question.TextQuestion.Paragraph {
			q.Type = TypeParagraph
		}
		q.Placeholder = textPlaceholder
	case question.ChoiceQuestion != nil:
		kind, ok := choiceType(question.ChoiceQuestion.Type)
		if !ok {
			return q, fmt.Errorf("%w: choice type %q", ErrUnsupportedInput, question.ChoiceQuestion.Type)
		}
		q.Type = kind
		q.Options = optionValues(question.ChoiceQuestion.Options)
	case question.ScaleQuestion != nil:
		scale := question.ScaleQuestion
		q.Type = TypeLinearScale
		q.Min = orDefault(scale.Low, defaultScaleLow)
		q.Max = orDefault(scale.High, defaultScaleHigh)
		q.MinLabel = scale.LowLabel
		q.MaxLabel = scale.HighLabel
	case question.RatingQuestion != nil:
		q.Type = TypeStarRating
		q.Max = orDefault(question.RatingQuestion.RatingScaleLevel, defaultRatingHigh)
	case question.DateQuestion != nil:
		q.Type = TypeDate
		if question.DateQuestion.IncludeTime {
			q.Type = TypeDateTime
		}
	case question.TimeQuestion != nil:
		q.Type = TypeTime
		if question.TimeQuestion.Duration {
			q.Type = TypeDuration
		}
	case question.FileUploadQuestion != nil:
		return q, fmt.Errorf("%w: file upload", ErrUnsupportedInput)
	}

	return q, nil
}

func convertGrid(item *forms.Item, group *forms.QuestionGroupItem) (CanonicalQuestion, error) {
	q := CanonicalQuestion{
		ItemID:      item.ItemId,
		Title:       item.Title,
		Description: item.Description,
		Type:        TypeShortAnswer,
	}
	if group.Grid == nil {
		return q, fmt.Errorf("%w: question group without grid", ErrUnsupportedInput)
	}

	q.Type = TypeGridRadio
	q.Rows = []string{}
	q.Columns = []string{}
	if group.Grid.Columns != nil {
		if group.Grid.Columns.Type == "CHECKBOX" {
			q.Type = TypeGridCheckbox
		}
		q.Columns = optionValues(group.Grid.Columns.Options)
	}
	for _, row := range group.Questions {
		if row == nil {
			continue
		}
		if row.Required {
			q.Required = true
		}
		title := ""
		if row.RowQuestion != nil {
			title = row.RowQuestion.Title
		}
		q.Rows = append(q.Rows, title)
	}
	return q, nil
}

// Convert turns the api representation into canonical questions. Items that
// are not questions (page breaks, text, images, videos) are skipped. Question
// kinds the form proxy cannot submit are kept and marked Unsupported.
func Convert(f *forms.Form, tel telemetry.API) Form {
	out := Form{
		ID:    f.FormId,
		Title: defaultFormTitle,
	}
	if f.Info != nil {
		if f.Info.Title != "" {
			out.Title = f.Info.Title
		}
		out.Description = f.Info.Description
	}

	for _, item := range f.Items {
		if item == nil {
			continue
		}

		var (
			q   CanonicalQuestion
			err error
		)
		switch {
		case item.QuestionItem != nil:
			if item.QuestionItem.Question == nil {
				continue
			}
			q, err = convertQuestion(item, item.QuestionItem.Question)
		case item.QuestionGroupItem != nil:
			q, err = convertGrid(item, item.QuestionGroupItem)
		default:
			continue
		}
		if err != nil {
			// kept so reconciliation consumes the item's scraped entry
			tel.ReportWarning(report_convert_item, err, item.ItemId, item.Title)
			q.Unsupported = true
		}
		out.Questions = append(out.Questions, q)
	}

	return out
}
