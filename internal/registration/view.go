package registration

import (
	"eventreg-backend/internal/gforms/reconcile"
	"eventreg-backend/internal/gforms/structure"
)

type RowView struct {
	ID      string `json:"id"`
	EntryID string `json:"entryId,omitempty"`
	Label   string `json:"label"`
}

type QuestionView struct {
	ID          string    `json:"id"`
	EntryID     string    `json:"entryId,omitempty"`
	Type        string    `json:"type"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Min         *int      `json:"min,omitempty"`
	Max         *int      `json:"max,omitempty"`
	MinLabel    string    `json:"minLabel,omitempty"`
	MaxLabel    string    `json:"maxLabel,omitempty"`
	Rows        []RowView `json:"rows,omitempty"`
	Columns     []string  `json:"columns,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// FormView is what the form UI renders. It is immutable once built and
// safe to share between requests.
type FormView struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []QuestionView `json:"questions"`
}

func intPtr(n int) *int {
	return &n
}

func questionView(q reconcile.Question) QuestionView {
	out := QuestionView{
		ID:          q.ID,
		EntryID:     q.EntryID,
		Type:        string(q.Type),
		Label:       q.Title,
		Description: q.Description,
		Required:    q.Required,
		Options:     q.Options,
		MinLabel:    q.MinLabel,
		MaxLabel:    q.MaxLabel,
		Columns:     q.Columns,
		Placeholder: q.Placeholder,
	}
	switch q.Type {
	case structure.TypeLinearScale:
		out.Min = intPtr(q.Min)
		out.Max = intPtr(q.Max)
	case structure.TypeStarRating:
		out.Max = intPtr(q.Max)
	}
	if q.IsGrid() {
		out.Rows = make([]RowView, 0, len(q.Rows))
		for _, row := range q.Rows {
			out.Rows = append(out.Rows, RowView{
				ID:      row.ID,
				EntryID: row.EntryID,
				Label:   row.Label,
			})
		}
	}
	return out
}

func buildView(form structure.Form, questions []reconcile.Question) FormView {
	view := FormView{
		Title:       form.Title,
		Description: form.Description,
		Questions:   make([]QuestionView, 0, len(questions)),
	}
	for _, q := range questions {
		if q.Unsupported {
			continue
		}
		view.Questions = append(view.Questions, questionView(q))
	}
	return view
}
