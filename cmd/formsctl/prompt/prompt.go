// Package prompt renders reconciled questions as a terminal form.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"eventreg-backend/internal/gforms/payload"
	"eventreg-backend/internal/gforms/reconcile"
	"eventreg-backend/internal/gforms/structure"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

var errRequired = errors.New("an answer is required")

var durationRegex = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)

// binding is where the value of one field ends up. row is set for the
// rows of a grid, every row of a grid shares key.
type binding struct {
	key  string
	row  string
	text *string
	list *[]string
}

type Form struct {
	questions []reconcile.Question
	groups    []*huh.Group
	bindings  []binding
}

func requiredText(required bool) func(string) error {
	return func(s string) error {
		if required && strings.TrimSpace(s) == "" {
			return errRequired
		}
		return nil
	}
}

func layoutValidator(layout, hint string, required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return requiredText(required)(s)
		}
		if _, err := time.Parse(layout, s); err != nil {
			return fmt.Errorf("expected %s", hint)
		}
		return nil
	}
}

func choiceOptions(values []string, required bool) []huh.Option[string] {
	var options []huh.Option[string]
	if !required {
		options = append(options, huh.NewOption("(skip)", ""))
	}
	return append(options, huh.NewOptions(values...)...)
}

func scaleValues(q reconcile.Question) []string {
	low, high := q.Min, q.Max
	if q.Type == structure.TypeStarRating {
		low = 1
	}
	var out []string
	for i := low; i <= high; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func description(q reconcile.Question) string {
	parts := []string{}
	if q.Description != "" {
		parts = append(parts, q.Description)
	}
	if q.MinLabel != "" || q.MaxLabel != "" {
		parts = append(parts, fmt.Sprintf("%d = %s, %d = %s", q.Min, q.MinLabel, q.Max, q.MaxLabel))
	}
	if q.Fallback {
		parts = append(parts, "this question could not be matched to the live form")
	}
	return strings.Join(parts, "\n")
}

func (f *Form) bindText(key, row string) *string {
	value := new(string)
	f.bindings = append(f.bindings, binding{key: key, row: row, text: value})
	return value
}

func (f *Form) bindList(key, row string) *[]string {
	value := new([]string)
	f.bindings = append(f.bindings, binding{key: key, row: row, list: value})
	return value
}

func (f *Form) fields(q reconcile.Question) []huh.Field {
	title := q.Title
	if q.Required {
		title += " *"
	}
	desc := description(q)

	switch q.Type {
	case structure.TypeParagraph:
		return []huh.Field{huh.NewText().Title(title).Description(desc).
			Placeholder(q.Placeholder).Value(f.bindText(q.ID, "")).Validate(requiredText(q.Required))}
	case structure.TypeRadio, structure.TypeDropdown:
		return []huh.Field{huh.NewSelect[string]().Title(title).Description(desc).
			Options(choiceOptions(q.Options, q.Required)...).Value(f.bindText(q.ID, ""))}
	case structure.TypeCheckbox:
		return []huh.Field{huh.NewMultiSelect[string]().Title(title).Description(desc).
			Options(huh.NewOptions(q.Options...)...).Value(f.bindList(q.ID, "")).
			Validate(func(values []string) error {
				if q.Required && len(values) == 0 {
					return errRequired
				}
				return nil
			})}
	case structure.TypeLinearScale, structure.TypeStarRating:
		return []huh.Field{huh.NewSelect[string]().Title(title).Description(desc).
			Options(choiceOptions(scaleValues(q), q.Required)...).Value(f.bindText(q.ID, ""))}
	case structure.TypeDate:
		return []huh.Field{huh.NewInput().Title(title).Description(desc).Placeholder("YYYY-MM-DD").
			Value(f.bindText(q.ID, "")).Validate(layoutValidator("2006-01-02", "YYYY-MM-DD", q.Required))}
	case structure.TypeTime:
		return []huh.Field{huh.NewInput().Title(title).Description(desc).Placeholder("HH:MM").
			Value(f.bindText(q.ID, "")).Validate(layoutValidator("15:04", "HH:MM", q.Required))}
	case structure.TypeDateTime:
		return []huh.Field{huh.NewInput().Title(title).Description(desc).Placeholder("YYYY-MM-DD HH:MM").
			Value(f.bindText(q.ID, "")).Validate(layoutValidator("2006-01-02 15:04", "YYYY-MM-DD HH:MM", q.Required))}
	case structure.TypeDuration:
		return []huh.Field{huh.NewInput().Title(title).Description(desc).Placeholder("HH:MM:SS").
			Value(f.bindText(q.ID, "")).Validate(func(s string) error {
				s = strings.TrimSpace(s)
				if s == "" {
					return requiredText(q.Required)(s)
				}
				if !durationRegex.MatchString(s) {
					return fmt.Errorf("expected HH:MM:SS")
				}
				return nil
			})}
	case structure.TypeGridRadio, structure.TypeGridCheckbox:
		fields := make([]huh.Field, 0, len(q.Rows))
		for _, row := range q.Rows {
			rowTitle := fmt.Sprintf("%s: %s", title, row.Label)
			if q.Type == structure.TypeGridCheckbox {
				fields = append(fields, huh.NewMultiSelect[string]().Title(rowTitle).
					Options(huh.NewOptions(q.Columns...)...).Value(f.bindList(q.ID, row.ID)))
				continue
			}
			fields = append(fields, huh.NewSelect[string]().Title(rowTitle).
				Options(choiceOptions(q.Columns, q.Required)...).Value(f.bindText(q.ID, row.ID)))
		}
		return fields
	}

	return []huh.Field{huh.NewInput().Title(title).Description(desc).Placeholder(q.Placeholder).
		Value(f.bindText(q.ID, "")).Validate(requiredText(q.Required))}
}

// Build lays out one group per question in display order.
func Build(questions []reconcile.Question) *Form {
	f := &Form{questions: questions}
	for _, q := range questions {
		if q.Unsupported {
			continue
		}
		fields := f.fields(q)
		if len(fields) == 0 {
			continue
		}
		f.groups = append(f.groups, huh.NewGroup(fields...))
	}
	return f
}

// Run asks every question, accessible mode is used when in is not a
// terminal.
func (f *Form) Run(in io.Reader, out io.Writer) (map[string]payload.Answer, error) {
	if len(f.groups) == 0 {
		return map[string]payload.Answer{}, nil
	}

	form := huh.NewForm(f.groups...).
		WithInput(in).
		WithOutput(out)
	if file, ok := in.(*os.File); !ok || !term.IsTerminal(int(file.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("fill form: %w", err)
	}
	return f.Answers(), nil
}

// Answers collects the bound values keyed the same way the form UI keys its
// responses: simple questions by id, grids by question id with row ids
// inside.
func (f *Form) Answers() map[string]payload.Answer {
	out := map[string]payload.Answer{}
	for _, b := range f.bindings {
		var values []string
		switch {
		case b.text != nil && strings.TrimSpace(*b.text) != "":
			values = []string{strings.TrimSpace(*b.text)}
		case b.list != nil && len(*b.list) > 0:
			values = *b.list
		}
		if len(values) == 0 {
			continue
		}

		if b.row != "" {
			answer := out[b.key]
			answer.Kind = payload.AnswerGrid
			answer.Grid = append(answer.Grid, payload.GridCell{RowID: b.row, Values: values})
			out[b.key] = answer
			continue
		}
		if b.list != nil {
			out[b.key] = payload.List(values...)
			continue
		}
		out[b.key] = payload.Text(values[0])
	}
	return out
}
