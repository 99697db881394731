package structure

type QuestionType string

const (
	TypeShortAnswer  QuestionType = "short_answer"
	TypeParagraph    QuestionType = "paragraph"
	TypeRadio        QuestionType = "radio"
	TypeCheckbox     QuestionType = "checkbox"
	TypeDropdown     QuestionType = "dropdown"
	TypeLinearScale  QuestionType = "linear_scale"
	TypeStarRating   QuestionType = "star_rating"
	TypeDate         QuestionType = "date"
	TypeTime         QuestionType = "time"
	TypeDateTime     QuestionType = "datetime"
	TypeDuration     QuestionType = "duration"
	TypeGridRadio    QuestionType = "grid_radio"
	TypeGridCheckbox QuestionType = "grid_checkbox"
)

func (t QuestionType) IsGrid() bool {
	return t == TypeGridRadio || t == TypeGridCheckbox
}

// CanonicalQuestion is a question as the Forms API describes it. The order
// of questions in a Form is the display order.
type CanonicalQuestion struct {
	ItemID      string
	Title       string
	Description string
	Type        QuestionType
	Required    bool
	Options     []string

	// Min and Max are set for linear scales, Max alone for star ratings.
	Min      int
	Max      int
	MinLabel string
	MaxLabel string

	// Rows and Columns are set for grids.
	Rows    []string
	Columns []string

	Placeholder string

	// Unsupported marks items the proxy cannot collect answers for, like
	// file uploads. They are never displayed but still occupy their title's
	// position on the published page.
	Unsupported bool
}

func (q CanonicalQuestion) IsGrid() bool {
	return q.Type.IsGrid()
}

type Form struct {
	ID          string
	Title       string
	Description string
	Questions   []CanonicalQuestion
}
