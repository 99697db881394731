package entries

// Kind is the coarse question kind the published form declares for an item.
type Kind string

const (
	KindShortAnswer Kind = "short_answer"
	KindParagraph   Kind = "paragraph"
	KindRadio       Kind = "radio"
	KindDropdown    Kind = "dropdown"
	KindCheckbox    Kind = "checkbox"
	KindScale       Kind = "linear_scale"
	KindGrid        Kind = "grid"
	KindDate        Kind = "date"
	KindTime        Kind = "time"
	KindRating      Kind = "star_rating"
	KindUnknown     Kind = "unknown"
)

// KindFromTypeCode maps the item type code (item[3] of the embedded data).
func KindFromTypeCode(code int) Kind {
	switch code {
	case 0:
		return KindShortAnswer
	case 1:
		return KindParagraph
	case 2:
		return KindRadio
	case 3:
		return KindDropdown
	case 4:
		return KindCheckbox
	case 5:
		return KindScale
	case 7:
		return KindGrid
	case 9:
		return KindDate
	case 10:
		return KindTime
	case 18:
		return KindRating
	}
	return KindUnknown
}

// Field describes a scraped identifier, Row is set for grid rows.
type Field struct {
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
	Row   string `json:"row,omitempty"`
}

// Index is identifier -> field for every identifier seen on the page.
type Index map[string]Field

func (ix Index) Lookup(id string) (Field, bool) {
	f, ok := ix[id]
	return f, ok
}

// IsTemporal reports whether values for the field are split into date/time
// components on submission.
func (f Field) IsTemporal() bool {
	return f.Kind == KindDate || f.Kind == KindTime
}
