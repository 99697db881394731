package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidAnswer = errors.New("invalid answer")

type AnswerKind int

const (
	// AnswerNone is a null or empty answer, it contributes nothing.
	AnswerNone AnswerKind = iota
	AnswerScalar
	AnswerList
	AnswerTemporal
	AnswerGrid
)

type DatePart struct {
	Year  string
	Month string
	Day   string
}

type TimePart struct {
	Hour   string
	Minute string
	// Second is only sent when set.
	Second string
}

type Temporal struct {
	Date *DatePart
	Time *TimePart
	// Duration always sends seconds, defaulting to 0.
	Duration *TimePart
}

type GridCell struct {
	RowID  string
	Values []string
}

// Answer is a single value collected by the form UI.
type Answer struct {
	Kind     AnswerKind
	Scalar   string
	List     []string
	Temporal Temporal
	// Grid is ordered by row identifier.
	Grid []GridCell
}

func Text(value string) Answer {
	if value == "" {
		return Answer{}
	}
	return Answer{Kind: AnswerScalar, Scalar: value}
}

func List(values ...string) Answer {
	return Answer{Kind: AnswerList, List: values}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAnswer, fmt.Sprintf(format, args...))
}

func decode(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	err := dec.Decode(&value)
	return value, err
}

// scalarString renders a json scalar, reporting false for null, empty
// strings and non scalars.
func scalarString(value any) (string, bool, error) {
	switch v := value.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, v != "", nil
	case json.Number:
		return v.String(), true, nil
	case bool:
		if v {
			return "true", true, nil
		}
		return "false", true, nil
	}
	return "", false, invalid("expected a scalar, got %T", value)
}

func scalarList(value any) ([]string, error) {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, element := range v {
			s, ok, err := scalarString(element)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		s, ok, err := scalarString(v)
		if err != nil || !ok {
			return nil, err
		}
		return []string{s}, nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	value, err := decode(data)
	if err != nil {
		return invalid("%v", err)
	}

	switch v := value.(type) {
	case []any:
		list, err := scalarList(v)
		if err != nil {
			return err
		}
		*a = Answer{}
		if len(list) > 0 {
			*a = Answer{Kind: AnswerList, List: list}
		}
		return nil
	case map[string]any:
		return a.fromObject(v)
	}

	s, ok, err := scalarString(value)
	if err != nil {
		return err
	}
	*a = Answer{}
	if ok {
		*a = Answer{Kind: AnswerScalar, Scalar: s}
	}
	return nil
}

func isTemporalObject(obj map[string]any) bool {
	_, date := obj["date"]
	_, year := obj["year"]
	_, clock := obj["time"]
	_, hours := obj["hours"]
	_, minutes := obj["minutes"]
	return date || year || clock || (hours && minutes)
}

func (a *Answer) fromObject(obj map[string]any) error {
	if isTemporalObject(obj) {
		temporal, err := temporalFromObject(obj)
		if err != nil {
			return err
		}
		*a = Answer{Kind: AnswerTemporal, Temporal: temporal}
		return nil
	}

	rows := make([]string, 0, len(obj))
	for row := range obj {
		rows = append(rows, row)
	}
	sort.Strings(rows)

	cells := make([]GridCell, 0, len(rows))
	for _, row := range rows {
		values, err := scalarList(obj[row])
		if err != nil {
			return fmt.Errorf("grid row %q: %w", row, err)
		}
		if len(values) == 0 {
			continue
		}
		cells = append(cells, GridCell{RowID: row, Values: values})
	}
	*a = Answer{}
	if len(cells) > 0 {
		*a = Answer{Kind: AnswerGrid, Grid: cells}
	}
	return nil
}

func field(obj map[string]any, key string) (string, error) {
	s, _, err := scalarString(obj[key])
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}

func temporalFromObject(obj map[string]any) (Temporal, error) {
	var out Temporal

	if _, ok := obj["date"]; ok {
		s, err := field(obj, "date")
		if err != nil {
			return Temporal{}, err
		}
		if s != "" {
			date, ok := parseDate(s)
			if !ok {
				return Temporal{}, invalid("date %q is not YYYY-MM-DD", s)
			}
			out.Date = &date
		}
	} else if _, ok := obj["year"]; ok {
		var date DatePart
		var err error
		if date.Year, err = field(obj, "year"); err != nil {
			return Temporal{}, err
		}
		if date.Month, err = field(obj, "month"); err != nil {
			return Temporal{}, err
		}
		if date.Day, err = field(obj, "day"); err != nil {
			return Temporal{}, err
		}
		out.Date = &date
	}

	if _, ok := obj["time"]; ok {
		s, err := field(obj, "time")
		if err != nil {
			return Temporal{}, err
		}
		if s != "" {
			clock, ok := parseTime(s)
			if !ok {
				return Temporal{}, invalid("time %q is not HH:MM", s)
			}
			out.Time = &clock
		}
	}

	if _, ok := obj["hours"]; ok {
		var duration TimePart
		var err error
		if duration.Hour, err = field(obj, "hours"); err != nil {
			return Temporal{}, err
		}
		if duration.Minute, err = field(obj, "minutes"); err != nil {
			return Temporal{}, err
		}
		if duration.Second, err = field(obj, "seconds"); err != nil {
			return Temporal{}, err
		}
		if duration.Hour == "" {
			duration.Hour = "0"
		}
		if duration.Minute == "" {
			duration.Minute = "0"
		}
		if duration.Second == "" {
			duration.Second = "0"
		}
		out.Duration = &duration
	}

	return out, nil
}

// MarshalJSON writes the answer back in the shape the UI sends, it is used
// by the CLI to print answers collected in the terminal.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerScalar:
		return json.Marshal(a.Scalar)
	case AnswerList:
		return json.Marshal(a.List)
	case AnswerGrid:
		obj := make(map[string][]string, len(a.Grid))
		for _, cell := range a.Grid {
			obj[cell.RowID] = cell.Values
		}
		return json.Marshal(obj)
	case AnswerTemporal:
		obj := map[string]string{}
		t := a.Temporal
		if t.Date != nil {
			obj["date"] = strings.Join([]string{t.Date.Year, t.Date.Month, t.Date.Day}, "-")
		}
		if t.Time != nil {
			obj["time"] = t.Time.Hour + ":" + t.Time.Minute
		}
		if t.Duration != nil {
			obj["hours"] = t.Duration.Hour
			obj["minutes"] = t.Duration.Minute
			obj["seconds"] = t.Duration.Second
		}
		return json.Marshal(obj)
	}
	return []byte("null"), nil
}
