// Package payload encodes collected answers into the urlencoded body the
// formResponse endpoint accepts.
package payload

import (
	"fmt"
	"net/url"
	"sort"

	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/gforms/entries"
)

const (
	report_payload_pattern_fallback = "builder.pattern-fallback"
	report_payload_kind_mismatch    = "builder.kind-mismatch"
)

type Request struct {
	// Answers is keyed by resolved identifier. Grid answers are keyed by
	// anything, their rows carry the identifiers.
	Answers map[string]Answer
	// Index is the identifier index of the scrape the token came from.
	Index entries.Index
	Token string
	Email string
	// Durations lists identifiers known to be duration questions. The page
	// declares durations and times alike, so without this an "HH:MM" string
	// is sent without seconds.
	Durations map[string]bool
}

type Builder struct {
	tel telemetry.API
}

func NewBuilder(tel telemetry.API) Builder {
	assert.NotNil(tel)
	return Builder{tel: telemetry.NewScopedAPI("gforms_payload", tel)}
}

type body struct {
	values url.Values
	seen   map[[2]string]struct{}
}

func (b *body) add(key, value string) {
	k := [2]string{key, value}
	if _, ok := b.seen[k]; ok {
		return
	}
	b.seen[k] = struct{}{}
	b.values.Add(key, value)
}

func (b *body) addTemporal(id string, t Temporal) {
	key := "entry." + id
	if t.Date != nil {
		b.add(key+"_year", t.Date.Year)
		b.add(key+"_month", t.Date.Month)
		b.add(key+"_day", t.Date.Day)
	}
	if t.Time != nil {
		b.add(key+"_hour", t.Time.Hour)
		b.add(key+"_minute", t.Time.Minute)
		if t.Time.Second != "" {
			b.add(key+"_second", t.Time.Second)
		}
	}
	if t.Duration != nil {
		b.add(key+"_hour", t.Duration.Hour)
		b.add(key+"_minute", t.Duration.Minute)
		b.add(key+"_second", t.Duration.Second)
	}
}

// Build encodes every answer. Identical (key, value) pairs are only sent
// once. Keys are processed in sorted order so the body is deterministic.
func (b Builder) Build(req Request) (url.Values, error) {
	out := &body{
		values: url.Values{},
		seen:   map[[2]string]struct{}{},
	}

	ids := make([]string, 0, len(req.Answers))
	for id := range req.Answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := b.encode(out, req, id, req.Answers[id]); err != nil {
			return nil, fmt.Errorf("answer %q: %w", id, err)
		}
	}

	out.values.Set("pageHistory", "0")
	out.values.Set("fvv", "1")
	if req.Token != "" {
		out.values.Set("fbzx", req.Token)
	}
	if req.Email != "" {
		out.values.Set("emailAddress", req.Email)
	}
	return out.values, nil
}

func (b Builder) encode(out *body, req Request, id string, answer Answer) error {
	key := "entry." + id

	switch answer.Kind {
	case AnswerNone:
		return nil
	case AnswerList:
		for _, value := range answer.List {
			out.add(key, value)
		}
		return nil
	case AnswerGrid:
		for _, cell := range answer.Grid {
			for _, value := range cell.Values {
				out.add("entry."+cell.RowID, value)
			}
		}
		return nil
	case AnswerTemporal:
		out.addTemporal(id, answer.Temporal)
		return nil
	case AnswerScalar:
		return b.encodeScalar(out, req, id, answer.Scalar)
	}
	return invalid("unknown answer kind %d", answer.Kind)
}

// encodeScalar splits date and time strings for fields the page declares
// as dates or times. Identifiers the page does not know fall back to
// recognizing the string patterns.
func (b Builder) encodeScalar(out *body, req Request, id, value string) error {
	key := "entry." + id

	field, known := req.Index.Lookup(id)
	if known && !field.IsTemporal() {
		out.add(key, value)
		return nil
	}

	temporal, ok := parseTemporal(value)
	if !known {
		if ok {
			b.tel.ReportWarning(
				report_payload_pattern_fallback,
				fmt.Sprintf("identifier %s is not on the page, splitting %q by pattern", id, value),
			)
			out.addTemporal(id, temporal)
			return nil
		}
		out.add(key, value)
		return nil
	}

	if !ok {
		return invalid("%q is not a valid %s", value, field.Kind)
	}
	if field.Kind == entries.KindTime && temporal.Date != nil {
		b.tel.ReportWarning(report_payload_kind_mismatch, fmt.Sprintf("date sent for time field %s", id))
	}
	if req.Durations[id] && temporal.Date == nil && temporal.Time != nil {
		duration := *temporal.Time
		if duration.Second == "" {
			duration.Second = "0"
		}
		temporal = Temporal{Duration: &duration}
	}
	out.addTemporal(id, temporal)
	return nil
}
