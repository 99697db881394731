package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"eventreg-backend/internal/components/htmlutil"
	"eventreg-backend/internal/gforms/entries"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrPayloadNotFound  = errors.New("FB_PUBLIC_LOAD_DATA_ not found")
	ErrPayloadMalformed = errors.New("malformed FB_PUBLIC_LOAD_DATA_")
)

const payloadVariable = "FB_PUBLIC_LOAD_DATA_"

var scriptPayloadRegex = regexp.MustCompile(`(?s)var FB_PUBLIC_LOAD_DATA_\s*=\s*(.*?);?\s*$`)

// the payload can span multiple lines
var documentPayloadRegex = regexp.MustCompile(`(?s)var FB_PUBLIC_LOAD_DATA_ = (.*?);</script>`)

var fbzxRegex = regexp.MustCompile(`name="fbzx"\s+value="([^"]+)"`)

var digitsRegex = regexp.MustCompile(`^[0-9]+$`)

// extractPayload returns the json text assigned to FB_PUBLIC_LOAD_DATA_, or
// "" when the page does not carry one.
func extractPayload(doc *goquery.Document, rawHtml string) string {
	if doc != nil {
		for _, text := range htmlutil.ScriptTexts(doc) {
			if !strings.Contains(text, payloadVariable) {
				continue
			}
			groups := scriptPayloadRegex.FindStringSubmatch(text)
			if len(groups) < 2 {
				continue
			}
			return strings.TrimSpace(groups[1])
		}
	}
	groups := documentPayloadRegex.FindStringSubmatch(rawHtml)
	if len(groups) < 2 {
		return ""
	}
	return strings.TrimSpace(groups[1])
}

// extractToken returns the fbzx anti-forgery token of the page.
func extractToken(doc *goquery.Document, rawHtml string) string {
	if doc != nil {
		token := doc.Find(`input[name="fbzx"]`).AttrOr("value", "")
		if token != "" {
			return token
		}
	}
	groups := fbzxRegex.FindStringSubmatch(rawHtml)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

// Result is what a page's embedded data says about its submission fields.
type Result struct {
	Entries *entries.Map
	Index   entries.Index
	// Items is the number of item descriptors found, including items
	// without submission fields like section headers.
	Items int
}

func emptyResult() Result {
	return Result{Entries: entries.NewMap(), Index: entries.Index{}}
}

func decodePayload(raw string) ([]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	// identifiers are up to 10 digits, keep them exact
	dec.UseNumber()
	var data []any
	err := dec.Decode(&data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadMalformed, err)
	}
	return data, nil
}

func at(value any, i int) any {
	list, ok := value.([]any)
	if !ok || i < 0 || i >= len(list) {
		return nil
	}
	return list[i]
}

func itemDescriptors(data []any) ([]any, error) {
	items, ok := at(at(data, 1), 1).([]any)
	if !ok {
		return nil, fmt.Errorf("%w: data[1][1] is not an array", ErrPayloadMalformed)
	}
	return items, nil
}

// numericID accepts json numbers and numeric strings.
func numericID(value any) (string, bool) {
	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = v
	default:
		return "", false
	}
	if !digitsRegex.MatchString(text) || strings.Trim(text, "0") == "" {
		return "", false
	}
	return text, true
}

func typeCode(value any) int {
	n, ok := value.(json.Number)
	if !ok {
		return -1
	}
	code, err := n.Int64()
	if err != nil {
		return -1
	}
	return int(code)
}

// gridRows returns the rows of answerData shaped like
// [identifier, columns, required, [rowLabel, ...], ...], rows of any other
// shape are skipped.
func gridRows(answerData []any) []entries.Row {
	var rows []entries.Row
	for _, row := range answerData {
		cells, ok := row.([]any)
		if !ok || len(cells) < 4 {
			continue
		}
		labels, ok := cells[3].([]any)
		if !ok || len(labels) == 0 {
			continue
		}
		label, ok := labels[0].(string)
		if !ok || label == "" {
			continue
		}
		id, ok := numericID(cells[0])
		if !ok {
			continue
		}
		rows = append(rows, entries.Row{Label: label, ID: id})
	}
	return rows
}

// Parse reads the embedded payload into an entry map and index.
//
// For each item, item[1] is the title, item[3] the type code and item[4] the
// answer metadata. A numeric item[4][0][0] is a simple identifier.
// Independently, when item[4] holds several rows (or the item is a grid)
// every row shaped like a grid row contributes to one row-map for the item.
func Parse(raw string) (Result, error) {
	data, err := decodePayload(raw)
	if err != nil {
		return emptyResult(), err
	}
	items, err := itemDescriptors(data)
	if err != nil {
		return emptyResult(), err
	}

	result := emptyResult()
	result.Items = len(items)
	for _, item := range items {
		title, ok := at(item, 1).(string)
		if !ok {
			continue
		}
		kind := entries.KindFromTypeCode(typeCode(at(item, 3)))
		answerData, _ := at(item, 4).([]any)

		if id, ok := numericID(at(at(answerData, 0), 0)); ok {
			result.Entries.Append(title, entries.Simple(id))
			result.Index[id] = entries.Field{Title: title, Kind: kind}
		}

		if len(answerData) > 1 || kind == entries.KindGrid {
			rows := gridRows(answerData)
			if len(rows) == 0 {
				continue
			}
			result.Entries.Append(title, entries.Grid(rows...))
			for _, row := range rows {
				result.Index[row.ID] = entries.Field{
					Title: title,
					Kind:  entries.KindGrid,
					Row:   row.Label,
				}
			}
		}
	}

	return result, nil
}

// RawItem returns the raw descriptor of the first item titled title, this
// is only meant for debugging grids whose rows do not resolve.
func RawItem(raw string, title string) (json.RawMessage, error) {
	data, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	items, err := itemDescriptors(data)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if at(item, 1) != title {
			continue
		}
		return json.Marshal(item)
	}
	return nil, nil
}
