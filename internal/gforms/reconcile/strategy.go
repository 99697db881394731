package reconcile

import (
	"strings"

	"eventreg-backend/internal/gforms/entries"

	"github.com/antzucaro/matchr"
)

// MatchReason records which strategy attached a question to a scraped title.
type MatchReason string

const (
	MatchExact                 MatchReason = "exact"
	MatchRequiredMarker        MatchReason = "required_marker"
	MatchTrimmed               MatchReason = "trimmed"
	MatchTrimmedRequiredMarker MatchReason = "trimmed_required_marker"
	MatchNone                  MatchReason = "none"
)

// the published page appends this to titles it displays as required
const requiredMarker = " *"

type candidate struct {
	key    string
	reason MatchReason
}

// strategy proposes scraped titles for a canonical title, in priority order.
type strategy func(m *entries.Map, title string) []candidate

func exactTitle(m *entries.Map, title string) []candidate {
	return []candidate{{key: title, reason: MatchExact}}
}

func markedTitle(m *entries.Map, title string) []candidate {
	return []candidate{{key: title + requiredMarker, reason: MatchRequiredMarker}}
}

// trimmedTitle scans scraped titles in document order, comparing with
// surrounding whitespace removed and also accepting the required marker.
func trimmedTitle(m *entries.Map, title string) []candidate {
	trimmed := strings.TrimSpace(title)
	var out []candidate
	for _, key := range m.Titles() {
		switch strings.TrimSpace(key) {
		case trimmed:
			out = append(out, candidate{key: key, reason: MatchTrimmed})
		case trimmed + requiredMarker:
			out = append(out, candidate{key: key, reason: MatchTrimmedRequiredMarker})
		}
	}
	return out
}

// strategies are tried in this order, the first candidate whose queue still
// holds a compatible entry wins.
var strategies = []strategy{
	exactTitle,
	markedTitle,
	trimmedTitle,
}

func resolveTitle(m *entries.Map, title string, compatible func(entries.Entry) bool) (candidate, bool) {
	for _, s := range strategies {
		for _, c := range s(m, title) {
			if m.Peek(c.key, compatible) {
				return c, true
			}
		}
	}
	return candidate{reason: MatchNone}, false
}

// nearestTitle finds the scraped title with remaining entries that is most
// similar to title, it only feeds diagnostics and never resolves anything.
func nearestTitle(m *entries.Map, title string) (string, float64) {
	var (
		best           string
		bestSimilarity float64
	)
	for _, key := range m.Titles() {
		if len(m.Queue(key)) == 0 {
			continue
		}
		similarity := matchr.JaroWinkler(title, key, false)
		if similarity > bestSimilarity {
			best = key
			bestSimilarity = similarity
		}
	}
	return best, bestSimilarity
}
