package payload

import "regexp"

var (
	dateRegex     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	timeRegex     = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
	dateTimeRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[T ](\d{2}):(\d{2})(?::(\d{2}))?$`)
)

func parseDate(s string) (DatePart, bool) {
	groups := dateRegex.FindStringSubmatch(s)
	if groups == nil {
		return DatePart{}, false
	}
	return DatePart{Year: groups[1], Month: groups[2], Day: groups[3]}, true
}

func parseTime(s string) (TimePart, bool) {
	groups := timeRegex.FindStringSubmatch(s)
	if groups == nil {
		return TimePart{}, false
	}
	return TimePart{Hour: groups[1], Minute: groups[2], Second: groups[3]}, true
}

func parseDateTime(s string) (Temporal, bool) {
	groups := dateTimeRegex.FindStringSubmatch(s)
	if groups == nil {
		return Temporal{}, false
	}
	return Temporal{
		Date: &DatePart{Year: groups[1], Month: groups[2], Day: groups[3]},
		Time: &TimePart{Hour: groups[4], Minute: groups[5], Second: groups[6]},
	}, true
}

// parseTemporal recognizes the string forms of dates and times.
func parseTemporal(s string) (Temporal, bool) {
	if date, ok := parseDate(s); ok {
		return Temporal{Date: &date}, true
	}
	if clock, ok := parseTime(s); ok {
		return Temporal{Time: &clock}, true
	}
	return parseDateTime(s)
}
