package suggestions

import (
	"regexp"
	"strings"
)

// QueryKind tags the parsed shape of a suggestion lookup string
type QueryKind int

const (
	QueryInvalid QueryKind = iota
	QueryByID
	QueryByShortID
	QueryByMessageID
	QueryByLink
)

// Query is a parsed lookup key. For QueryByLink the value is the message id
// extracted from the permalink.
type Query struct {
	Kind  QueryKind
	Value string
}

var (
	longIDPattern    = regexp.MustCompile(`^[0-9a-f]{40}$`)
	shortIDPattern   = regexp.MustCompile(`^[0-9a-fA-F]{7}$`)
	messageIDPattern = regexp.MustCompile(`^\d{17,19}$`)
	linkPattern      = regexp.MustCompile(`discord(?:app)?\.com/channels/\d+/\d+/(\d{17,19})`)
)

// ParseQuery classifies a raw lookup string once so callers never repeat the
// shape detection. Exactly one shape can match a given input.
func ParseQuery(raw string) Query {
	raw = strings.TrimSpace(raw)

	switch {
	case longIDPattern.MatchString(strings.ToLower(raw)):
		return Query{Kind: QueryByID, Value: strings.ToLower(raw)}
	case messageIDPattern.MatchString(raw):
		return Query{Kind: QueryByMessageID, Value: raw}
	case shortIDPattern.MatchString(raw):
		return Query{Kind: QueryByShortID, Value: strings.ToLower(raw)}
	default:
		if m := linkPattern.FindStringSubmatch(raw); m != nil {
			return Query{Kind: QueryByLink, Value: m[1]}
		}
		return Query{Kind: QueryInvalid}
	}
}
