// Package ranking orders keyword hits so that files declaring the queried id
// come before files that merely mention it.
package ranking

// MatchType is how well a query matched a candidate's ids or names.
type MatchType int

const (
	// MatchTypeNone indicates no id or name matched.
	MatchTypeNone MatchType = iota
	// MatchTypePartial indicates some query terms occur inside an id or name.
	MatchTypePartial
	// MatchTypePrefix indicates a query term is a prefix of an id or name word.
	MatchTypePrefix
	// MatchTypeAllWords indicates every query term occurs in one id or name.
	MatchTypeAllWords
	// MatchTypeExact indicates the query equals a declared id.
	MatchTypeExact
)

// String returns a string representation of the match type.
func (m MatchType) String() string {
	switch m {
	case MatchTypeNone:
		return "none"
	case MatchTypePartial:
		return "partial"
	case MatchTypePrefix:
		return "prefix"
	case MatchTypeAllWords:
		return "all_words"
	case MatchTypeExact:
		return "exact"
	default:
		return "unknown"
	}
}

// Candidate is one keyword hit joined with the metadata it was indexed from.
type Candidate struct {
	URI          string
	IDs          []string
	Names        []string
	KeywordScore float64
}

// Ranked is a candidate with its final score.
type Ranked struct {
	Candidate
	Score float64
	Match MatchType
}
