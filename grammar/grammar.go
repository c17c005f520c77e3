// Package grammar holds the immutable descriptor tables that parameterize
// the lexer, parser and encoder for each PVL dialect. A Grammar never
// mutates after construction and may be shared freely across goroutines.
package grammar

import "fmt"

// Dialect names the rule sets this package knows how to describe.
type Dialect int

const (
	// PVL is the permissive base format (CCSDS 641.0-B-2).
	PVL Dialect = iota
	// ODL is the stricter Object Description Language (PDS3 Ch.12).
	ODL
	// PDS3 is the PDS3 Label Standard, stricter still.
	PDS3
	// ISIS is the de-facto ISIS cube-label dialect.
	ISIS
	// Omni is a superset that parses all of the above. It is a parse-only
	// dialect: there is no corresponding encoder Profile for it.
	Omni
)

func (d Dialect) String() string {
	switch d {
	case PVL:
		return "PVL"
	case ODL:
		return "ODL"
	case PDS3:
		return "PDS3"
	case ISIS:
		return "ISIS"
	case Omni:
		return "Omni"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// CommentPair is an open/close delimiter pair, e.g. {"/*", "*/"}.
// A CommentPair whose Close is empty runs to end of line (ISIS/Omni "#").
type CommentPair struct {
	Open  string
	Close string
}

// Delimiters collects the grammar's structural punctuation.
type Delimiters struct {
	Statement    byte // 0 means "no statement terminator" (ODL/PDS3/ISIS)
	HasStatement bool
	Assign       byte
	SeqOpen      byte
	SeqClose     byte
	SetOpen      byte
	SetClose     byte
	UnitsOpen    byte
	UnitsClose   byte
	Continuation byte // '-' for ISIS/Omni dash-continuation, 0 if unsupported
}

// Grammar is an immutable descriptor of one dialect's lexical and
// syntactic rules. Default values throughout match the PVL base dialect
// unless a field comment says otherwise.
type Grammar struct {
	Dialect Dialect

	// Whitespace is the set of bytes treated as inter-token whitespace.
	Whitespace map[byte]bool

	// ReservedChars may not appear inside an unquoted identifier/symbol.
	ReservedChars map[byte]bool

	Delimiters Delimiters

	// Comments is an ordered list of recognized comment delimiter pairs.
	Comments []CommentPair

	// HashComment is true for ISIS/Omni, whose Comments list also holds a
	// '#' pair running to end of line. The lexer reads Comments, so such a
	// '#' starts a comment wherever a token could start, not only at the
	// beginning of a line.
	HashComment bool

	// Quotes lists the bytes usable as string quote characters.
	Quotes []byte

	// AllowBackslashEscape permits \" inside quoted strings.
	AllowBackslashEscape bool
	// AllowDoubledQuoteEscape permits "" inside a "..."-quoted string to
	// mean a literal quote.
	AllowDoubledQuoteEscape bool

	// AggregationKeywords maps a begin keyword (lowercased) to its matching
	// end keyword (lowercased). Both OBJECT/END_OBJECT and
	// BEGIN_OBJECT/END_OBJECT style pairs may be present simultaneously;
	// the lexer/parser compare case-insensitively when CaseSensitiveKeywords
	// is false.
	AggregationKeywords map[string]string

	// ReservedKeywords are keywords with syntactic meaning: "end" plus all
	// begin/end keywords from AggregationKeywords.
	ReservedKeywords map[string]bool

	// Booleans maps a literal (lowercased) to its truth value.
	Booleans map[string]bool

	// AllowPlusUnquoted permits a leading/standalone '+' outside of numeric
	// literals to appear in unquoted tokens (required by some ISIS keys).
	AllowPlusUnquoted bool

	// AllowNulAsReserved is true for Omni, whose ReservedChars includes
	// ASCII NUL so producers that (mis)use NUL as a delimiter still parse.
	AllowNulAsReserved bool

	// DefaultTimezoneUTC is true when a dialect assumes UTC for datetimes
	// that carry no explicit zone (PDS3). ODL makes no such assumption:
	// such values are "naive" (timezone-less).
	DefaultTimezoneUTC bool

	// RejectLeapSecond is true for ODL and for PDS3, which inherits it: a
	// seconds field of 60 is an error. PVL/ISIS/Omni tolerate it.
	RejectLeapSecond bool

	// ValidateIdentifiers is true for ODL: symbols/identifiers must match
	// [A-Za-z][A-Za-z0-9_]*.
	ValidateIdentifiers bool

	// CaseSensitiveKeywords is false for every standardized dialect.
	CaseSensitiveKeywords bool

	// Strict is true for PVL/ODL/PDS3: the parser fails on the first
	// deviation rather than recovering. Omni and ISIS recover where this
	// specification admits.
	Strict bool
}

func setOf(bs ...byte) map[byte]bool {
	m := make(map[byte]bool, len(bs))
	for _, b := range bs {
		m[b] = true
	}
	return m
}

func baseAggregationKeywords() map[string]string {
	return map[string]string{
		"object":       "end_object",
		"group":        "end_group",
		"begin_object": "end_object",
		"begin_group":  "end_group",
	}
}

func baseBooleans() map[string]bool {
	return map[string]bool{
		"true":  true,
		"false": false,
	}
}

func reservedFromAggregation(agg map[string]string) map[string]bool {
	r := map[string]bool{"end": true}
	for begin, end := range agg {
		r[begin] = true
		r[end] = true
	}
	return r
}

// NewPVL returns the permissive base dialect grammar (CCSDS 641.0-B-2).
func NewPVL() Grammar {
	agg := baseAggregationKeywords()
	return Grammar{
		Dialect:       PVL,
		Whitespace:    setOf(' ', '\t', '\r', '\n', '\f', '\v'),
		ReservedChars: setOf('=', ';', '(', ')', '{', '}', '<', '>', '"', '\'', '/', '#', '+'),
		Delimiters: Delimiters{
			Statement:    ';',
			HasStatement: true,
			Assign:       '=',
			SeqOpen:      '(',
			SeqClose:     ')',
			SetOpen:      '{',
			SetClose:     '}',
			UnitsOpen:    '<',
			UnitsClose:   '>',
		},
		Comments:                []CommentPair{{Open: "/*", Close: "*/"}},
		Quotes:                  []byte{'"', '\''},
		AllowDoubledQuoteEscape: true,
		AggregationKeywords:     agg,
		ReservedKeywords:        reservedFromAggregation(agg),
		Booleans:                baseBooleans(),
		Strict:                  true,
	}
}

// NewODL returns the Object Description Language grammar (PDS3 Ch.12).
func NewODL() Grammar {
	g := NewPVL()
	g.Dialect = ODL
	g.Delimiters.HasStatement = false
	g.Delimiters.Statement = 0
	g.DefaultTimezoneUTC = false
	g.RejectLeapSecond = true
	g.ValidateIdentifiers = true
	g.AllowDoubledQuoteEscape = false
	g.AllowBackslashEscape = true
	return g
}

// NewPDS3 returns the PDS3 Label Standard grammar, the strictest of the
// four.
func NewPDS3() Grammar {
	g := NewODL()
	g.Dialect = PDS3
	g.DefaultTimezoneUTC = true
	return g
}

// NewISIS returns the de-facto ISIS cube-label dialect grammar.
func NewISIS() Grammar {
	g := NewPVL()
	g.Dialect = ISIS
	g.Delimiters.HasStatement = false
	g.Delimiters.Statement = 0
	g.Delimiters.Continuation = '-'
	g.Comments = append(g.Comments, CommentPair{Open: "#"})
	g.HashComment = true
	g.AllowPlusUnquoted = true
	g.ReservedChars = setOf('=', ';', '(', ')', '{', '}', '<', '>', '"', '\'', '/')
	g.Strict = false
	return g
}

// NewOmni returns the superset grammar used during parsing only: every
// construct any of PVL, ODL, PDS3 or ISIS accept is accepted here, and
// malformed legacy-producer quirks (stray NUL bytes, missing values,
// mixed escaping) are tolerated rather than rejected.
func NewOmni() Grammar {
	g := NewISIS()
	g.Dialect = Omni
	g.Delimiters.HasStatement = true
	g.Delimiters.Statement = ';'
	g.AllowBackslashEscape = true
	g.AllowDoubledQuoteEscape = true
	g.AllowNulAsReserved = true
	g.ReservedChars = setOf('=', ';', '(', ')', '{', '}', '<', '>', '"', '\'', '/', 0x00)
	g.RejectLeapSecond = false
	g.ValidateIdentifiers = false
	g.Strict = false
	return g
}

// For returns the Grammar for a named Dialect.
func For(d Dialect) Grammar {
	switch d {
	case PVL:
		return NewPVL()
	case ODL:
		return NewODL()
	case PDS3:
		return NewPDS3()
	case ISIS:
		return NewISIS()
	case Omni:
		return NewOmni()
	default:
		panic(fmt.Sprintf("grammar: unknown dialect %d", int(d)))
	}
}

// IsReserved reports whether b may not appear unquoted outside of a
// reserved-character boundary.
func (g Grammar) IsReserved(b byte) bool {
	return g.ReservedChars[b]
}

// IsWhitespace reports whether b is inter-token whitespace under g.
func (g Grammar) IsWhitespace(b byte) bool {
	return g.Whitespace[b]
}

// EndKeywordFor returns the end keyword matching a lowercased begin
// keyword, and whether begin is a recognized aggregation-begin keyword.
func (g Grammar) EndKeywordFor(beginLower string) (string, bool) {
	end, ok := g.AggregationKeywords[beginLower]
	return end, ok
}
