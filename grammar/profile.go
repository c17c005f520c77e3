package grammar

// ParamCase controls how the encoder cases a parameter (assignment) key.
type ParamCase int

const (
	// CasePreserve leaves the key exactly as stored in the label tree.
	CasePreserve ParamCase = iota
	// CaseUpper uppercases the key (PDS3 parameter names).
	CaseUpper
)

// QuoteEscape controls how the encoder escapes a quote character that
// appears inside a string value being written in double quotes.
type QuoteEscape int

const (
	// EscapeDoubled emits "" for an embedded quote (PVL).
	EscapeDoubled QuoteEscape = iota
	// EscapeBackslash emits \" for an embedded quote (ODL/PDS3).
	EscapeBackslash
)

// Profile controls what the encoder is willing to emit for a dialect.
// Unlike Grammar, which governs what the lexer/parser accept, Profile
// governs validity and formatting on the way out; Omni has no Profile
// because nothing is ever encoded as Omni.
type Profile struct {
	Dialect Dialect

	// StatementDelimiter is appended after each assignment/begin/end
	// statement, e.g. ';' for PVL. Empty for ODL/PDS3/ISIS.
	StatementDelimiter string

	// BeginObjectKeyword/EndObjectKeyword/BeginGroupKeyword/EndGroupKeyword
	// are the literal keywords written for aggregation blocks, in the
	// dialect's canonical case.
	BeginObjectKeyword string
	EndObjectKeyword   string
	BeginGroupKeyword  string
	EndGroupKeyword    string

	// ParameterCase controls assignment-key casing. Block/aggregation
	// names are always preserved as stored, regardless of this setting.
	ParameterCase ParamCase

	// IndentWidth is the number of spaces added per nesting level.
	IndentWidth int

	// AlignAssignments, when true, pads '=' signs within one block to the
	// column of the block's longest key.
	AlignAssignments bool

	// LineWidth is the soft wrap column; 0 means unbounded. PDS3 uses 80.
	LineWidth int

	// TrailingBlankLineAfterEnd appends one extra newline after the
	// trailing END statement (PDS3).
	TrailingBlankLineAfterEnd bool

	// QuoteEscape selects how embedded quote characters are escaped.
	QuoteEscape QuoteEscape

	// SetScalarsOnly restricts Set values to integers and symbols (PDS3);
	// a Set containing a Real is an EncodeError.
	SetScalarsOnly bool

	// DatetimeUTCOnly requires every Time/DateTime value carry a UTC zone
	// (PDS3); any other zone, or a naive value, is an EncodeError. Date
	// values carry no zone and are not checked.
	DatetimeUTCOnly bool

	// DatetimeMaxFractionDigits bounds sub-second precision; 3 means
	// millisecond precision is the maximum (PDS3), 0 means unbounded. A
	// value needing more digits is an EncodeError.
	DatetimeMaxFractionDigits int

	// SupportsDashContinuation is true when the encoder may (but need not)
	// wrap a long unquoted string using ISIS-style dash continuation.
	SupportsDashContinuation bool
}

// ProfileFor returns the encoder Profile for a named Dialect. It panics
// for Omni, which has no encoding profile.
func ProfileFor(d Dialect) Profile {
	switch d {
	case PVL:
		return Profile{
			Dialect:            PVL,
			StatementDelimiter: ";",
			BeginObjectKeyword: "BEGIN_OBJECT",
			EndObjectKeyword:   "END_OBJECT",
			BeginGroupKeyword:  "BEGIN_GROUP",
			EndGroupKeyword:    "END_GROUP",
			ParameterCase:      CasePreserve,
			IndentWidth:        2,
			AlignAssignments:   true,
			QuoteEscape:        EscapeDoubled,
		}
	case ODL:
		return Profile{
			Dialect:            ODL,
			BeginObjectKeyword: "OBJECT",
			EndObjectKeyword:   "END_OBJECT",
			BeginGroupKeyword:  "GROUP",
			EndGroupKeyword:    "END_GROUP",
			ParameterCase:      CasePreserve,
			IndentWidth:        2,
			AlignAssignments:   true,
			QuoteEscape:        EscapeBackslash,
		}
	case PDS3:
		return Profile{
			Dialect:                   PDS3,
			BeginObjectKeyword:        "OBJECT",
			EndObjectKeyword:          "END_OBJECT",
			BeginGroupKeyword:         "GROUP",
			EndGroupKeyword:           "END_GROUP",
			ParameterCase:             CaseUpper,
			IndentWidth:               2,
			AlignAssignments:          true,
			LineWidth:                 80,
			TrailingBlankLineAfterEnd: true,
			QuoteEscape:               EscapeBackslash,
			SetScalarsOnly:            true,
			DatetimeUTCOnly:           true,
			DatetimeMaxFractionDigits: 3,
		}
	case ISIS:
		return Profile{
			Dialect:                  ISIS,
			BeginObjectKeyword:       "Object",
			EndObjectKeyword:         "End_Object",
			BeginGroupKeyword:        "Group",
			EndGroupKeyword:          "End_Group",
			ParameterCase:            CasePreserve,
			IndentWidth:              2,
			AlignAssignments:         true,
			QuoteEscape:              EscapeDoubled,
			SupportsDashContinuation: true,
		}
	default:
		panic("grammar: dialect " + d.String() + " has no encoder Profile")
	}
}
