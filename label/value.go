// Package label implements the in-memory label tree: an order-preserving
// multi-mapping (Module), its aggregation-block subtype (Block), and the
// tagged union of scalar/collection Value variants a parameter may hold.
package label

import (
	"fmt"

	"github.com/golang-sql/civil"
)

// Kind tags which Value variant a value holds.
type Kind int

const (
	KindInteger Kind = iota
	KindBasedInteger
	KindReal
	KindString
	KindSymbol
	KindDate
	KindTime
	KindDateTime
	KindSet
	KindSequence
	KindQuantity
	KindEmptyAtLine
	KindBoolean
	KindNull
	KindBlock
)

func (k Kind) String() string {
	names := [...]string{
		"Integer", "BasedInteger", "Real", "String", "Symbol",
		"Date", "Time", "DateTime", "Set", "Sequence", "Quantity",
		"EmptyAtLine", "Boolean", "Null", "Block",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

// Value is the tagged union of everything a parameter may be assigned:
// scalars, dates, collections, quantities and the two sentinel variants
// (EmptyAtLine, Null). Each concrete type below is itself the "tag."
type Value interface {
	Kind() Kind
}

// Integer is a decimal integer literal. 64-bit; overflow is a DecodeError
// in dialects that do not tolerate it (spec.md §4.2).
type Integer int64

func (Integer) Kind() Kind { return KindInteger }

// BasedInteger is a `base#digits#` literal. Base is 2..16. Digits
// preserves the original digit string (case as written) so the value can
// round-trip even though Value has already been computed.
type BasedInteger struct {
	Base   int
	Digits string
	Value  int64
}

func (BasedInteger) Kind() Kind { return KindBasedInteger }

// RealLiteral is the normalized (mantissa, exponent, raw-text) record the
// decoder produces for every real number, per the source's real-number
// precision design note. Raw is the literal exactly as lexed.
type RealLiteral struct {
	Mantissa string
	Exponent int
	Raw      string
}

// Real is an IEEE 754 double plus its normalized literal, so a caller
// wanting bignum/decimal precision can reparse Literal.Raw itself.
type Real struct {
	Value   float64
	Literal RealLiteral
}

func (Real) Kind() Kind { return KindReal }

// QuoteStyle records enough of a String's original quoting to round-trip
// it: which quote character was used, or none for a bare symbol-like
// literal carried as a String (e.g. decoded from an unquoted token that
// the caller chose to treat as text rather than a Symbol).
type QuoteStyle int

const (
	QuoteNone QuoteStyle = iota
	QuoteDouble
	QuoteSingle
)

// String is quoted text. Value holds the unescaped, de-continued content;
// Quote records the original quote character for round-tripping.
type String struct {
	Value string
	Quote QuoteStyle
}

func (String) Kind() Kind { return KindString }

// Symbol is an unquoted identifier or literal, returned verbatim.
type Symbol string

func (Symbol) Kind() Kind { return KindSymbol }

// Date is a calendar date, using civil.Date because PVL dates carry no
// time-of-day or timezone component at all.
type Date struct {
	Value civil.Date
}

func (Date) Kind() Kind { return KindDate }

// Time is a time-of-day value. Zone is nil for a "naive" (timezone-less)
// time, permitted under ODL; PDS3 requires non-nil (and UTC).
type Time struct {
	Value civil.Time
	Zone  *TimeZone
}

func (Time) Kind() Kind { return KindTime }

// DateTime is a combined calendar date and time-of-day. Zone is nil for a
// naive datetime.
type DateTime struct {
	Value civil.DateTime
	Zone  *TimeZone
}

func (DateTime) Kind() Kind { return KindDateTime }

// TimeZone is a fixed UTC offset, expressed in minutes east of UTC (so
// "+07:00" is 420, "Z"/"+00:00" is 0). PVL/ODL timezones are always fixed
// offsets, never named/DST-aware zones, so this is simpler than
// *time.Location and trivially comparable.
type TimeZone struct {
	OffsetMinutes int
}

// UTC is the zero-offset timezone.
var UTC = &TimeZone{OffsetMinutes: 0}

func (z *TimeZone) IsUTC() bool { return z != nil && z.OffsetMinutes == 0 }

// Set is an unordered collection of scalars. The encoder may sort its
// output for dialects that do not distinguish set ordering; the parser
// preserves the source order it saw.
type Set []Value

func (Set) Kind() Kind { return KindSet }

// Sequence is an ordered collection; elements may themselves be nested
// Sequences.
type Sequence []Value

func (Sequence) Kind() Kind { return KindSequence }

// Quantity pairs a scalar value with a non-empty units string, written
// `value <units>`.
type Quantity struct {
	Scalar Value
	Units  string
}

func (Quantity) Kind() Kind { return KindQuantity }

// EmptyAtLine marks a parameter declared with '=' but no value, carrying
// the source line for diagnosis. Distinct from Null: EmptyAtLine means
// "the producer forgot a value," Null means "absent is the value."
type EmptyAtLine struct {
	Line int
}

func (EmptyAtLine) Kind() Kind { return KindEmptyAtLine }

// Boolean is a decoded TRUE/FALSE literal (matched case-insensitively);
// every dialect's Booleans table holds only "true" and "false".
type Boolean bool

func (Boolean) Kind() Kind { return KindBoolean }

// Null represents an explicitly absent value, distinct from EmptyAtLine.
type Null struct{}

func (Null) Kind() Kind { return KindNull }

// AsReal returns v's float64 value and true if v is a Real, or a Quantity
// wrapping one.
func AsReal(v Value) (float64, bool) {
	switch t := v.(type) {
	case Real:
		return t.Value, true
	case Quantity:
		return AsReal(t.Scalar)
	default:
		return 0, false
	}
}

// RealLiteralOf returns the normalized literal record for v if it is a
// Real (or a Quantity wrapping one).
func RealLiteralOf(v Value) (RealLiteral, bool) {
	switch t := v.(type) {
	case Real:
		return t.Literal, true
	case Quantity:
		return RealLiteralOf(t.Scalar)
	default:
		return RealLiteral{}, false
	}
}
