// Package decoder converts individual lexer tokens into typed label.Value
// scalars, per the numeric fallback, based-integer, boolean, date/time and
// quantity rules of the active grammar.
package decoder

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/label"
	"github.com/planetarypy/pvl/pvlerrors"
	"github.com/planetarypy/pvl/token"
)

// QuantityFactory upgrades a decoded (value, units) pair to a richer type.
// The default factory returns a label.Quantity unchanged.
type QuantityFactory func(value label.Value, units string) (label.Value, error)

// RealFactory converts a real literal's raw text to an alternate numeric
// representation (bignum, decimal, ...). The decoder calls it for every
// real literal and fails the decode if it returns an error; the value it
// returns is not stored, so the decoded value is always a label.Real
// (float64 plus RealLiteral). The default is nil.
type RealFactory func(raw string) (any, error)

// Decoder decodes tokens under one grammar, with optional factory hooks.
type Decoder struct {
	g               grammar.Grammar
	quantityFactory QuantityFactory
	realFactory     RealFactory
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithQuantityFactory installs a factory invoked for every `value <units>`
// construct in place of the default label.Quantity wrapping.
func WithQuantityFactory(f QuantityFactory) Option {
	return func(d *Decoder) { d.quantityFactory = f }
}

// WithRealFactory installs a factory that is called with each real
// literal's raw text; an error from it fails the decode (see RealFactory).
func WithRealFactory(f RealFactory) Option {
	return func(d *Decoder) { d.realFactory = f }
}

// New returns a Decoder for grammar g.
func New(g grammar.Grammar, opts ...Option) *Decoder {
	d := &Decoder{g: g}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Decode converts a single scalar token to a label.Value, without
// quantity-factory or real-factory hooks. It is a convenience wrapper
// around New(g).DecodeScalar(tok) for callers that need no factories.
func Decode(tok token.Token, g grammar.Grammar) (label.Value, error) {
	return New(g).DecodeScalar(tok)
}

// DecodeScalar decodes one token per d's grammar.
func (d *Decoder) DecodeScalar(tok token.Token) (label.Value, error) {
	switch tok.Kind {
	case token.Number:
		return d.decodeNumber(tok)
	case token.QuotedString:
		return d.decodeQuotedString(tok)
	case token.Identifier:
		return d.decodeIdentifier(tok)
	default:
		return nil, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: tok.Text, Target: "scalar value", Dialect: d.g.Dialect,
		}
	}
}

// MakeQuantity applies the configured (or default) quantity factory to a
// decoded scalar and its units text.
func (d *Decoder) MakeQuantity(value label.Value, units string) (label.Value, error) {
	if units == "" {
		return nil, &pvlerrors.QuantityError{Units: units, Cause: errEmptyUnits}
	}
	if d.quantityFactory != nil {
		v, err := d.quantityFactory(value, units)
		if err != nil {
			return nil, &pvlerrors.QuantityError{Units: units, Cause: err}
		}
		return v, nil
	}
	return label.Quantity{Scalar: value, Units: units}, nil
}

var errEmptyUnits = &emptyUnitsError{}

type emptyUnitsError struct{}

func (*emptyUnitsError) Error() string { return "units string must be non-empty" }

func (d *Decoder) decodeNumber(tok token.Token) (label.Value, error) {
	text := tok.Text
	if idx := strings.IndexByte(text, '#'); idx >= 0 {
		return d.decodeBasedInteger(tok, idx)
	}
	if strings.ContainsAny(text, ".eE") {
		return d.decodeReal(tok)
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		if d.g.Dialect == grammar.Omni {
			if r, rerr := d.decodeReal(tok); rerr == nil {
				return r, nil
			}
		}
		return nil, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: text, Target: "integer", Dialect: d.g.Dialect, Cause: err,
		}
	}
	return label.Integer(n), nil
}

func (d *Decoder) decodeBasedInteger(tok token.Token, hashIdx int) (label.Value, error) {
	text := tok.Text
	baseText := text[:hashIdx]
	rest := text[hashIdx+1:]
	closeIdx := strings.IndexByte(rest, '#')
	if closeIdx < 0 {
		return nil, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: text, Target: "based integer", Dialect: d.g.Dialect,
		}
	}
	digits := rest[:closeIdx]
	base, err := strconv.Atoi(baseText)
	if err != nil || base < 2 || base > 16 {
		return nil, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: text, Target: "based integer base (2..16)", Dialect: d.g.Dialect, Cause: err,
		}
	}
	n, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return nil, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: text, Target: "based integer digits", Dialect: d.g.Dialect, Cause: err,
		}
	}
	return label.BasedInteger{Base: base, Digits: digits, Value: n}, nil
}

func (d *Decoder) decodeReal(tok token.Token) (label.Value, error) {
	text := tok.Text
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: text, Target: "real", Dialect: d.g.Dialect, Cause: err,
		}
	}
	lit := label.RealLiteral{Raw: text}
	mantissa := text
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		mantissa = text[:i]
		exp, _ := strconv.Atoi(text[i+1:])
		lit.Exponent = exp
	}
	lit.Mantissa = mantissa
	real := label.Real{Value: f, Literal: lit}
	if d.realFactory != nil {
		if _, err := d.realFactory(text); err != nil {
			return nil, &pvlerrors.DecodeError{
				Pos: tok.Pos, TokenText: text, Target: "real (custom factory)", Dialect: d.g.Dialect, Cause: err,
			}
		}
	}
	return real, nil
}

func (d *Decoder) decodeQuotedString(tok token.Token) (label.Value, error) {
	text := tok.Text
	if len(text) < 2 {
		return nil, &pvlerrors.DecodeError{Pos: tok.Pos, TokenText: text, Target: "quoted string", Dialect: d.g.Dialect}
	}
	q := text[0]
	style := label.QuoteDouble
	if q == '\'' {
		style = label.QuoteSingle
	}
	body := text[1 : len(text)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && d.g.AllowBackslashEscape && i+1 < len(body) && (body[i+1] == q || body[i+1] == '\\') {
			sb.WriteByte(body[i+1])
			i++
			continue
		}
		if body[i] == q && d.g.AllowDoubledQuoteEscape && i+1 < len(body) && body[i+1] == q {
			sb.WriteByte(q)
			i++
			continue
		}
		sb.WriteByte(body[i])
	}
	return label.String{Value: sb.String(), Quote: style}, nil
}

func (d *Decoder) decodeIdentifier(tok token.Token) (label.Value, error) {
	lower := strings.ToLower(tok.Text)
	if bv, ok := d.g.Booleans[lower]; ok {
		return label.Boolean(bv), nil
	}
	if v, ok, err := tryDecodeDateTime(tok, d.g); ok {
		return v, err
	}
	if d.g.ValidateIdentifiers && !isValidIdentifier(tok.Text) {
		return nil, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: tok.Text, Target: "identifier ([A-Za-z][A-Za-z0-9_]*)", Dialect: d.g.Dialect,
		}
	}
	return label.Symbol(tok.Text), nil
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}

// tryDecodeDateTime attempts to parse tok's text as a Date, Time or
// DateTime per spec.md §4.2: PDS3 accepts only UTC, ODL permits naive
// (locally-scoped) values, and ODL and PDS3 reject a seconds field of 60
// while PVL/ISIS/Omni tolerate it. Returns ok=false (not err) when the text
// simply does not look like a date/time, so the caller falls through to
// treating it as a Symbol.
func tryDecodeDateTime(tok token.Token, g grammar.Grammar) (label.Value, bool, error) {
	text := tok.Text
	datePart, timePart, hasTime := splitDateTime(text)
	timeOnly := datePart == "" && strings.Contains(text, ":")
	var date civil.Date
	if timeOnly {
		timePart = text
	} else {
		if datePart == "" {
			return nil, false, nil
		}
		var ok bool
		date, ok = parseCivilDate(datePart)
		if !ok {
			return nil, false, nil
		}
		if !hasTime {
			return label.Date{Value: date}, true, nil
		}
	}
	civilTime, zone, secErr, ok := parseCivilTime(timePart, g)
	if !ok {
		return nil, false, nil
	}
	if secErr {
		return nil, true, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: text, Target: "time (leap second not permitted)", Dialect: g.Dialect,
		}
	}
	if g.DefaultTimezoneUTC && zone == nil {
		zone = label.UTC
	}
	if g.Dialect == grammar.PDS3 && !zone.IsUTC() {
		return nil, true, &pvlerrors.DecodeError{
			Pos: tok.Pos, TokenText: text, Target: "time (PDS3 requires UTC)", Dialect: g.Dialect,
		}
	}
	if timeOnly {
		return label.Time{Value: civilTime, Zone: zone}, true, nil
	}
	return label.DateTime{Value: civil.DateTime{Date: date, Time: civilTime}, Zone: zone}, true, nil
}

// splitDateTime recognizes the "YYYY-MM-DD[THH:MM:SS...]" and
// "YYYY-DDD[THH:MM:SS...]" (day-of-year) subsets: a date requires an
// explicit 'T' before any time-of-day fields.
func splitDateTime(s string) (datePart, timePart string, hasTime bool) {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	if strings.Count(s, "-") >= 1 && !strings.Contains(s, ":") {
		return s, "", false
	}
	return "", "", false
}

func parseCivilDate(s string) (civil.Date, bool) {
	// YYYY-MM-DD or YYYY-DDD (day-of-year)
	parts := strings.Split(s, "-")
	if len(parts) == 2 {
		year, err1 := strconv.Atoi(parts[0])
		doy, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || len(parts[0]) != 4 || len(parts[1]) != 3 {
			return civil.Date{}, false
		}
		// time.Date normalizes an out-of-range month/day, so Jan 1 plus
		// (doy-1) days lands on the correct calendar date even across
		// leap years.
		t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
		return civil.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, true
	}
	if len(parts) != 3 {
		return civil.Date{}, false
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || len(parts[0]) != 4 {
		return civil.Date{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return civil.Date{}, false
	}
	return civil.Date{Year: year, Month: time.Month(month), Day: day}, true
}

// parseCivilTime parses "HH:MM:SS[.fff][Z|+HH:MM|-HH:MM]". secErr reports
// a seconds field of 60 (a leap second), which ODL rejects.
func parseCivilTime(s string, g grammar.Grammar) (ct civil.Time, zone *label.TimeZone, secErr bool, ok bool) {
	body := s
	if strings.HasSuffix(body, "Z") {
		zone = label.UTC
		body = body[:len(body)-1]
	} else if i := strings.IndexAny(body, "+-"); i > 0 {
		offStr := body[i:]
		body = body[:i]
		off, ok2 := parseOffset(offStr)
		if !ok2 {
			return civil.Time{}, nil, false, false
		}
		zone = &label.TimeZone{OffsetMinutes: off}
	}
	fields := strings.Split(body, ":")
	if len(fields) != 3 {
		return civil.Time{}, nil, false, false
	}
	hour, err1 := strconv.Atoi(fields[0])
	minute, err2 := strconv.Atoi(fields[1])
	secStr := fields[2]
	nanos := 0
	if dot := strings.IndexByte(secStr, '.'); dot >= 0 {
		frac := secStr[dot+1:]
		secStr = secStr[:dot]
		for len(frac) < 9 {
			frac += "0"
		}
		n, _ := strconv.Atoi(frac[:9])
		nanos = n
	}
	sec, err3 := strconv.Atoi(secStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return civil.Time{}, nil, false, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || sec < 0 || sec > 60 {
		return civil.Time{}, nil, false, false
	}
	if sec == 60 && g.RejectLeapSecond {
		return civil.Time{}, zone, true, true
	}
	return civil.Time{Hour: hour, Minute: minute, Second: sec, Nanosecond: nanos}, zone, false, true
}

func parseOffset(s string) (int, bool) {
	if len(s) < 3 {
		return 0, false
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	} else if s[0] != '+' {
		return 0, false
	}
	rest := s[1:]
	rest = strings.ReplaceAll(rest, ":", "")
	if len(rest) != 4 {
		return 0, false
	}
	h, err1 := strconv.Atoi(rest[:2])
	m, err2 := strconv.Atoi(rest[2:])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return sign * (h*60 + m), true
}
