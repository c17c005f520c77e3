// Package encoder renders a label.Module tree back to PVL-family text,
// formatted per the target dialect's grammar.Profile.
package encoder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-sql/civil"

	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/label"
	"github.com/planetarypy/pvl/pvlerrors"
)

// Encoder renders a label.Module under one grammar.Profile.
type Encoder struct {
	profile grammar.Profile
}

// New returns an Encoder for the dialect's Profile. It panics if d has no
// Profile (Omni is parse-only).
func New(d grammar.Dialect) *Encoder {
	return &Encoder{profile: grammar.ProfileFor(d)}
}

// Encode renders m as text under dialect d's Profile. It panics if d has no
// Profile (Omni is parse-only).
func Encode(m *label.Module, d grammar.Dialect) (string, error) {
	return New(d).Encode(m)
}

func (e *Encoder) Encode(m *label.Module) (string, error) {
	var sb strings.Builder
	if err := e.encodeModule(&sb, m, 0, nil); err != nil {
		return "", err
	}
	sb.WriteString("END")
	sb.WriteString(e.profile.StatementDelimiter)
	sb.WriteByte('\n')
	if e.profile.TrailingBlankLineAfterEnd {
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (e *Encoder) encodeModule(sb *strings.Builder, m *label.Module, depth int, path []string) error {
	entries := m.Entries()
	keyWidth := 0
	if e.profile.AlignAssignments {
		for _, ent := range entries {
			if _, isBlock := ent.Value.(*label.Block); isBlock {
				continue
			}
			if w := len(e.encodeKey(ent.Key)); w > keyWidth {
				keyWidth = w
			}
		}
	}
	for _, ent := range entries {
		if err := e.encodeEntry(sb, ent, depth, keyWidth, path); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeEntry(sb *strings.Builder, ent label.Entry, depth, keyWidth int, path []string) error {
	indent := strings.Repeat(" ", depth*e.profile.IndentWidth)
	entryPath := append(append([]string{}, path...), ent.Key)

	if block, ok := ent.Value.(*label.Block); ok {
		beginKw, endKw := e.profile.BeginObjectKeyword, e.profile.EndObjectKeyword
		if block.BlockType == label.BlockGroup {
			beginKw, endKw = e.profile.BeginGroupKeyword, e.profile.EndGroupKeyword
		}
		sb.WriteString(indent)
		sb.WriteString(beginKw)
		sb.WriteString(" = ")
		sb.WriteString(block.Name)
		sb.WriteString(e.profile.StatementDelimiter)
		sb.WriteByte('\n')
		if err := e.encodeModule(sb, &block.Module, depth+1, entryPath); err != nil {
			return err
		}
		sb.WriteString(indent)
		sb.WriteString(endKw)
		sb.WriteString(" = ")
		sb.WriteString(block.Name)
		sb.WriteString(e.profile.StatementDelimiter)
		sb.WriteByte('\n')
		return nil
	}

	key := e.encodeKey(ent.Key)
	sb.WriteString(indent)
	sb.WriteString(key)
	if e.profile.AlignAssignments && keyWidth > len(key) {
		sb.WriteString(strings.Repeat(" ", keyWidth-len(key)))
	}
	sb.WriteString(" = ")
	valText, err := e.encodeValue(ent.Value, entryPath, depth)
	if err != nil {
		return err
	}
	sb.WriteString(valText)
	sb.WriteString(e.profile.StatementDelimiter)
	sb.WriteByte('\n')
	return nil
}

func (e *Encoder) encodeKey(key string) string {
	if e.profile.ParameterCase == grammar.CaseUpper {
		return strings.ToUpper(key)
	}
	return key
}

// encodeValue renders v as text. depth is the value's block nesting level,
// used to decide whether a bare symbol or a sequence/set must wrap or
// requote to respect the profile's LineWidth; it counts the indent
// (depth*IndentWidth) but not the key and " = " written before the value
// on its line, so it under-estimates the real column.
func (e *Encoder) encodeValue(v label.Value, path []string, depth int) (string, error) {
	switch t := v.(type) {
	case label.Integer:
		return strconv.FormatInt(int64(t), 10), nil
	case label.BasedInteger:
		return fmt.Sprintf("%d#%s#", t.Base, t.Digits), nil
	case label.Real:
		return encodeReal(t), nil
	case label.String:
		return e.encodeString(t), nil
	case label.Symbol:
		s := string(t)
		if e.profile.LineWidth > 0 && depth*e.profile.IndentWidth+len(s) > e.profile.LineWidth {
			return e.encodeString(label.String{Value: s, Quote: label.QuoteDouble}), nil
		}
		return s, nil
	case label.Boolean:
		if t {
			return "TRUE", nil
		}
		return "FALSE", nil
	case label.Null:
		return "NULL", nil
	case label.EmptyAtLine:
		return "", &pvlerrors.EncodeError{
			KeyPath: path, Rule: "a parameter with no value cannot be encoded", Dialect: e.profile.Dialect,
		}
	case label.Date:
		return t.Value.String(), nil
	case label.Time:
		return e.encodeTime(t.Value, t.Zone, path)
	case label.DateTime:
		datePart := t.Value.Date.String()
		timePart, err := e.encodeTime(t.Value.Time, t.Zone, path)
		if err != nil {
			return "", err
		}
		return datePart + "T" + timePart, nil
	case label.Set:
		return e.encodeCollection(t, true, path, depth)
	case label.Sequence:
		return e.encodeCollection(t, false, path, depth)
	case label.Quantity:
		scalar, err := e.encodeValue(t.Scalar, path, depth)
		if err != nil {
			return "", err
		}
		return scalar + " <" + formatUnits(t.Units) + ">", nil
	default:
		return "", &pvlerrors.EncodeError{
			KeyPath: path, Rule: fmt.Sprintf("unsupported value type %T", v), Dialect: e.profile.Dialect,
		}
	}
}

func encodeReal(r label.Real) string {
	if r.Literal.Raw != "" {
		return r.Literal.Raw
	}
	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}

func (e *Encoder) encodeString(s label.String) string {
	q := byte('"')
	if s.Quote == label.QuoteSingle {
		q = '\''
	}
	var sb strings.Builder
	sb.WriteByte(q)
	for i := 0; i < len(s.Value); i++ {
		c := s.Value[i]
		if c == q {
			switch e.profile.QuoteEscape {
			case grammar.EscapeBackslash:
				sb.WriteByte('\\')
			default:
				sb.WriteByte(q)
			}
		}
		sb.WriteByte(c)
	}
	sb.WriteByte(q)
	return sb.String()
}

func (e *Encoder) encodeTime(t civil.Time, zone *label.TimeZone, path []string) (string, error) {
	if e.profile.DatetimeUTCOnly && (zone == nil || !zone.IsUTC()) {
		return "", &pvlerrors.EncodeError{
			KeyPath: path, Rule: "datetime values must carry a UTC zone", Dialect: e.profile.Dialect,
		}
	}
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond != 0 {
		frac := fmt.Sprintf("%09d", t.Nanosecond)
		frac = strings.TrimRight(frac, "0")
		if e.profile.DatetimeMaxFractionDigits > 0 && len(frac) > e.profile.DatetimeMaxFractionDigits {
			return "", &pvlerrors.EncodeError{
				KeyPath: path,
				Rule:    fmt.Sprintf("sub-second precision is limited to %d digits", e.profile.DatetimeMaxFractionDigits),
				Dialect: e.profile.Dialect,
			}
		}
		if frac != "" {
			s += "." + frac
		}
	}
	switch {
	case zone == nil:
		return s, nil
	case zone.IsUTC():
		return s + "Z", nil
	default:
		sign := "+"
		off := zone.OffsetMinutes
		if off < 0 {
			sign = "-"
			off = -off
		}
		return fmt.Sprintf("%s%s%02d:%02d", s, sign, off/60, off%60), nil
	}
}

func (e *Encoder) encodeCollection(elems []label.Value, isSet bool, path []string, depth int) (string, error) {
	if isSet && e.profile.SetScalarsOnly {
		for _, el := range elems {
			switch el.(type) {
			case label.Integer, label.Symbol:
			default:
				return "", &pvlerrors.EncodeError{
					KeyPath: path, Rule: "set elements must be integers or symbols", Dialect: e.profile.Dialect,
				}
			}
		}
	}
	ordered := elems
	if isSet {
		ordered = append([]label.Value(nil), elems...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return fmt.Sprint(ordered[i]) < fmt.Sprint(ordered[j])
		})
	}
	open, closeDelim := "(", ")"
	if isSet {
		open, closeDelim = "{", "}"
	}
	parts := make([]string, len(ordered))
	for i, el := range ordered {
		s, err := e.encodeValue(el, path, depth)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	flat := open + strings.Join(parts, ", ") + closeDelim
	if e.profile.LineWidth <= 0 || len(parts) < 2 || depth*e.profile.IndentWidth+len(flat) <= e.profile.LineWidth {
		return flat, nil
	}

	outerIndent := strings.Repeat(" ", depth*e.profile.IndentWidth)
	innerIndent := strings.Repeat(" ", (depth+1)*e.profile.IndentWidth)
	var sb strings.Builder
	sb.WriteString(open)
	sb.WriteByte('\n')
	for i, part := range parts {
		sb.WriteString(innerIndent)
		sb.WriteString(part)
		if i < len(parts)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(outerIndent)
	sb.WriteString(closeDelim)
	return sb.String(), nil
}

// formatUnits normalizes the operator spacing inside a units string so
// "m/s" and "m * s" both render as "m / s" / "m * s", regardless of how
// the source label spaced them.
func formatUnits(units string) string {
	var sb strings.Builder
	for _, r := range units {
		switch r {
		case '*', '/':
			sb.WriteByte(' ')
			sb.WriteRune(r)
			sb.WriteByte(' ')
		default:
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
