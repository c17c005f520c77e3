// Package lexer turns PVL source text into a restartable token stream
// honoring grammar-driven whitespace, comment, continuation, quoting and
// reserved-character rules. A Lexer is a pure function of (text, grammar)
// plus its own read cursor; it holds no state beyond that cursor.
package lexer

import (
	"strings"

	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/pvlerrors"
	"github.com/planetarypy/pvl/token"
)

// Lexer produces tokens one at a time from src under the rules of g.
type Lexer struct {
	g      grammar.Grammar
	src    string
	pos    int
	line   int
	column int
}

// New creates a Lexer reading text under grammar g.
func New(text string, g grammar.Grammar) *Lexer {
	return &Lexer{g: g, src: text, pos: 0, line: 1, column: 1}
}

func (l *Lexer) here() token.Position {
	return token.Position{Line: l.line, Column: l.column, Offset: l.pos}
}

func (l *Lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *Lexer) byteAt(off int) (byte, bool) {
	i := l.pos + off
	if i < 0 || i >= len(l.src) {
		return 0, false
	}
	return l.src[i], true
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return b
}

// skipNonNewlineWhitespaceAndComments advances past whitespace (other than
// '\n') and any recognized comment, stopping at a '\n' (left unconsumed for
// the caller to turn into a Newline token), at end of input, or at any
// other byte. It returns an error only for an unterminated comment.
func (l *Lexer) skipNonNewlineWhitespaceAndComments() error {
	for {
		b, ok := l.peekByte()
		if !ok {
			return nil
		}
		if b == '\n' {
			return nil
		}
		if l.g.IsWhitespace(b) {
			l.advance()
			continue
		}
		if consumed, err := l.tryConsumeComment(); err != nil {
			return err
		} else if consumed {
			continue
		}
		return nil
	}
}

// tryConsumeComment attempts to consume one comment starting at the
// current position, per g.Comments (checked in order) plus the ISIS/Omni
// '#'-to-end-of-line rule folded into that same list (Close == "").
func (l *Lexer) tryConsumeComment() (bool, error) {
	for _, c := range l.g.Comments {
		if !l.hasPrefixAt(l.pos, c.Open) {
			continue
		}
		start := l.here()
		for i := 0; i < len(c.Open); i++ {
			l.advance()
		}
		if c.Close == "" {
			for {
				b, ok := l.peekByte()
				if !ok || b == '\n' {
					break
				}
				l.advance()
			}
			return true, nil
		}
		for {
			if l.hasPrefixAt(l.pos, c.Close) {
				for i := 0; i < len(c.Close); i++ {
					l.advance()
				}
				return true, nil
			}
			if _, ok := l.peekByte(); !ok {
				return false, &pvlerrors.LexerError{
					Pos:      start,
					Found:    0,
					Expected: "comment close " + c.Close,
					Snippet:  l.snippet(start.Offset),
					Dialect:  l.g.Dialect,
				}
			}
			l.advance()
		}
	}
	return false, nil
}

func (l *Lexer) hasPrefixAt(pos int, s string) bool {
	if pos+len(s) > len(l.src) {
		return false
	}
	return l.src[pos:pos+len(s)] == s
}

func (l *Lexer) snippet(offset int) string {
	const radius = 16
	start := offset - radius
	if start < 0 {
		start = 0
	}
	end := offset + radius
	if end > len(l.src) {
		end = len(l.src)
	}
	return l.src[start:end]
}

// Next returns the next token in the stream. Once it returns a token of
// Kind EOF, every subsequent call also returns EOF: Next never looks past
// end of input.
func (l *Lexer) Next() (token.Token, error) {
	if err := l.skipNonNewlineWhitespaceAndComments(); err != nil {
		return token.Token{}, err
	}

	b, ok := l.peekByte()
	if !ok {
		return token.Token{Kind: token.EOF, Pos: l.here()}, nil
	}

	if b == '\n' {
		pos := l.here()
		l.advance()
		// Collapse a run of blank lines (whitespace/comments between them)
		// into one Newline token.
		for {
			if err := l.skipNonNewlineWhitespaceAndComments(); err != nil {
				return token.Token{}, err
			}
			nb, ok := l.peekByte()
			if !ok || nb != '\n' {
				break
			}
			l.advance()
		}
		return token.Token{Kind: token.Newline, Text: "\n", Pos: pos}, nil
	}

	if q := l.quoteCharAt(b); q != 0 {
		return l.scanQuotedString(q)
	}

	switch b {
	case l.g.Delimiters.Assign, l.g.Delimiters.SeqOpen, l.g.Delimiters.SeqClose,
		l.g.Delimiters.SetOpen, l.g.Delimiters.SetClose,
		l.g.Delimiters.UnitsOpen, l.g.Delimiters.UnitsClose, ',':
		pos := l.here()
		l.advance()
		return token.Token{Kind: token.Punctuation, Text: string(b), Pos: pos}, nil
	}
	if l.g.Delimiters.HasStatement && b == l.g.Delimiters.Statement {
		pos := l.here()
		l.advance()
		return token.Token{Kind: token.Punctuation, Text: string(b), Pos: pos}, nil
	}

	if b == '#' {
		// Not consumed as a comment above (HashComment grammars fold '#'
		// into g.Comments) and not the start of a number: a bare '#' is
		// reserved punctuation used only inside based-integer literals.
		pos := l.here()
		l.advance()
		return token.Token{}, &pvlerrors.LexerError{
			Pos: pos, Found: '#', Expected: "identifier, value or comment",
			Snippet: l.snippet(pos.Offset), Dialect: l.g.Dialect,
		}
	}

	// A '+' directly before a digit signs a number: scanBareToken takes it.
	nb, _ := l.byteAt(1)
	if l.g.IsReserved(b) && !(b == '+' && (l.g.AllowPlusUnquoted || isDigit(nb))) {
		pos := l.here()
		l.advance()
		return token.Token{Kind: token.Reserved, Text: string(b), Pos: pos}, nil
	}

	return l.scanBareToken()
}

func (l *Lexer) quoteCharAt(b byte) byte {
	for _, q := range l.g.Quotes {
		if q == b {
			return q
		}
	}
	return 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// isBasedIntegerPrefix reports whether s is a (possibly signed) run of
// decimal digits, i.e. everything scanned so far could be the base of a
// base#digits# literal.
func isBasedIntegerPrefix(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// scanBareToken consumes the maximal run of bytes ending at the first
// reserved character or whitespace (honoring dash-continuation and the
// dialect-conditional unquoted '+'), then classifies the result as a
// Number or an Identifier by matching it against the numeric literal
// grammar. Classifying after the fact, rather than branching on the first
// byte, is what lets a digit-leading date/time literal like
// "2020-001T12:00:00Z" come through as one Identifier token instead of
// being chopped up by number scanning.
func (l *Lexer) scanBareToken() (token.Token, error) {
	pos := l.here()
	var sb strings.Builder
	leading := true
	for {
		if l.tryConsumeDashContinuation() {
			leading = false
			continue
		}
		b, ok := l.peekByte()
		if !ok {
			break
		}
		if b == '+' && leading {
			if nb, ok := l.byteAt(1); ok && isDigit(nb) {
				sb.WriteByte(l.advance())
				leading = false
				continue
			}
		}
		if l.g.IsWhitespace(b) {
			break
		}
		if b == '#' && isBasedIntegerPrefix(sb.String()) {
			// base#digits# literal: '#' is ordinarily reserved, but here it
			// introduces and closes the digit run rather than terminating
			// the token.
			sb.WriteByte(l.advance()) // opening '#'
			for {
				nb, ok := l.peekByte()
				if !ok {
					break
				}
				sb.WriteByte(l.advance())
				if nb == '#' {
					break
				}
			}
			leading = false
			continue
		}
		if l.g.IsReserved(b) {
			if b == '+' && l.g.AllowPlusUnquoted {
				sb.WriteByte(l.advance())
				leading = false
				continue
			}
			break
		}
		sb.WriteByte(l.advance())
		leading = false
	}
	if sb.Len() == 0 {
		b, _ := l.peekByte()
		return token.Token{}, &pvlerrors.LexerError{
			Pos: pos, Found: b, Expected: "identifier, value, or punctuation",
			Snippet: l.snippet(pos.Offset), Dialect: l.g.Dialect,
		}
	}
	text := sb.String()
	kind := token.Identifier
	if isNumericLiteral(text) {
		kind = token.Number
	}
	return token.Token{Kind: kind, Text: text, Pos: pos}, nil
}

// isNumericLiteral reports whether s, in its entirety, matches an
// integer, based-integer (base#digits#) or real/scientific literal.
// Value-range validation (base 2..16, overflow) happens in the decoder;
// this is a pure syntactic check used only to choose a Token Kind.
func isNumericLiteral(s string) bool {
	i, n := 0, len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < n && isDigit(s[i]) {
		i++
	}
	if i == start {
		return false
	}
	if i < n && s[i] == '#' {
		i++
		digitsStart := i
		for i < n && isHexDigit(s[i]) {
			i++
		}
		if i == digitsStart || i >= n || s[i] != '#' {
			return false
		}
		i++
		return i == n
	}
	if i < n && s[i] == '.' {
		i++
		digitsStart := i
		for i < n && isDigit(s[i]) {
			i++
		}
		if i == digitsStart {
			return false
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < n && isDigit(s[j]) {
			j++
		}
		if j == expStart {
			return false
		}
		i = j
	}
	return i == n
}

// tryConsumeDashContinuation elides a trailing '-' plus end-of-line
// whitespace plus the following line's leading whitespace, per the
// ISIS/Omni line-continuation rule. It reports whether it consumed
// anything.
func (l *Lexer) tryConsumeDashContinuation() bool {
	if l.g.Delimiters.Continuation == 0 {
		return false
	}
	b, ok := l.peekByte()
	if !ok || b != l.g.Delimiters.Continuation {
		return false
	}
	save := l.save()
	l.advance() // '-'
	for {
		b, ok := l.peekByte()
		if !ok || b == '\n' {
			break
		}
		if !l.g.IsWhitespace(b) {
			l.restore(save)
			return false
		}
		l.advance()
	}
	if b, ok := l.peekByte(); !ok || b != '\n' {
		l.restore(save)
		return false
	}
	l.advance() // '\n'
	for {
		b, ok := l.peekByte()
		if !ok || b == '\n' || !l.g.IsWhitespace(b) {
			break
		}
		l.advance()
	}
	return true
}

type lexerState struct {
	pos    int
	line   int
	column int
}

func (l *Lexer) save() lexerState {
	return lexerState{pos: l.pos, line: l.line, column: l.column}
}

func (l *Lexer) restore(s lexerState) {
	l.pos, l.line, l.column = s.pos, s.line, s.column
}

// scanQuotedString consumes a string delimited by the quote byte q,
// honoring multi-line continuation, doubled-quote and backslash escaping
// (per grammar), and dash-continuation.
func (l *Lexer) scanQuotedString(q byte) (token.Token, error) {
	pos := l.here()
	var raw strings.Builder
	raw.WriteByte(l.advance()) // opening quote
	for {
		if l.tryConsumeDashContinuation() {
			continue
		}
		b, ok := l.peekByte()
		if !ok {
			return token.Token{}, &pvlerrors.LexerError{
				Pos: pos, Found: 0, Expected: "closing quote",
				Snippet: l.snippet(pos.Offset), Dialect: l.g.Dialect,
			}
		}
		if b == '\\' && l.g.AllowBackslashEscape {
			if nb, ok := l.byteAt(1); ok && (nb == q || nb == '\\') {
				raw.WriteByte(l.advance())
				raw.WriteByte(l.advance())
				continue
			}
		}
		if b == q {
			if l.g.AllowDoubledQuoteEscape {
				if nb, ok := l.byteAt(1); ok && nb == q {
					raw.WriteByte(l.advance())
					raw.WriteByte(l.advance())
					continue
				}
			}
			raw.WriteByte(l.advance())
			break
		}
		raw.WriteByte(l.advance())
	}
	return token.Token{Kind: token.QuotedString, Text: raw.String(), Pos: pos}, nil
}

// ScanUnitsText reads raw text up to (but not including) the grammar's
// UnitsClose byte, then consumes that closing byte. It is used by the
// parser immediately after consuming a UnitsOpen punctuation token,
// because a units expression (e.g. "m / s") is not itself tokenized under
// the ordinary reserved-character rules.
func (l *Lexer) ScanUnitsText() (string, token.Position, error) {
	pos := l.here()
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok {
			return "", pos, &pvlerrors.LexerError{
				Pos: pos, Found: 0, Expected: "closing '" + string(l.g.Delimiters.UnitsClose) + "'",
				Snippet: l.snippet(pos.Offset), Dialect: l.g.Dialect,
			}
		}
		if b == l.g.Delimiters.UnitsClose {
			l.advance()
			break
		}
		sb.WriteByte(l.advance())
	}
	return strings.TrimSpace(sb.String()), pos, nil
}

// Pos returns the lexer's current source position, useful for error
// construction by callers that hold a Lexer across multiple Next calls.
func (l *Lexer) Pos() token.Position { return l.here() }

// AtEOF reports whether the lexer has nothing left but whitespace/comments.
func (l *Lexer) AtEOF() bool {
	save := l.save()
	defer l.restore(save)
	if err := l.skipNonNewlineWhitespaceAndComments(); err != nil {
		return false
	}
	_, ok := l.peekByte()
	return !ok
}
