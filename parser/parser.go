// Package parser builds a label.Module tree from source text by recursive
// descent over the lexer's token stream, per the active grammar.
package parser

import (
	"strings"

	"github.com/planetarypy/pvl/decoder"
	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/label"
	"github.com/planetarypy/pvl/lexer"
	"github.com/planetarypy/pvl/pvlerrors"
	"github.com/planetarypy/pvl/token"
)

// Parser consumes a token stream and builds a label.Module.
type Parser struct {
	g   grammar.Grammar
	lex *lexer.Lexer
	dec *decoder.Decoder

	cur    token.Token
	curErr error
	primed bool
}

// Parse builds a label.Module tree from text under grammar g.
func Parse(text string, g grammar.Grammar, opts ...decoder.Option) (*label.Module, error) {
	p := &Parser{
		g:   g,
		lex: lexer.New(text, g),
		dec: decoder.New(g, opts...),
	}
	return p.parseModule()
}

func (p *Parser) advance() error {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			p.cur, p.curErr = token.Token{}, err
			return err
		}
		if tok.Kind == token.Newline {
			continue
		}
		p.cur, p.curErr = tok, nil
		return nil
	}
}

func (p *Parser) peek() (token.Token, error) {
	if !p.primed {
		p.primed = true
		if err := p.advance(); err != nil {
			return token.Token{}, err
		}
	}
	return p.cur, p.curErr
}

// parseModule parses a whole label: a flat sequence of statements ending at
// EOF or at a top-level END, whichever the grammar reaches first. A
// top-level END hard-terminates parsing: anything after it is ignored, per
// spec.md's preamble/trailing-material handling.
func (p *Parser) parseModule() (*label.Module, error) {
	m := label.NewModule()
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			return m, nil
		}
		if isEndKeyword(tok) {
			return m, nil
		}
		if err := p.parseStatement(m); err != nil {
			return nil, err
		}
	}
}

func isEndKeyword(tok token.Token) bool {
	return (tok.Kind == token.Identifier || tok.Kind == token.Reserved) && tok.EqualFold("end")
}

// parseStatement parses one `key = value` assignment or one aggregation
// block, appending it to m.
func (p *Parser) parseStatement(m *label.Module) error {
	keyTok, err := p.peek()
	if err != nil {
		return err
	}
	if keyTok.Kind != token.Identifier && keyTok.Kind != token.Reserved {
		return &pvlerrors.ParseError{
			Pos: keyTok.Pos, Expected: "parameter name or block keyword", Actual: describe(keyTok), Dialect: p.g.Dialect,
		}
	}
	lower := strings.ToLower(keyTok.Text)
	if endKw, ok := p.g.EndKeywordFor(lower); ok {
		return p.parseBlock(m, keyTok, endKw)
	}
	return p.parseAssignment(m, keyTok)
}

// parseBlock parses `BEGIN/OBJECT|GROUP = Name ... END_OBJECT|END_GROUP [=
// Name]`, recursing on its body.
func (p *Parser) parseBlock(m *label.Module, beginTok token.Token, endKeyword string) error {
	if err := p.advance(); err != nil { // consume begin keyword
		return err
	}
	assignTok, err := p.peek()
	if err != nil {
		return err
	}
	if assignTok.Kind != token.Punctuation || assignTok.Text != string(p.g.Delimiters.Assign) {
		return &pvlerrors.ParseError{
			Pos: assignTok.Pos, Expected: "'='", Actual: describe(assignTok), Dialect: p.g.Dialect,
		}
	}
	if err := p.advance(); err != nil { // consume '='
		return err
	}
	nameTok, err := p.peek()
	if err != nil {
		return err
	}
	if nameTok.Kind != token.Identifier && nameTok.Kind != token.Reserved {
		return &pvlerrors.ParseError{
			Pos: nameTok.Pos, Expected: "block name", Actual: describe(nameTok), Dialect: p.g.Dialect,
		}
	}
	if err := p.advance(); err != nil { // consume name
		return err
	}
	if p.g.Delimiters.HasStatement {
		if err := p.consumeOptionalStatementDelimiter(); err != nil {
			return err
		}
	}

	kind := label.BlockObject
	if strings.HasSuffix(strings.ToLower(beginTok.Text), "group") {
		kind = label.BlockGroup
	}
	block := label.NewBlock(kind, nameTok.Text)

	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			return &pvlerrors.ParseError{
				Pos: tok.Pos, Expected: endKeyword, Actual: "end of input", Dialect: p.g.Dialect,
			}
		}
		if (tok.Kind == token.Identifier || tok.Kind == token.Reserved) && tok.EqualFold(endKeyword) {
			break
		}
		if isEndKeyword(tok) {
			return &pvlerrors.ParseError{
				Pos: tok.Pos, Expected: endKeyword, Actual: describe(tok), Dialect: p.g.Dialect,
			}
		}
		if err := p.parseStatement(&block.Module); err != nil {
			return err
		}
	}
	if err := p.advance(); err != nil { // consume end keyword
		return err
	}
	if err := p.consumeOptionalTrailingName(nameTok.Text); err != nil {
		return err
	}
	if p.g.Delimiters.HasStatement {
		if err := p.consumeOptionalStatementDelimiter(); err != nil {
			return err
		}
	}
	m.Append(beginTok.Text, block)
	return nil
}

// consumeOptionalTrailingName consumes an optional `= Name` after an end
// keyword, verifying it matches the block's opening name when present.
// Strict grammars (PVL/ODL/PDS3) require the names to match when a
// trailing name is given; permissive grammars (ISIS/Omni) tolerate a
// mismatch.
func (p *Parser) consumeOptionalTrailingName(openName string) error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	if tok.Kind != token.Punctuation || tok.Text != string(p.g.Delimiters.Assign) {
		return nil
	}
	if err := p.advance(); err != nil {
		return err
	}
	nameTok, err := p.peek()
	if err != nil {
		return err
	}
	if nameTok.Kind != token.Identifier && nameTok.Kind != token.Reserved {
		return &pvlerrors.ParseError{
			Pos: nameTok.Pos, Expected: "block closing name", Actual: describe(nameTok), Dialect: p.g.Dialect,
		}
	}
	if err := p.advance(); err != nil {
		return err
	}
	if p.g.Strict && !strings.EqualFold(nameTok.Text, openName) {
		return &pvlerrors.ParseError{
			Pos: nameTok.Pos, Expected: "closing name " + openName, Actual: nameTok.Text, Dialect: p.g.Dialect,
		}
	}
	return nil
}

func (p *Parser) consumeOptionalStatementDelimiter() error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	if tok.Kind == token.Punctuation && tok.Text == string(p.g.Delimiters.Statement) {
		return p.advance()
	}
	return nil
}

// parseAssignment parses `key = value` and appends it to m. A key with no
// '=' at all is always a ParseError, in every dialect, including Omni: the
// '=' itself is never optional. Only the value after a present '=' may be
// missing, and only Omni tolerates that, decoding it as label.EmptyAtLine;
// every other dialect requires '=' followed by an actual value.
func (p *Parser) parseAssignment(m *label.Module, keyTok token.Token) error {
	if err := p.advance(); err != nil { // consume key
		return err
	}
	assignTok, err := p.peek()
	if err != nil {
		return err
	}
	if assignTok.Kind != token.Punctuation || assignTok.Text != string(p.g.Delimiters.Assign) {
		return &pvlerrors.ParseError{
			Pos: assignTok.Pos, Expected: "'='", Actual: describe(assignTok), Dialect: p.g.Dialect,
		}
	}
	if err := p.advance(); err != nil { // consume '='
		return err
	}
	valTok, err := p.peek()
	if err != nil {
		return err
	}
	if isStatementEnd(valTok, p.g) {
		if p.g.Dialect == grammar.Omni {
			m.Append(keyTok.Text, label.EmptyAtLine{Line: keyTok.Pos.Line})
			return nil
		}
		return &pvlerrors.ParseError{
			Pos: valTok.Pos, Expected: "a value", Actual: describe(valTok), Dialect: p.g.Dialect,
		}
	}
	v, err := p.parseValue()
	if err != nil {
		return err
	}
	if p.g.Delimiters.HasStatement {
		if err := p.consumeOptionalStatementDelimiter(); err != nil {
			return err
		}
	}
	m.Append(keyTok.Text, v)
	return nil
}

func isStatementEnd(tok token.Token, g grammar.Grammar) bool {
	if tok.Kind == token.EOF {
		return true
	}
	if g.Delimiters.HasStatement && tok.Kind == token.Punctuation && tok.Text == string(g.Delimiters.Statement) {
		return true
	}
	if tok.Kind == token.Identifier || tok.Kind == token.Reserved {
		lower := strings.ToLower(tok.Text)
		if lower == "end" {
			return true
		}
		if _, ok := g.EndKeywordFor(lower); ok {
			return true
		}
	}
	return false
}

// parseValue parses one scalar, sequence, or set, optionally suffixed by a
// `<units>` quantity.
func (p *Parser) parseValue() (label.Value, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	var v label.Value
	switch {
	case tok.Kind == token.Punctuation && tok.Text == string(p.g.Delimiters.SeqOpen):
		v, err = p.parseCollection(p.g.Delimiters.SeqOpen, p.g.Delimiters.SeqClose, false)
	case tok.Kind == token.Punctuation && tok.Text == string(p.g.Delimiters.SetOpen):
		v, err = p.parseCollection(p.g.Delimiters.SetOpen, p.g.Delimiters.SetClose, true)
	case tok.Kind == token.Number || tok.Kind == token.QuotedString || tok.Kind == token.Identifier:
		v, err = p.dec.DecodeScalar(tok)
		if err == nil {
			err = p.advance()
		}
	default:
		return nil, &pvlerrors.ParseError{
			Pos: tok.Pos, Expected: "scalar, sequence or set value", Actual: describe(tok), Dialect: p.g.Dialect,
		}
	}
	if err != nil {
		return nil, err
	}

	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	if next.Kind == token.Punctuation && next.Text == string(p.g.Delimiters.UnitsOpen) {
		units, pos, uerr := p.lex.ScanUnitsText()
		if uerr != nil {
			return nil, uerr
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		q, qerr := p.dec.MakeQuantity(v, units)
		if qerr != nil {
			if qe, ok := qerr.(*pvlerrors.QuantityError); ok {
				return nil, &pvlerrors.ParseError{
					Pos: pos, Expected: "units text", Actual: qe.Error(), Dialect: p.g.Dialect,
				}
			}
			return nil, qerr
		}
		v = q
	}
	return v, nil
}

// parseCollection parses a comma-separated `(...)` sequence or `{...}` set,
// recursing into parseValue for each element so sequences may nest.
func (p *Parser) parseCollection(open, closeB byte, isSet bool) (label.Value, error) {
	if err := p.advance(); err != nil { // consume opening delimiter
		return nil, err
	}
	var elems []label.Value
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.Punctuation && tok.Text == string(closeB) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			break
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)

		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.Punctuation && tok.Text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if tok.Kind == token.Punctuation && tok.Text == string(closeB) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			break
		}
		return nil, &pvlerrors.ParseError{
			Pos: tok.Pos, Expected: "',' or closing delimiter", Actual: describe(tok), Dialect: p.g.Dialect,
		}
	}
	if isSet {
		return label.Set(elems), nil
	}
	return label.Sequence(elems), nil
}

func describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of input"
	}
	return tok.String()
}
