package lexer

import (
	"testing"

	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/token"
)

func allTokens(t *testing.T, src string, g grammar.Grammar) []token.Token {
	t.Helper()
	l := New(src, g)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestLexerSimpleAssignment(t *testing.T) {
	toks := allTokens(t, `LINES = 100`, grammar.NewPVL())
	want := []token.Kind{token.Identifier, token.Punctuation, token.Number, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d kind = %v, want %v (%v)", i, toks[i].Kind, k, toks[i])
		}
	}
	if toks[0].Text != "LINES" || toks[2].Text != "100" {
		t.Errorf("unexpected token text: %v", toks)
	}
}

func TestLexerNumberVsDateIdentifier(t *testing.T) {
	g := grammar.NewPVL()
	toks := allTokens(t, `100 2020-01-02 2020-001T12:00:00Z 3.14 16#FF#`, g)
	kinds := []token.Kind{
		token.Number, token.Identifier, token.Identifier, token.Number, token.Number, token.EOF,
	}
	if len(toks) != len(kinds) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(kinds), toks)
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Errorf("token %d (%q) kind = %v, want %v", i, toks[i].Text, toks[i].Kind, k)
		}
	}
}

func TestLexerQuotedStringEscaping(t *testing.T) {
	g := grammar.NewPVL() // doubled-quote escape, no backslash escape
	toks := allTokens(t, `"it""s fine"`, g)
	if toks[0].Kind != token.QuotedString {
		t.Fatalf("expected QuotedString, got %v", toks[0])
	}
	if toks[0].Text != `"it""s fine"` {
		t.Errorf("raw quoted text = %q", toks[0].Text)
	}
}

func TestLexerBackslashEscapeUnderODL(t *testing.T) {
	g := grammar.NewODL()
	toks := allTokens(t, `"it\"s fine"`, g)
	if toks[0].Kind != token.QuotedString {
		t.Fatalf("expected QuotedString, got %v", toks[0])
	}
	if toks[0].Text != `"it\"s fine"` {
		t.Errorf("raw quoted text = %q", toks[0].Text)
	}
}

func TestLexerUnterminatedQuoteErrors(t *testing.T) {
	g := grammar.NewPVL()
	l := New(`"unterminated`, g)
	if _, err := l.Next(); err == nil {
		t.Fatal("expected lex error for unterminated quoted string")
	}
}

func TestLexerComments(t *testing.T) {
	g := grammar.NewPVL()
	toks := allTokens(t, "A = 1 /* a comment */\nB = 2", g)
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []token.Kind{
		token.Identifier, token.Punctuation, token.Number, token.Newline,
		token.Identifier, token.Punctuation, token.Number, token.EOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexerHashCommentUnderISIS(t *testing.T) {
	g := grammar.NewISIS()
	toks := allTokens(t, "A = 1 # trailing comment\nB = 2", g)
	if toks[0].Text != "A" || toks[2].Text != "1" {
		t.Fatalf("unexpected tokens: %v", toks)
	}
	// the comment should vanish entirely, leaving a single Newline before B
	foundB := false
	for _, tok := range toks {
		if tok.Kind == token.Identifier && tok.Text == "B" {
			foundB = true
		}
	}
	if !foundB {
		t.Errorf("expected a B token after the comment line: %v", toks)
	}
}

func TestLexerCollapsesBlankLines(t *testing.T) {
	g := grammar.NewPVL()
	toks := allTokens(t, "A = 1\n\n\nB = 2", g)
	newlineCount := 0
	for _, tok := range toks {
		if tok.Kind == token.Newline {
			newlineCount++
		}
	}
	if newlineCount != 1 {
		t.Errorf("expected a run of blank lines to collapse to one Newline token, got %d", newlineCount)
	}
}

func TestLexerDashContinuationUnderISIS(t *testing.T) {
	g := grammar.NewISIS()
	toks := allTokens(t, "ABC-\n   DEF = 1", g)
	if toks[0].Kind != token.Identifier || toks[0].Text != "ABCDEF" {
		t.Fatalf("expected dash-continuation to join ABC and DEF, got %v", toks[0])
	}
}

func TestLexerPlusHandling(t *testing.T) {
	pvl := grammar.NewPVL()
	l := New("+", pvl)
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != token.Reserved {
		t.Errorf("bare '+' under PVL should be Reserved, got %v", tok)
	}

	isis := grammar.NewISIS()
	toks := allTokens(t, "A+B = 1", isis)
	if toks[0].Kind != token.Identifier || toks[0].Text != "A+B" {
		t.Errorf("ISIS should allow unquoted '+' inside a bare token, got %v", toks[0])
	}
}

func TestLexerReservedCharError(t *testing.T) {
	g := grammar.NewPVL()
	l := New("#bad", g)
	if _, err := l.Next(); err == nil {
		t.Fatal("bare '#' outside a based-integer literal should be a lex error")
	}
}

func TestScanUnitsText(t *testing.T) {
	g := grammar.NewPVL()
	l := New("<m / s>", g)
	// consume the '<' as an ordinary token first, the way the parser does
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if tok.Kind != token.Punctuation || tok.Text != "<" {
		t.Fatalf("expected UnitsOpen punctuation, got %v", tok)
	}
	units, _, err := l.ScanUnitsText()
	if err != nil {
		t.Fatalf("ScanUnitsText() error: %v", err)
	}
	if units != "m / s" {
		t.Errorf("ScanUnitsText() = %q, want %q", units, "m / s")
	}
	if !l.AtEOF() {
		t.Error("expected AtEOF after consuming units text")
	}
}

func TestAtEOFSkipsTrailingWhitespaceAndComments(t *testing.T) {
	g := grammar.NewPVL()
	l := New("   /* trailing */  ", g)
	if !l.AtEOF() {
		t.Error("AtEOF should skip trailing whitespace/comments")
	}
}
