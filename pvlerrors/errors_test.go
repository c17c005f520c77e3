package pvlerrors

import (
	"errors"
	"strings"
	"testing"

	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/token"
)

func TestLexerErrorMessage(t *testing.T) {
	e := &LexerError{
		Pos:      token.Position{Line: 2, Column: 5},
		Found:    '#',
		Expected: "identifier",
		Snippet:  "ABC #DEF",
		Dialect:  grammar.PVL,
	}
	msg := e.Error()
	for _, want := range []string{"2:5", "PVL", "identifier", "ABC #DEF"} {
		if !strings.Contains(msg, want) {
			t.Errorf("LexerError.Error() = %q, want substring %q", msg, want)
		}
	}
}

func TestParseErrorMessage(t *testing.T) {
	e := &ParseError{
		Pos: token.Position{Line: 1, Column: 1}, Expected: "'='", Actual: "end of input", Dialect: grammar.ODL,
	}
	msg := e.Error()
	if !strings.Contains(msg, "'='") || !strings.Contains(msg, "end of input") || !strings.Contains(msg, "ODL") {
		t.Errorf("ParseError.Error() = %q", msg)
	}
}

func TestDecodeErrorUnwrapAndMessage(t *testing.T) {
	cause := errors.New("boom")
	e := &DecodeError{
		Pos: token.Position{Line: 1, Column: 1}, TokenText: "1#2#", Target: "based integer", Dialect: grammar.PDS3, Cause: cause,
	}
	if !errors.Is(e, cause) {
		t.Error("DecodeError should unwrap to its Cause")
	}
	msg := e.Error()
	if !strings.Contains(msg, "1#2#") || !strings.Contains(msg, "boom") {
		t.Errorf("DecodeError.Error() = %q", msg)
	}

	noCause := &DecodeError{TokenText: "x", Target: "integer", Dialect: grammar.PVL}
	if strings.Contains(noCause.Error(), "<nil>") {
		t.Errorf("DecodeError.Error() with no cause should omit a nil cause: %q", noCause.Error())
	}
}

func TestEncodeErrorKeyPath(t *testing.T) {
	e := &EncodeError{KeyPath: []string{"IMAGE", "LINES"}, Rule: "must be positive", Dialect: grammar.PDS3}
	if got, want := e.Error(), "pvl: encode error (PDS3) for IMAGE.LINES: must be positive"; got != want {
		t.Errorf("EncodeError.Error() = %q, want %q", got, want)
	}

	root := &EncodeError{Rule: "bad root", Dialect: grammar.PVL}
	if !strings.Contains(root.Error(), "<root>") {
		t.Errorf("EncodeError.Error() with empty KeyPath = %q, want <root>", root.Error())
	}
}

func TestQuantityErrorUnwrap(t *testing.T) {
	cause := errors.New("bad units")
	e := &QuantityError{Units: "m/s", Cause: cause}
	if !errors.Is(e, cause) {
		t.Error("QuantityError should unwrap to its Cause")
	}
	if !strings.Contains(e.Error(), "m/s") {
		t.Errorf("QuantityError.Error() = %q", e.Error())
	}
}
