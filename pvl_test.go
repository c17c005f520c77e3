package pvl

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/planetarypy/pvl/decoder"
	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/label"
)

func TestLoadsDefaultsToOmni(t *testing.T) {
	m, err := Loads("LINES = 100\nSAMPLES = 200\n")
	if err != nil {
		t.Fatalf("Loads: %v", err)
	}
	if v, ok := m.Get("LINES"); !ok || v != label.Integer(100) {
		t.Errorf("LINES = %#v", v)
	}
}

func TestLoadsFromBytesAndReader(t *testing.T) {
	src := []byte("A = 1\nEND\n")
	m1, err := Load(src)
	if err != nil {
		t.Fatalf("Load([]byte): %v", err)
	}
	m2, err := Load(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("Load(io.Reader): %v", err)
	}
	v1, _ := m1.Get("A")
	v2, _ := m2.Get("A")
	if v1 != v2 {
		t.Errorf("Load([]byte) and Load(io.Reader) disagree: %#v vs %#v", v1, v2)
	}
}

func TestLoadUnsupportedSourceType(t *testing.T) {
	if _, err := Load(42); err == nil {
		t.Fatal("expected an error for an unsupported source type")
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/a/label.lbl"); err == nil {
		t.Fatal("expected an error opening a nonexistent file")
	}
}

func TestWithDialectSelectsGrammar(t *testing.T) {
	_, err := Loads("KIND = _bad\nEND\n", WithDialect(grammar.ODL))
	if err == nil {
		t.Fatal("ODL validates identifier values; expected a decode error for a leading underscore")
	}
	if _, err := Loads("KIND = _bad\nEND\n", WithDialect(grammar.Omni)); err != nil {
		t.Fatalf("Omni does not validate identifiers; expected success, got: %v", err)
	}
}

func TestWithGrammarOverridesDialect(t *testing.T) {
	g := grammar.NewPVL()
	g.Strict = false
	m, err := Loads("OBJECT = X\nEND_OBJECT = Y\nEND\n", WithGrammar(g), WithDialect(grammar.ODL))
	if err != nil {
		t.Fatalf("Loads: %v", err)
	}
	if !m.Has("OBJECT") {
		t.Error("expected an OBJECT entry")
	}
}

func TestWithStrictOverridesGrammarDefault(t *testing.T) {
	src := "OBJECT = X\nEND_OBJECT = WRONG\nEND\n"
	if _, err := Loads(src, WithDialect(grammar.PVL)); err == nil {
		t.Fatal("PVL defaults to Strict; expected mismatched block name to error")
	}
	if _, err := Loads(src, WithDialect(grammar.PVL), WithStrict(false)); err != nil {
		t.Fatalf("WithStrict(false) should tolerate the mismatch: %v", err)
	}
}

func TestWithEncodingSelectsSourceCharset(t *testing.T) {
	m, err := Loads("NOTE = \"caf\xc3\xa9\"\nEND\n", WithEncoding("utf-8"))
	if err != nil {
		t.Fatalf("Loads: %v", err)
	}
	v, _ := m.Get("NOTE")
	s, ok := v.(label.String)
	if !ok || !strings.Contains(s.Value, "café") {
		t.Errorf("NOTE = %#v", v)
	}
}

func TestWithQuantityFactoryPropagates(t *testing.T) {
	called := false
	factory := func(value label.Value, units string) (label.Value, error) {
		called = true
		return label.Quantity{Scalar: value, Units: units}, nil
	}
	_, err := Loads("RATE = 5 <m/s>\nEND\n", WithQuantityFactory(factory))
	if err != nil {
		t.Fatalf("Loads: %v", err)
	}
	if !called {
		t.Error("expected the custom QuantityFactory to be invoked")
	}
}

func TestWithRealFactoryErrorPropagates(t *testing.T) {
	sentinel := errors.New("boom")
	factory := func(raw string) (any, error) {
		return nil, sentinel
	}
	_, err := Loads("PI = 3.14\nEND\n", WithRealFactory(factory))
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want it to wrap the sentinel error", err)
	}
}

func TestWithDecoderAppendsOptions(t *testing.T) {
	sentinel := errors.New("nope")
	m, err := Loads(
		"A = 1\nB = 2\nEND\n",
		WithDecoder(decoder.WithRealFactory(func(string) (any, error) {
			return nil, sentinel
		})),
	)
	if err != nil {
		t.Fatalf("Loads should succeed when no real literals are present: %v", err)
	}
	if v, ok := m.Get("A"); !ok || v != label.Integer(1) {
		t.Errorf("A = %#v", v)
	}
}

func TestDumpsDefaultsToPDS3(t *testing.T) {
	m := label.NewModule()
	m.Append("LINES", label.Integer(100))
	out, err := Dumps(m)
	if err != nil {
		t.Fatalf("Dumps: %v", err)
	}
	if !strings.Contains(out, "LINES = 100") || !strings.HasSuffix(out, "END\n\n") {
		t.Errorf("Dumps() = %q", out)
	}
}

func TestWithEncoderDialectOverridesOutput(t *testing.T) {
	m := label.NewModule()
	m.Append("LINES", label.Integer(100))
	out, err := Dumps(m, WithDialect(grammar.ODL), WithEncoderDialect(grammar.PVL))
	if err != nil {
		t.Fatalf("Dumps: %v", err)
	}
	if !strings.Contains(out, "LINES = 100;") {
		t.Errorf("Dumps() = %q, want PVL-style output despite WithDialect(ODL)", out)
	}
}

func TestDumpWritesToWriter(t *testing.T) {
	m := label.NewModule()
	m.Append("LINES", label.Integer(100))
	var buf bytes.Buffer
	n, err := Dump(m, &buf, WithEncoderDialect(grammar.PVL))
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if int(n) != buf.Len() {
		t.Errorf("Dump returned n=%d, buf has %d bytes", n, buf.Len())
	}
	if !strings.Contains(buf.String(), "LINES = 100;") {
		t.Errorf("buf = %q", buf.String())
	}
}

func TestRoundTripLoadsDumps(t *testing.T) {
	m, err := Loads("LINES = 100\nSAMPLES = 200\n", WithDialect(grammar.PVL))
	if err != nil {
		t.Fatalf("Loads: %v", err)
	}
	out, err := Dumps(m, WithEncoderDialect(grammar.PVL))
	if err != nil {
		t.Fatalf("Dumps: %v", err)
	}
	m2, err := Loads(out, WithDialect(grammar.PVL))
	if err != nil {
		t.Fatalf("Loads(round-trip): %v", err)
	}
	if !m.Equal(m2) {
		t.Errorf("round trip produced a different module:\nfirst:  %#v\nsecond: %#v", m, m2)
	}
}
