package grammar

import "testing"

func TestDialectString(t *testing.T) {
	cases := map[Dialect]string{
		PVL:  "PVL",
		ODL:  "ODL",
		PDS3: "PDS3",
		ISIS: "ISIS",
		Omni: "Omni",
	}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Errorf("Dialect(%d).String() = %q, want %q", int(d), got, want)
		}
	}
	if got := Dialect(99).String(); got != "Dialect(99)" {
		t.Errorf("unknown dialect String() = %q", got)
	}
}

func TestForMatchesConstructors(t *testing.T) {
	cases := []struct {
		d    Dialect
		want Dialect
	}{
		{PVL, PVL}, {ODL, ODL}, {PDS3, PDS3}, {ISIS, ISIS}, {Omni, Omni},
	}
	for _, c := range cases {
		g := For(c.d)
		if g.Dialect != c.want {
			t.Errorf("For(%v).Dialect = %v, want %v", c.d, g.Dialect, c.want)
		}
	}
}

func TestForUnknownDialectPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("For(unknown) did not panic")
		}
	}()
	For(Dialect(99))
}

func TestPVLStrictAndDelimiters(t *testing.T) {
	g := NewPVL()
	if !g.Strict {
		t.Error("PVL grammar should be Strict")
	}
	if !g.Delimiters.HasStatement || g.Delimiters.Statement != ';' {
		t.Error("PVL grammar should require ';' statement delimiters")
	}
	if !g.IsReserved('+') {
		t.Error("PVL should reserve '+' outside numeric literals")
	}
	if g.AllowPlusUnquoted {
		t.Error("PVL should not allow unquoted '+'")
	}
}

func TestODLDerivesFromPVLWithDifferences(t *testing.T) {
	g := NewODL()
	if g.Delimiters.HasStatement {
		t.Error("ODL should have no statement delimiter")
	}
	if g.DefaultTimezoneUTC {
		t.Error("ODL should not default timezone to UTC")
	}
	if !g.RejectLeapSecond {
		t.Error("ODL should reject leap seconds")
	}
	if !g.ValidateIdentifiers {
		t.Error("ODL should validate identifiers")
	}
	if g.AllowDoubledQuoteEscape {
		t.Error("ODL should not allow doubled-quote escaping")
	}
	if !g.AllowBackslashEscape {
		t.Error("ODL should allow backslash escaping")
	}
}

func TestPDS3DefaultsTimezoneUTC(t *testing.T) {
	g := NewPDS3()
	if !g.DefaultTimezoneUTC {
		t.Error("PDS3 should default timezone to UTC")
	}
	if !g.RejectLeapSecond {
		t.Error("PDS3 inherits ODL's leap-second rejection")
	}
}

func TestISISAllowsPlusAndDashContinuation(t *testing.T) {
	g := NewISIS()
	if !g.AllowPlusUnquoted {
		t.Error("ISIS should allow unquoted '+'")
	}
	if g.Delimiters.Continuation != '-' {
		t.Error("ISIS should support '-' dash continuation")
	}
	if g.Strict {
		t.Error("ISIS should not be Strict")
	}
	if !g.HashComment {
		t.Error("ISIS should support '#' end-of-line comments")
	}
}

func TestOmniIsPermissive(t *testing.T) {
	g := NewOmni()
	if g.Strict {
		t.Error("Omni should not be Strict")
	}
	if g.RejectLeapSecond {
		t.Error("Omni should tolerate leap seconds")
	}
	if g.ValidateIdentifiers {
		t.Error("Omni should not validate identifiers")
	}
	if !g.AllowNulAsReserved {
		t.Error("Omni should reserve NUL")
	}
	if !g.IsReserved(0x00) {
		t.Error("Omni should treat NUL as reserved")
	}
}

func TestEndKeywordFor(t *testing.T) {
	g := NewPVL()
	end, ok := g.EndKeywordFor("object")
	if !ok || end != "end_object" {
		t.Errorf("EndKeywordFor(object) = (%q, %v), want (end_object, true)", end, ok)
	}
	if _, ok := g.EndKeywordFor("not_a_keyword"); ok {
		t.Error("EndKeywordFor should report false for a non-aggregation keyword")
	}
}

func TestIsWhitespace(t *testing.T) {
	g := NewPVL()
	if !g.IsWhitespace(' ') || !g.IsWhitespace('\t') || !g.IsWhitespace('\n') {
		t.Error("space/tab/newline should be whitespace")
	}
	if g.IsWhitespace('a') {
		t.Error("'a' should not be whitespace")
	}
}
