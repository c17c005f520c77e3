// Package testutil provides a YAML-fixture-driven test harness for the pvl
// packages: each fixture names a dialect, an input label, and either the
// error it must produce or the keys/values it must decode to.
package testutil

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/planetarypy/pvl/encoder"
	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/label"
	"github.com/planetarypy/pvl/parser"
	"github.com/planetarypy/pvl/util"
)

func init() {
	util.InitSlog()
	if os.Getenv("LOG_LEVEL") == "" {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
		slog.SetDefault(slog.New(handler))
	}
}

// TestCase is one fixture: a label source under one dialect, plus the
// expected outcome of parsing it.
type TestCase struct {
	Dialect string `yaml:"dialect"`
	Input   string `yaml:"input"`

	// WantError, when set, is a substring every produced error must
	// contain; the fixture fails if parsing succeeds or the message
	// doesn't contain it.
	WantError string `yaml:"want_error,omitempty"`

	// WantKeys maps a top-level parameter name to the %v-formatted text
	// its decoded value must produce. Order is not checked here; use
	// WantRoundTrip for order-sensitive checks.
	WantKeys map[string]string `yaml:"want_keys,omitempty"`

	// WantRoundTrip, when true, asserts that encoding the parsed tree
	// back out under Dialect reproduces byte-for-byte the Input (after
	// trimming trailing newlines from both). Only meaningful for dialects that
	// have an encoder Profile.
	WantRoundTrip bool `yaml:"want_round_trip,omitempty"`
}

// ReadTests loads every "name: {...}" fixture from YAML files matching
// pattern, erroring on duplicate names across files.
func ReadTests(pattern string) (map[string]TestCase, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	ret := map[string]TestCase{}
	owner := map[string]string{}
	for _, file := range files {
		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var cases map[string]TestCase
		if err := yaml.NewDecoder(bytes.NewReader(buf)).Decode(&cases); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		for name, tc := range cases {
			if existing, ok := owner[name]; ok {
				return nil, fmt.Errorf("duplicate test case %q: defined in both %q and %q", name, existing, file)
			}
			owner[name] = file
			ret[name] = tc
		}
	}
	return ret, nil
}

func dialectByName(name string) (grammar.Dialect, error) {
	switch strings.ToUpper(name) {
	case "PVL":
		return grammar.PVL, nil
	case "ODL":
		return grammar.ODL, nil
	case "PDS3":
		return grammar.PDS3, nil
	case "ISIS":
		return grammar.ISIS, nil
	case "OMNI", "":
		return grammar.Omni, nil
	default:
		return 0, fmt.Errorf("testutil: unknown dialect %q", name)
	}
}

// RunTest parses tc.Input under tc.Dialect and checks it against tc's
// expectations.
func RunTest(t *testing.T, tc TestCase) {
	t.Helper()

	d, err := dialectByName(tc.Dialect)
	require.NoError(t, err)
	g := grammar.For(d)

	m, err := parser.Parse(tc.Input, g)

	if tc.WantError != "" {
		require.Error(t, err)
		assert.Contains(t, err.Error(), tc.WantError)
		return
	}
	require.NoError(t, err)
	require.NotNil(t, m)

	for key, want := range tc.WantKeys {
		v, ok := m.Get(key)
		if !assert.True(t, ok, "missing key %q", key) {
			continue
		}
		assert.Equal(t, want, fmt.Sprint(v), "key %q", key)
	}

	if tc.WantRoundTrip {
		out, err := encoder.Encode(m, d)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimRight(tc.Input, "\n"), strings.TrimRight(out, "\n"))
	}
}

// RunAll runs every fixture loaded from pattern as its own subtest.
func RunAll(t *testing.T, pattern string) {
	t.Helper()
	cases, err := ReadTests(pattern)
	require.NoError(t, err)
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			RunTest(t, tc)
		})
	}
}

// ModuleKeys returns m's entry keys in insertion order, handy for
// assertions that care about ordering without a full Equal comparison.
func ModuleKeys(m *label.Module) []string {
	entries := m.Entries()
	return util.TransformSlice(entries, func(e label.Entry) string { return e.Key })
}
