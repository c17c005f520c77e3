// Package pvl decodes and encodes NASA PDS Parameter Value Language
// labels: PVL (CCSDS 641.0-B-2), ODL (PDS3 Ch.12), the PDS3 Label
// Standard, the de-facto ISIS cube-label dialect, and Omni, a parse-only
// superset of the first four that tolerates the quirks real-world
// producers emit.
package pvl

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/planetarypy/pvl/decoder"
	"github.com/planetarypy/pvl/encoder"
	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/label"
	"github.com/planetarypy/pvl/parser"
	"github.com/planetarypy/pvl/preamble"
)

// options collects what every Option configures. Zero value means "not
// set"; Load/Dump fill in their own defaults afterward.
type options struct {
	grammar        *grammar.Grammar
	dialect        *grammar.Dialect
	encoderDialect *grammar.Dialect
	decoderOpts    []decoder.Option
	encoding       string
	strict         *bool
}

// Option configures Load/Loads/Dump/Dumps.
type Option func(*options)

// WithGrammar selects an exact grammar.Grammar, overriding WithDialect.
func WithGrammar(g grammar.Grammar) Option {
	return func(o *options) { o.grammar = &g }
}

// WithDialect selects grammar.For(d) for parsing.
func WithDialect(d grammar.Dialect) Option {
	return func(o *options) { o.dialect = &d }
}

// WithEncoderDialect selects the dialect Dump/Dumps encodes to, independent
// of the dialect Load/Loads parsed under.
func WithEncoderDialect(d grammar.Dialect) Option {
	return func(o *options) { o.encoderDialect = &d }
}

// WithDecoder appends a decoder.Option (e.g. WithQuantityFactory) used when
// decoding scalar values during parsing.
func WithDecoder(opts ...decoder.Option) Option {
	return func(o *options) { o.decoderOpts = append(o.decoderOpts, opts...) }
}

// WithQuantityFactory is shorthand for WithDecoder(decoder.WithQuantityFactory(f)).
func WithQuantityFactory(f decoder.QuantityFactory) Option {
	return WithDecoder(decoder.WithQuantityFactory(f))
}

// WithRealFactory is shorthand for WithDecoder(decoder.WithRealFactory(f)).
func WithRealFactory(f decoder.RealFactory) Option {
	return WithDecoder(decoder.WithRealFactory(f))
}

// WithEncoding selects the source byte encoding Load/Loads assumes (see
// preamble.Scan); default is Latin-1, a safe superset of 7-bit ASCII.
func WithEncoding(enc string) Option {
	return func(o *options) { o.encoding = enc }
}

// WithStrict overrides the selected grammar's Strict flag.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = &strict }
}

func resolveGrammar(o *options, def grammar.Dialect) grammar.Grammar {
	var g grammar.Grammar
	switch {
	case o.grammar != nil:
		g = *o.grammar
	case o.dialect != nil:
		g = grammar.For(*o.dialect)
	default:
		g = grammar.For(def)
	}
	if o.strict != nil {
		g.Strict = *o.strict
	}
	return g
}

// Load reads and parses a label from source, which may be a file path
// (string), an io.Reader, or raw bytes ([]byte). It defaults to the Omni
// grammar, the most permissive parse-only dialect.
func Load(source any, opts ...Option) (*label.Module, error) {
	var r io.Reader
	switch s := source.(type) {
	case string:
		f, err := os.Open(s)
		if err != nil {
			return nil, fmt.Errorf("pvl: load %s: %w", s, err)
		}
		defer f.Close()
		r = f
	case io.Reader:
		r = s
	case []byte:
		r = bytes.NewReader(s)
	default:
		return nil, fmt.Errorf("pvl: unsupported source type %T", source)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	text, err := preamble.Scan(r, o.encoding)
	if err != nil {
		return nil, err
	}
	g := resolveGrammar(o, grammar.Omni)
	body, trailing := preamble.SplitTrailing(text, g)
	if trailing != "" {
		slog.Debug("pvl: ignoring bytes past the label's top-level END", "bytes", len(trailing))
	}
	slog.Debug("pvl: parsing label", "dialect", g.Dialect, "bytes", len(body))
	return parser.Parse(body, g, o.decoderOpts...)
}

// Loads parses a label already held as a string.
func Loads(text string, opts ...Option) (*label.Module, error) {
	return Load([]byte(text), opts...)
}

// Dump encodes m to w under the requested (or default PDS3) dialect,
// returning the number of bytes written.
func Dump(m *label.Module, w io.Writer, opts ...Option) (int64, error) {
	s, err := Dumps(m, opts...)
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, s)
	return int64(n), err
}

// Dumps encodes m to a string under the requested (or default PDS3)
// dialect.
func Dumps(m *label.Module, opts ...Option) (string, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	d := grammar.PDS3
	if o.encoderDialect != nil {
		d = *o.encoderDialect
	} else if o.dialect != nil {
		d = *o.dialect
	}
	slog.Debug("pvl: encoding label", "dialect", d)
	return encoder.Encode(m, d)
}
