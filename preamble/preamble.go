// Package preamble reads raw label bytes into decoded text and locates the
// extent of a label's body — the byte offset just past its top-level END
// statement — without invoking the full parser twice.
package preamble

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/planetarypy/pvl/grammar"
)

// replacementByte stands in for a byte that cannot be decoded under the
// requested encoding, so a malformed label still yields text the lexer can
// report a precise position against instead of Scan failing outright.
const replacementByte = '?'

// namedEncodings covers the encodings PDS3/ISIS/ODL producers actually use.
// ASCII-only labels pass through any of these identically, so "ascii" is
// accepted as an alias for Latin-1 (ISO-8859-1), a strict superset.
var namedEncodings = map[string]encoding.Encoding{
	"":           charmap.ISO8859_1,
	"ascii":      charmap.ISO8859_1,
	"us-ascii":   charmap.ISO8859_1,
	"latin1":     charmap.ISO8859_1,
	"iso-8859-1": charmap.ISO8859_1,
	"utf-8":      unicode.UTF8,
	"utf8":       unicode.UTF8,
}

// Scan reads all of r and decodes it to text under the named encoding
// (empty defaults to Latin-1, a safe superset of the 7-bit ASCII PDS3
// mandates). If the decoder reports an error, the raw bytes are used
// instead, with every byte outside 7-bit ASCII replaced by replacementByte,
// rather than aborting the read, so callers see a lex/parse error at a real
// position instead of an opaque decode failure.
func Scan(r io.Reader, enc string) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("preamble: read: %w", err)
	}
	codec, ok := namedEncodings[strings.ToLower(enc)]
	if !ok {
		return "", fmt.Errorf("preamble: unknown encoding %q", enc)
	}
	decoded, err := codec.NewDecoder().Bytes(raw)
	if err != nil {
		decoded = sanitizeToASCII(raw)
	}
	return string(decoded), nil
}

func sanitizeToASCII(raw []byte) []byte {
	out := make([]byte, len(raw))
	for i, b := range raw {
		if b < 0x80 {
			out[i] = b
		} else {
			out[i] = replacementByte
		}
	}
	return out
}

// Extent returns the byte offset in text immediately following the first
// top-level END statement recognized under g, scanning only brace/paren/
// quote nesting depth rather than running the full parser. It returns
// len(text) if no top-level END is found (the whole input is the label).
func Extent(text string, g grammar.Grammar) (int, error) {
	depth := 0
	var inQuote byte
	i := 0
	for i < len(text) {
		b := text[i]
		if inQuote != 0 {
			if b == inQuote {
				inQuote = 0
			}
			i++
			continue
		}
		if isQuoteByte(b, g) {
			inQuote = b
			i++
			continue
		}
		switch b {
		case g.Delimiters.SeqOpen, g.Delimiters.SetOpen:
			depth++
		case g.Delimiters.SeqClose, g.Delimiters.SetClose:
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && isWordBoundaryEnd(text, i, g) {
			return i + 3, nil
		}
		i++
	}
	return len(text), nil
}

func isQuoteByte(b byte, g grammar.Grammar) bool {
	for _, q := range g.Quotes {
		if q == b {
			return true
		}
	}
	return false
}

// isWordBoundaryEnd reports whether text[i:i+3] is the case-insensitive
// keyword "END" bounded by whitespace/start-of-text on the left and
// whitespace/EOF/statement-delimiter on the right — ruling out matches
// inside longer identifiers like "END_OBJECT".
func isWordBoundaryEnd(text string, i int, g grammar.Grammar) bool {
	if i+3 > len(text) {
		return false
	}
	if !strings.EqualFold(text[i:i+3], "end") {
		return false
	}
	if i > 0 && !g.IsWhitespace(text[i-1]) {
		return false
	}
	if i+3 < len(text) {
		next := text[i+3]
		if !g.IsWhitespace(next) && !(g.Delimiters.HasStatement && next == g.Delimiters.Statement) {
			return false
		}
	}
	return true
}

// SplitTrailing divides text into the label body (through and including
// its top-level END) and whatever trailing bytes follow it, using Extent.
func SplitTrailing(text string, g grammar.Grammar) (body, trailing string) {
	n, _ := Extent(text, g)
	return text[:n], text[n:]
}
