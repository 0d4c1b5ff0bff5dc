// Package parser turns uploaded sensor text into validated machine records.
//
// Two encodings are understood: a comma-delimited table whose first row names the
// columns, and a positional layout with one machine per line. Parsing stops at the
// first bad row; there is no partial result.
package parser

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

// Format identifies an input encoding.
type Format int

const (
	// FormatAuto sniffs the first non-blank line to pick an encoding.
	FormatAuto Format = iota
	// FormatDelimited is comma-separated with a header row.
	FormatDelimited
	// FormatPositional is whitespace/comma separated without a header.
	FormatPositional
)

func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatPositional:
		return "positional"
	default:
		return "auto"
	}
}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "delimited", "csv", "header":
		return FormatDelimited, nil
	case "positional", "plain", "whitespace":
		return FormatPositional, nil
	default:
		return FormatAuto, fmt.Errorf("unsupported format: %s (use auto|delimited|positional)", s)
	}
}

// Parser defines an encoding-specific row parser.
type Parser interface {
	Format() Format
	// CanParse reports whether the first non-blank line looks like this encoding.
	CanParse(firstLine string) bool
	// Parse converts the non-blank lines of an upload into records.
	Parse(lines []string) ([]machine.Record, error)
}

var registry []Parser

// Register adds a parser implementation to the registry. Detection tries parsers in
// registration order, so catch-all encodings must be registered last.
func Register(p Parser) {
	registry = append(registry, p)
}

func init() {
	Register(delimitedParser{})
	Register(positionalParser{})
}

// Parse detects the encoding of text and returns its records in file order.
func Parse(text string) ([]machine.Record, error) {
	return ParseAs(text, FormatAuto)
}

// ParseAs parses text using the given format, sniffing only for FormatAuto.
func ParseAs(text string, format Format) ([]machine.Record, error) {
	recs, _, err := parse(text, format)
	return recs, err
}

// ParseDetailed is ParseAs that also reports the encoding that was used.
func ParseDetailed(text string, format Format) ([]machine.Record, Format, error) {
	return parse(text, format)
}

func parse(text string, format Format) ([]machine.Record, Format, error) {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return nil, format, ErrEmptyInput
	}
	p := lookup(format, lines[0])
	if p == nil {
		return nil, format, fmt.Errorf("no parser registered for format %s", format)
	}
	recs, err := p.Parse(lines)
	if err != nil {
		return nil, p.Format(), err
	}
	return recs, p.Format(), nil
}

// Detect reports which encoding the first non-blank line of text implies.
func Detect(text string) Format {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return FormatAuto
	}
	if p := lookup(FormatAuto, lines[0]); p != nil {
		return p.Format()
	}
	return FormatAuto
}

func lookup(format Format, firstLine string) Parser {
	for _, p := range registry {
		if format == FormatAuto {
			if p.CanParse(firstLine) {
				return p
			}
			continue
		}
		if p.Format() == format {
			return p
		}
	}
	return nil
}

// LooksDelimited is the header sniffing rule: the line mentions machine_id
// (any case) and contains a comma.
func LooksDelimited(line string) bool {
	return strings.Contains(strings.ToLower(line), colMachineID) && strings.Contains(line, ",")
}

// ReadFile reads an upload from disk and decodes it to text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return Decode(data)
}

// ParseFile reads, decodes and parses an upload from disk.
func ParseFile(path string, format Format) ([]machine.Record, Format, error) {
	text, err := ReadFile(path)
	if err != nil {
		return nil, format, err
	}
	return parse(text, format)
}

// nonBlankLines accepts \n, \r\n and bare \r line endings and ignores a leading
// byte order mark, so text that skipped Decode still splits correctly.
func nonBlankLines(text string) []string {
	text = strings.TrimPrefix(text, bom)
	raw := strings.Split(normalizeNewlines(text), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// parseFinite accepts any float syntax strconv understands but rejects NaN,
// infinities and out-of-range values.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
