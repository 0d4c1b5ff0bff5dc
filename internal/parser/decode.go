package parser

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw upload bytes to text. A UTF-8 byte order mark is dropped and
// BOM-tagged UTF-16 (as written by some spreadsheet exports) is transcoded; anything
// else is treated as UTF-8. Line endings are normalized to "\n".
func Decode(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode input: %w", err)
	}
	return normalizeNewlines(string(out)), nil
}

const bom = "\ufeff"

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
