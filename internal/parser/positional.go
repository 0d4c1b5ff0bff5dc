package parser

import (
	"strings"
	"unicode"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

const positionalFields = 4

type positionalParser struct{}

func (positionalParser) Format() Format { return FormatPositional }

// CanParse accepts anything; the positional layout is the fallback encoding.
func (positionalParser) CanParse(string) bool { return true }

func (positionalParser) Parse(lines []string) ([]machine.Record, error) {
	out := make([]machine.Record, 0, len(lines))
	for i, line := range lines {
		rowNum := i + 1
		tokens := strings.FieldsFunc(line, isSeparator)
		if len(tokens) < positionalFields {
			return nil, &InsufficientFieldsError{Row: rowNum, Got: len(tokens)}
		}
		rec := machine.Record{MachineID: tokens[0]}
		targets := []*float64{&rec.Temperature, &rec.Vibration, &rec.RuntimeHours}
		for j, col := range []string{colTemp, colVibration, colRuntime} {
			v, ok := parseFinite(tokens[j+1])
			if !ok {
				return nil, &InvalidNumericFieldError{Row: rowNum, Field: col, Value: tokens[j+1]}
			}
			*targets[j] = v
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, ErrNoValidRows
	}
	return out, nil
}

func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}
