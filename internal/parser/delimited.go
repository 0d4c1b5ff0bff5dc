package parser

import (
	"strings"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

const (
	colMachineID = "machine_id"
	colTemp      = "temp"
	colVibration = "vibration"
	colRuntime   = "runtime"
)

var requiredColumns = []string{colMachineID, colTemp, colVibration, colRuntime}

type delimitedParser struct{}

func (delimitedParser) Format() Format { return FormatDelimited }

func (delimitedParser) CanParse(firstLine string) bool { return LooksDelimited(firstLine) }

// rawRow maps a lowercased header name to the trimmed cell of one data row.
type rawRow map[string]string

func (delimitedParser) Parse(lines []string) ([]machine.Record, error) {
	if len(lines) < 2 {
		return nil, ErrMissingHeaderRow
	}
	header := splitTrim(lines[0])
	for i := range header {
		header[i] = strings.ToLower(header[i])
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, c := range requiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Names: missing}
	}

	out := make([]machine.Record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		// the header is row 1
		rowNum := i + 2
		cells := splitTrim(line)
		if len(cells) != len(header) {
			return nil, &ColumnCountMismatchError{Row: rowNum, Got: len(cells), Expected: len(header)}
		}
		row := make(rawRow, len(header))
		for j, h := range header {
			// first occurrence wins for duplicated header names
			if _, ok := row[h]; !ok {
				row[h] = cells[j]
			}
		}
		rec, err := row.record(rowNum)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r rawRow) record(rowNum int) (machine.Record, error) {
	var nums [3]float64
	for i, col := range []string{colTemp, colVibration, colRuntime} {
		v, ok := parseFinite(r[col])
		if !ok {
			return machine.Record{}, &InvalidNumericFieldError{Row: rowNum, Field: col, Value: r[col]}
		}
		nums[i] = v
	}
	id := r[colMachineID]
	if id == "" {
		return machine.Record{}, &MissingMachineIDError{Row: rowNum}
	}
	return machine.Record{
		MachineID:    id,
		Temperature:  nums[0],
		Vibration:    nums[1],
		RuntimeHours: nums[2],
	}, nil
}

func splitTrim(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
