package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
)

// Header is the column order of CSV exports.
var Header = []string{"machine_id", "temp", "vibration", "runtime", "risk_level", "risk_score", "prediction_confidence"}

// ParseFormat resolves an export format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatNDJSON, "jsonl":
		return FormatNDJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s (use csv|json|ndjson)", s)
	}
}

// ContentType returns the MIME type for an export format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatNDJSON:
		return "application/x-ndjson"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Write encodes recs to w in the given format.
func Write(w io.Writer, f Format, recs []machine.Scored) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, recs)
	case FormatNDJSON:
		return WriteNDJSON(w, recs)
	default:
		return WriteCSV(w, recs)
	}
}

// WriteCSV writes a header row followed by one row per record. Scores and
// confidences carry three decimals; sensor values use their shortest exact form.
func WriteCSV(w io.Writer, recs []machine.Scored) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range recs {
		row := []string{
			r.MachineID,
			formatReading(r.Temperature),
			formatReading(r.Vibration),
			formatReading(r.RuntimeHours),
			string(r.RiskLevel),
			strconv.FormatFloat(r.RiskScore, 'f', 3, 64),
			strconv.FormatFloat(r.PredictionConfidence, 'f', 3, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON writes recs as one indented JSON array.
func WriteJSON(w io.Writer, recs []machine.Scored) error {
	if recs == nil {
		recs = []machine.Scored{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteNDJSON writes one JSON object per line.
func WriteNDJSON(w io.Writer, recs []machine.Scored) error {
	enc := json.NewEncoder(w)
	for i, r := range recs {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode ndjson row %d: %w", i+1, err)
		}
	}
	return nil
}

func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
