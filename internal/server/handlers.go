package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/KaramelBytes/fleetrisk-cli/internal/analysis"
	"github.com/KaramelBytes/fleetrisk-cli/internal/export"
	"github.com/KaramelBytes/fleetrisk-cli/internal/fleet"
	"github.com/KaramelBytes/fleetrisk-cli/internal/ingest"
	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
	"github.com/KaramelBytes/fleetrisk-cli/internal/parser"
	"github.com/KaramelBytes/fleetrisk-cli/internal/risk"
	"github.com/gorilla/mux"
)

// DefaultMaxUploadBytes caps request bodies when Handlers.MaxUploadBytes is unset.
const DefaultMaxUploadBytes int64 = 8 << 20

const kindBodyTooLarge = "body_too_large"

// Handlers serves the HTTP API. Classifier is shared across requests.
type Handlers struct {
	Log            *slog.Logger
	Classifier     *risk.Classifier
	Store          *fleet.Store
	Metrics        *Metrics
	MaxRows        int
	MaxUploadBytes int64
	// Format is used when a request carries no ?format= parameter.
	Format parser.Format
}

type classifyResponse struct {
	BatchID  string           `json:"batch_id"`
	Format   string           `json:"format"`
	Count    int              `json:"count"`
	Counts   map[string]int   `json:"counts"`
	Machines []machine.Scored `json:"machines"`
}

type uploadResponse struct {
	Fleet    string         `json:"fleet"`
	BatchID  string         `json:"batch_id"`
	Format   string         `json:"format"`
	Count    int            `json:"count"`
	Counts   map[string]int `json:"counts"`
	Uploaded time.Time      `json:"uploaded_at"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ts": time.Now().UTC()})
}

// Classify scores an uploaded body without storing it.
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) {
	b, ok := h.ingest(w, r, "classify")
	if !ok {
		return
	}
	if wantsCSV(r) {
		h.writeExport(w, export.FormatCSV, b.Machines)
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{
		BatchID:  b.ID,
		Format:   b.Format,
		Count:    len(b.Machines),
		Counts:   levelCounts(b.Machines),
		Machines: nonNil(b.Machines),
	})
}

// UploadFleet replaces a fleet's machines with the classified body.
func (h *Handlers) UploadFleet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := fleet.ValidateName(name); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	b, ok := h.ingest(w, r, name)
	if !ok {
		return
	}
	f, err := h.Store.Upload(name, b)
	if err != nil {
		h.internalError(w, "save fleet", err)
		return
	}
	h.Log.Info("fleet replaced", "fleet", name, "batch_id", b.ID, "rows", len(b.Machines))
	writeJSON(w, http.StatusOK, uploadResponse{
		Fleet:    f.Name,
		BatchID:  b.ID,
		Format:   b.Format,
		Count:    len(b.Machines),
		Counts:   levelCounts(b.Machines),
		Uploaded: b.CreatedAt,
	})
}

func (h *Handlers) ListFleets(w http.ResponseWriter, r *http.Request) {
	names, err := h.Store.List()
	if err != nil {
		h.internalError(w, "list fleets", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fleets": names})
}

// FleetMachines returns a fleet's stored machines, optionally filtered by ?level=.
func (h *Handlers) FleetMachines(w http.ResponseWriter, r *http.Request) {
	f, ok := h.openFleet(w, r)
	if !ok {
		return
	}
	var level machine.RiskLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		l, ok := machine.ParseRiskLevel(raw)
		if !ok {
			h.badRequest(w, fmt.Sprintf("unknown risk level %q", raw))
			return
		}
		level = l
	}
	recs := f.Filter(level)
	out := export.FormatJSON
	if raw := r.URL.Query().Get("output"); raw != "" {
		ef, err := export.ParseFormat(raw)
		if err != nil {
			h.badRequest(w, err.Error())
			return
		}
		out = ef
	} else if wantsCSV(r) {
		out = export.FormatCSV
	}
	h.writeExport(w, out, recs)
}

// FleetSummary renders a Markdown report for a fleet.
func (h *Handlers) FleetSummary(w http.ResponseWriter, r *http.Request) {
	f, ok := h.openFleet(w, r)
	if !ok {
		return
	}
	rep := analysis.Summarize(f.Name, f.Machines, analysis.DefaultOptions())
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, rep.Markdown())
}

// ingest reads, parses and classifies the request body, writing an error response
// and returning false on failure.
func (h *Handlers) ingest(w http.ResponseWriter, r *http.Request, source string) (*ingest.Batch, bool) {
	format := h.Format
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := parser.ParseFormat(raw)
		if err != nil {
			h.badRequest(w, err.Error())
			return nil, false
		}
		format = f
	}

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.Metrics.Upload(kindBodyTooLarge, nil)
			h.Log.Warn("upload rejected", "source", source, "kind", kindBodyTooLarge, "limit", limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Error: fmt.Sprintf("request body exceeds %d bytes", limit),
				Kind:  kindBodyTooLarge,
			})
			return nil, false
		}
		h.badRequest(w, "read body: "+err.Error())
		return nil, false
	}
	text, err := parser.Decode(body)
	if err != nil {
		h.badRequest(w, err.Error())
		return nil, false
	}

	b, err := ingest.Run(r.Context(), text, h.Classifier, ingest.Options{
		Format:  format,
		MaxRows: h.MaxRows,
		Source:  source,
		Logger:  h.Log,
	})
	if err != nil {
		h.rejectUpload(w, source, err)
		return nil, false
	}
	h.Metrics.Upload("ok", b.Machines)
	return b, true
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (h *Handlers) rejectUpload(w http.ResponseWriter, source string, err error) {
	kind := parser.KindOf(err)
	status := http.StatusUnprocessableEntity
	switch {
	case kind == ingest.KindTooManyRows:
		status = http.StatusRequestEntityTooLarge
	case kind != "":
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.Log.Warn("upload abandoned", "source", source, "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "request canceled"})
		return
	default:
		h.internalError(w, "ingest", err)
		return
	}
	h.Metrics.Upload(kind, nil)
	h.Log.Warn("upload rejected", "source", source, "kind", kind, "err", err)
	writeJSON(w, status, errorBody{Error: strings.TrimPrefix(err.Error(), "parse: "), Kind: kind})
}

func (h *Handlers) openFleet(w http.ResponseWriter, r *http.Request) (*fleet.Fleet, bool) {
	name := mux.Vars(r)["name"]
	f, err := h.Store.Open(name)
	if err == nil {
		return f, true
	}
	if errors.Is(err, fleet.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("fleet %q not found", name)})
		return nil, false
	}
	if fleet.ValidateName(name) != nil {
		h.badRequest(w, err.Error())
		return nil, false
	}
	h.internalError(w, "open fleet", err)
	return nil, false
}

func (h *Handlers) writeExport(w http.ResponseWriter, f export.Format, recs []machine.Scored) {
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, f, recs); err != nil {
		h.Log.Error("write export", "format", string(f), "err", err)
	}
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.Log.Warn("bad request", "error", msg)
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func (h *Handlers) internalError(w http.ResponseWriter, op string, err error) {
	h.Log.Error(op, "err", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func wantsCSV(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("output"), "csv") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}

func levelCounts(recs []machine.Scored) map[string]int {
	out := make(map[string]int, len(machine.Levels))
	for _, l := range machine.Levels {
		out[string(l)] = 0
	}
	for l, n := range machine.CountByLevel(recs) {
		out[string(l)] = n
	}
	return out
}

func nonNil(recs []machine.Scored) []machine.Scored {
	if recs == nil {
		return []machine.Scored{}
	}
	return recs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
