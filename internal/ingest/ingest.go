package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
	"github.com/KaramelBytes/fleetrisk-cli/internal/parser"
	"github.com/KaramelBytes/fleetrisk-cli/internal/risk"
	"github.com/google/uuid"
)

// DefaultMaxRows is the largest submission accepted when Options.MaxRows is unset.
const DefaultMaxRows = 10000

const (
	KindTooManyRows     = "too_many_rows"
	KindEmptySubmission = "empty_submission"
)

// ErrEmptySubmission guards against a parse that succeeded with zero rows.
var ErrEmptySubmission = &emptySubmissionError{}

type emptySubmissionError struct{}

func (*emptySubmissionError) Error() string { return "submission contains no machine records" }
func (*emptySubmissionError) Kind() string  { return KindEmptySubmission }

// TooManyRowsError rejects a submission above the row limit.
type TooManyRowsError struct {
	Rows  int
	Limit int
}

func (e *TooManyRowsError) Error() string {
	return fmt.Sprintf("submission has %d rows, limit is %d", e.Rows, e.Limit)
}

func (e *TooManyRowsError) Kind() string { return KindTooManyRows }

// CheckSize applies the submission size policy to a parsed row count.
func CheckSize(rows, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxRows
	}
	if rows > limit {
		return &TooManyRowsError{Rows: rows, Limit: limit}
	}
	if rows == 0 {
		return ErrEmptySubmission
	}
	return nil
}

// Stage names one step of the ingest sequence.
type Stage string

const (
	StageParsing     Stage = "parsing"
	StageValidating  Stage = "validating"
	StageClassifying Stage = "classifying"
	StageDone        Stage = "done"
)

// ProgressFunc receives a stage and an overall completion percentage.
type ProgressFunc func(stage Stage, percent int)

// Options controls a single ingest run.
type Options struct {
	Format   parser.Format
	MaxRows  int
	Progress ProgressFunc
	// StageDelay pauses before each stage; used to pace progress displays.
	StageDelay time.Duration
	// Source is a free-form label for the upload (file name, remote address).
	Source string
	Logger *slog.Logger
}

// Batch is the complete result of one upload.
type Batch struct {
	ID        string           `json:"batch_id"`
	Source    string           `json:"source,omitempty"`
	Format    string           `json:"format"`
	CreatedAt time.Time        `json:"created_at"`
	Machines  []machine.Scored `json:"machines"`
}

// Counts tallies the batch per risk level.
func (b *Batch) Counts() map[machine.RiskLevel]int {
	return machine.CountByLevel(b.Machines)
}

// Run parses text, applies the size policy and classifies every record. text must
// already be decoded (see parser.Decode). Either a full batch or an error is
// returned, never a partial batch.
func Run(ctx context.Context, text string, cls *risk.Classifier, opt Options) (*Batch, error) {
	if cls == nil {
		return nil, errors.New("ingest: classifier is nil")
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	if err := step(ctx, opt, StageParsing, 10); err != nil {
		return nil, err
	}
	recs, format, err := parser.ParseDetailed(text, opt.Format)
	if err != nil {
		log.Debug("parse rejected", "source", opt.Source, "format", format.String(), "err", err)
		return nil, fmt.Errorf("parse: %w", err)
	}

	if err := step(ctx, opt, StageValidating, 40); err != nil {
		return nil, err
	}
	if err := CheckSize(len(recs), opt.MaxRows); err != nil {
		log.Debug("size policy rejected", "source", opt.Source, "rows", len(recs), "err", err)
		return nil, err
	}

	if err := step(ctx, opt, StageClassifying, 70); err != nil {
		return nil, err
	}
	scored := cls.ClassifyAll(recs)

	b := &Batch{
		ID:        uuid.NewString(),
		Source:    opt.Source,
		Format:    format.String(),
		CreatedAt: time.Now().UTC(),
		Machines:  scored,
	}
	if opt.Progress != nil {
		opt.Progress(StageDone, 100)
	}
	counts := b.Counts()
	log.Info("batch classified",
		"batch_id", b.ID,
		"source", opt.Source,
		"format", b.Format,
		"rows", len(scored),
		"critical", counts[machine.Critical],
		"at_risk", counts[machine.AtRisk],
		"healthy", counts[machine.Healthy],
		"duration", time.Since(start),
	)
	return b, nil
}

func step(ctx context.Context, opt Options, stage Stage, pct int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opt.Progress != nil {
		opt.Progress(stage, pct)
	}
	if opt.StageDelay <= 0 {
		return nil
	}
	t := time.NewTimer(opt.StageDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
