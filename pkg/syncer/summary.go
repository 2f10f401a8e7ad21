package syncer

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/winefeed/catalog-sync/pkg/types"
)

// Stage is a step of the run state machine.
type Stage int

const (
	StageNotStarted Stage = iota
	StageRetrieving
	StageExtracting
	StagePublishing
	StageDone
	StageFatal
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not_started"
	case StageRetrieving:
		return "retrieving"
	case StageExtracting:
		return "extracting"
	case StagePublishing:
		return "publishing"
	case StageDone:
		return "done"
	case StageFatal:
		return "fatal"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Summary is the structured result of a run.
type Summary struct {
	Found      int             `json:"found"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	FailedSKUs []string        `json:"failed_skus,omitempty"`
	Outcomes   []types.Outcome `json:"outcomes"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

func (s *Summary) add(o types.Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Succeeded() {
		s.Succeeded++
		return
	}
	s.Failed++
	s.FailedSKUs = append(s.FailedSKUs, o.SKU)
}

func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailedOutcomes returns the outcomes of records that could not be updated, in publish order.
func (s Summary) FailedOutcomes() []types.Outcome {
	return lo.Filter(s.Outcomes, func(o types.Outcome, _ int) bool {
		return !o.Succeeded()
	})
}

// Err returns a *PartialFailureError when any record failed, nil otherwise.
func (s Summary) Err() error {
	if !s.HasFailures() {
		return nil
	}
	return &PartialFailureError{
		Failed: s.Failed,
		Total:  s.Found,
		SKUs:   s.FailedSKUs,
	}
}

// PartialFailureError reports a completed run in which some updates failed.
type PartialFailureError struct {
	Failed int
	Total  int
	SKUs   []string
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d products failed to update: %s", e.Failed, e.Total, strings.Join(e.SKUs, ", "))
}
