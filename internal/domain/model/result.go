package model

import (
	"errors"
	"time"

	"github.com/dzhang123/DynaCard/internal/domain/card"
	"github.com/dzhang123/DynaCard/internal/domain/cycle"
	"github.com/dzhang123/DynaCard/internal/domain/edge"
	"github.com/dzhang123/DynaCard/internal/domain/shape"
)

// Stable error codes reported for cards that could not be classified.
const (
	CodeNoCycleFound       = "no_cycle_found"
	CodeDegenerateRange    = "degenerate_range"
	CodeDegenerateCard     = "degenerate_card"
	CodeInsufficientPoints = "insufficient_points"
	CodeInternal           = "classification_failed"
)

// ErrorCode maps a classification error to its stable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, cycle.ErrNoCycleFound):
		return CodeNoCycleFound
	case errors.Is(err, cycle.ErrDegenerateRange):
		return CodeDegenerateRange
	case errors.Is(err, card.ErrDegenerateCard):
		return CodeDegenerateCard
	case errors.Is(err, edge.ErrInsufficientPoints):
		return CodeInsufficientPoints
	default:
		return CodeInternal
	}
}

// Job is one card submitted for asynchronous classification.
type Job struct {
	ID      string
	Header  Header
	Samples Samples
	// MinAcceptableWeight overrides the service threshold when set.
	MinAcceptableWeight *float64
	SubmittedAt         time.Time
}

// Result is the stored outcome of a Job.
type Result struct {
	ID           string           `json:"id"`
	Header       Header           `json:"header"`
	Label        shape.Label      `json:"label,omitempty"`
	PumpStatus   string           `json:"pump_status,omitempty"`
	PeakLoad     float64          `json:"peak_load"`
	ErrorCode    string           `json:"error_code,omitempty"`
	Error        string           `json:"error,omitempty"`
	Edges        []edge.Summary   `json:"edges,omitempty"`
	Properties   *card.Properties `json:"properties,omitempty"`
	Samples      Samples          `json:"-"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	ClassifiedAt time.Time        `json:"classified_at"`
}

// NewResult records the outcome of classifying job. A non-nil err marks the
// result as failed with the matching error code.
func NewResult(job Job, out shape.Outcome, err error, at time.Time) Result {
	r := Result{
		ID:           job.ID,
		Header:       job.Header,
		PeakLoad:     out.PeakLoad,
		Samples:      job.Samples,
		SubmittedAt:  job.SubmittedAt,
		ClassifiedAt: at,
	}
	if err != nil {
		r.ErrorCode = ErrorCode(err)
		r.Error = err.Error()
		return r
	}
	r.Label = out.Label
	r.PumpStatus = out.Label.Status()
	if out.Card != nil {
		r.Edges = out.Card.Summaries()
		p := out.Card.Properties()
		r.Properties = &p
	}
	return r
}

// Failed reports whether classification ended in an error.
func (r Result) Failed() bool { return r.ErrorCode != "" }

// Report renders the result in the report layout.
func (r Result) Report() Report { return NewReport(r.Header, r.Label) }

// Report is the per-card classification summary printed by the command
// line tool and returned by the synchronous API.
type Report struct {
	WellID       string      `json:"well_id"`
	PumpStatus   string      `json:"pump_status"`
	DeviceSerial string      `json:"deviceSerial"`
	SensorSerial string      `json:"sensorSerial"`
	Timestamp    string      `json:"timestamp"`
	Label        shape.Label `json:"label"`
}

// NewReport builds a Report for a labeled card.
func NewReport(h Header, l shape.Label) Report {
	return Report{
		WellID:       h.WellID,
		PumpStatus:   l.Status(),
		DeviceSerial: h.DeviceSerial,
		SensorSerial: h.SensorSerial,
		Timestamp:    h.Timestamp,
		Label:        l,
	}
}
