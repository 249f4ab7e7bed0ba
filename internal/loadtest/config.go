// Package loadtest drives a running classification service with synthetic
// cards and checks that every stored label matches the shape it was drawn as.
package loadtest

import (
	"time"

	"github.com/dzhang123/DynaCard/internal/domain/model"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumCards    int           // Number of cards to generate
	Wells       int           // Number of wells the cards are spread over
	Workers     int           // Number of concurrent HTTP workers
	Timeout     time.Duration // HTTP request timeout
	WaitTimeout time.Duration // How long to wait for results to be stored
	Noise       float64       // Load jitter as a fraction of the load range
	Seed        uint64        // Noise seed
	Verbose     bool          // Log every mismatch and failure
}

// Card is one submission: the POST /cards body plus the expected label.
type Card struct {
	ID           string        `json:"id"`
	WellID       string        `json:"well_id"`
	Timestamp    string        `json:"timestamp"`
	DeviceSerial string        `json:"device_serial"`
	SensorSerial string        `json:"sensor_serial"`
	Samples      model.Samples `json:"samples"`

	Expected string `json:"-"`
}

// AckResponse represents the response from card submission.
type AckResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// StoredResult is the subset of GET /cards/{id} the run verifies.
type StoredResult struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	ErrorCode string `json:"error_code"`
}

// Stats holds run statistics.
type Stats struct {
	CardsGenerated   int
	CardsSubmitted   int
	CardsAccepted    int
	CardsDuplicate   int
	CardsFailed      int
	ResultsRetrieved int
	ResultsMissing   int
	LabelMatches     int
	LabelMismatches  int
	Unclassified     int
	WellsListed      int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
