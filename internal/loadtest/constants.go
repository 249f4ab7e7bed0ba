package loadtest

import "time"

// Defaults applied to zero Config fields.
const (
	DefaultNumCards    = 1000
	DefaultWells       = 10
	DefaultWorkers     = 8
	DefaultTimeout     = 10 * time.Second
	DefaultWaitTimeout = 2 * time.Minute
)

// Runner configuration constants.
const (
	pollInterval         = 50 * time.Millisecond
	historyLimit         = 100
	percentageMultiplier = 100
)
