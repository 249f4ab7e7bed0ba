package loadtest

import (
	"context"
	"fmt"

	"github.com/dzhang123/DynaCard/pkg/logger"
)

// Log file rotation limits for load test runs.
const (
	logMaxSizeMB  = 50
	logMaxBackups = 3
	logMaxAgeDays = 7
)

// SetupLogging initializes the logger. An empty logFile logs to stdout.
func SetupLogging(logFile string, verbose bool) error {
	var opts []logger.Option
	if logFile != "" {
		opts = append(opts, logger.WithFile(logFile, logMaxSizeMB, logMaxBackups, logMaxAgeDays))
	}
	if err := logger.InitWithOptions(opts...); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return nil
}
