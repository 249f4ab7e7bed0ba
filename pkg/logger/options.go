package logger

import "io"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type options struct {
	format     string
	output     io.Writer
	file       string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
}

// Option configures InitWithOptions.
type Option func(*options)

// WithFormat selects the text or json encoder.
func WithFormat(format string) Option {
	return func(o *options) {
		if format != "" {
			o.format = format
		}
	}
}

// WithOutput redirects log lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithFile writes to a size-rotated file instead of the output writer.
// Zero limits keep lumberjack's defaults.
func WithFile(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *options) {
		o.file = path
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
		o.maxAgeDays = maxAgeDays
	}
}
