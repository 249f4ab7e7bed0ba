// Command classify labels dynamometer card files and prints one JSON
// report per file, in argument order.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dzhang123/DynaCard/internal/adapters/cardfile"
	"github.com/dzhang123/DynaCard/internal/domain/card"
	"github.com/dzhang123/DynaCard/internal/domain/edge"
	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/internal/domain/shape"
	"github.com/dzhang123/DynaCard/pkg/logger"
)

// options holds the parsed command line.
type options struct {
	minWeight float64
	device    string
	timestamp string
	detail    bool
	workers   int
	logLevel  string
	files     []string
}

// fileReport is the printed report, with diagnostics when -detail is set.
type fileReport struct {
	model.Report
	File       string           `json:"file,omitempty"`
	PeakLoad   *float64         `json:"peak_load,omitempty"`
	Edges      []edge.Summary   `json:"edges,omitempty"`
	Properties *card.Properties `json:"properties,omitempty"`
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if err := logger.InitWithOptions(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(opts.logLevel)

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &options{}
	fs.Float64Var(&opts.minWeight, "min-weight", shape.DefaultMinAcceptableWeight, "peak load below which a card is a flowing well")
	fs.StringVar(&opts.device, "device", "", "override the device serial number of every card")
	fs.StringVar(&opts.timestamp, "timestamp", "", "override the timestamp of every card")
	fs.BoolVar(&opts.detail, "detail", false, "include edge summaries and shape properties")
	fs.IntVar(&opts.workers, "workers", runtime.NumCPU(), "number of files classified concurrently")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: classify [flags] card-file...\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.files = fs.Args()
	if len(opts.files) == 0 {
		fs.Usage()
		return nil, errors.New("no card files given")
	}
	if opts.minWeight < 0 {
		fmt.Fprintln(stderr, "-min-weight must not be negative")
		return nil, errors.New("negative min-weight")
	}
	if opts.workers < 1 {
		opts.workers = 1
	}
	return opts, nil
}

// run classifies every file and writes the reports to out. Files that fail
// are logged and reported through the returned error after all are done.
func run(ctx context.Context, opts *options, out io.Writer) error {
	log := logger.Get().Named("classify")
	classifier := shape.New(shape.WithMinAcceptableWeight(opts.minWeight))

	reports := make([]*fileReport, len(opts.files))
	errs := make([]error, len(opts.files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers)
	for i, path := range opts.files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i], errs[i] = classifyFile(classifier, opts, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	for i, r := range reports {
		if errs[i] != nil {
			log.Error(ctx, "card not classified",
				logger.String("file", opts.files[i]),
				logger.String("code", model.ErrorCode(errs[i])),
				logger.Error(errs[i]))
			continue
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return errors.Join(errs...)
}

func classifyFile(classifier *shape.Classifier, opts *options, path string) (*fileReport, error) {
	c, err := cardfile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if opts.device != "" {
		c.Header.DeviceSerial = opts.device
	}
	if opts.timestamp != "" {
		c.Header.Timestamp = opts.timestamp
	}

	out, err := classifier.Classify(c.Samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r := &fileReport{Report: model.NewReport(c.Header, out.Label)}
	if opts.detail {
		peak := out.PeakLoad
		r.File = path
		r.PeakLoad = &peak
		if out.Card != nil {
			r.Edges = out.Card.Summaries()
			p := out.Card.Properties()
			r.Properties = &p
		}
	}
	return r, nil
}
