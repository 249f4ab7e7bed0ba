// Command gen-cards writes synthetic card files, or with -url drives a
// running service with synthetic cards and verifies the stored labels.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dzhang123/DynaCard/internal/adapters/cardfile"
	"github.com/dzhang123/DynaCard/internal/cardgen"
	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/internal/loadtest"
	"github.com/dzhang123/DynaCard/pkg/logger"
)

const (
	defaultTestTimeout = 10 * time.Minute
	dirPermission      = 0o750
)

type options struct {
	// file mode
	outDir      string
	shapes      string
	count       int
	samples     int
	revolutions int
	noise       float64
	seed        uint64
	wellID      string

	// load test mode
	url     string
	cards   int
	wells   int
	workers int
	timeout time.Duration
	wait    time.Duration
	logFile string
	verbose bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if opts.url != "" {
		if err := runLoadTest(opts); err != nil {
			os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
			os.Exit(1)
		}
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	paths, err := writeCards(opts)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("gen-cards", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.outDir, "out", ".", "directory card files are written to")
	fs.StringVar(&o.shapes, "shapes", "", "comma separated shape names (default: all reference shapes)")
	fs.IntVar(&o.count, "count", 1, "cards written per shape")
	fs.IntVar(&o.samples, "samples", cardgen.DefaultSamplesPerRevolution, "samples per revolution")
	fs.IntVar(&o.revolutions, "revolutions", cardgen.DefaultRevolutions, "revolutions per card")
	fs.Float64Var(&o.noise, "noise", 0, "load jitter as a fraction of the load range")
	fs.Uint64Var(&o.seed, "seed", 1, "noise seed")
	fs.StringVar(&o.wellID, "well", "SYNTH-001", "well id written to the card headers")

	fs.StringVar(&o.url, "url", "", "base URL of a running service; switches to load test mode")
	fs.IntVar(&o.cards, "cards", loadtest.DefaultNumCards, "cards submitted in load test mode")
	fs.IntVar(&o.wells, "wells", loadtest.DefaultWells, "wells the submitted cards are spread over")
	fs.IntVar(&o.workers, "workers", runtime.NumCPU()*2, "concurrent HTTP workers")
	fs.DurationVar(&o.timeout, "timeout", loadtest.DefaultTimeout, "HTTP request timeout")
	fs.DurationVar(&o.wait, "wait", loadtest.DefaultWaitTimeout, "how long to wait for results to be stored")
	fs.StringVar(&o.logFile, "log", "", "log file for load test output (default: stdout)")
	fs.BoolVar(&o.verbose, "verbose", false, "log every failed submission and label mismatch")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.count < 1 {
		fmt.Fprintln(stderr, "-count must be at least 1")
		return nil, errors.New("invalid count")
	}
	return o, nil
}

// selectShapes resolves the -shapes list against the reference shapes.
func selectShapes(list string) ([]cardgen.Shape, error) {
	if strings.TrimSpace(list) == "" {
		return cardgen.Shapes(), nil
	}
	var out []cardgen.Shape
	for _, name := range strings.Split(list, ",") {
		s, ok := cardgen.Lookup(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown shape %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// writeCards writes count files per selected shape and returns their paths.
func writeCards(o *options) ([]string, error) {
	shapes, err := selectShapes(o.shapes)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.outDir, dirPermission); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	gen := cardgen.New(
		cardgen.WithSamplesPerRevolution(o.samples),
		cardgen.WithRevolutions(o.revolutions),
		cardgen.WithNoise(o.noise, o.seed),
	)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	var paths []string
	for _, s := range shapes {
		for i := 0; i < o.count; i++ {
			h := model.Header{
				WellID:       o.wellID,
				Timestamp:    base.Add(time.Duration(len(paths)) * time.Minute).Format("2006-01-02 15:04:05"),
				DeviceSerial: "SYNTH-DEV",
				SensorSerial: "SYNTH-SEN",
			}
			path := filepath.Join(o.outDir, fmt.Sprintf("%s_%03d.csv", strings.ToLower(s.Name), i))
			if err := cardfile.WriteFile(path, h, gen.Samples(s)); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	logger.Get().Info(context.Background(), "card files written", logger.Int("files", len(paths)), logger.String("dir", o.outDir))
	return paths, nil
}

func runLoadTest(o *options) error {
	if err := loadtest.SetupLogging(o.logFile, o.verbose); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	stats, err := loadtest.Run(ctx, &loadtest.Config{
		BaseURL:     strings.TrimRight(o.url, "/"),
		NumCards:    o.cards,
		Wells:       o.wells,
		Workers:     o.workers,
		Timeout:     o.timeout,
		WaitTimeout: o.wait,
		Noise:       o.noise,
		Seed:        o.seed,
		Verbose:     o.verbose,
	})
	if err != nil {
		return err
	}
	if stats.CardsFailed > 0 || stats.ResultsMissing > 0 {
		return fmt.Errorf("%d submissions failed, %d results missing", stats.CardsFailed, stats.ResultsMissing)
	}
	return nil
}
