// Package main runs the LPC predictor equivalence and timing sweep.
//
// Usage:
//
//	go run ./cmd/lpcbench
//	go run ./cmd/lpcbench -counter perf -rounds 5
//	go run ./cmd/lpcbench -min-order 8 -max-order 12 -qlevels -2,0,3
//	go run ./cmd/lpcbench -self-test
//
// Every flag can be defaulted from an LPCBENCH_* environment variable, for
// example LPCBENCH_ROUNDS=5. Variables are also read from -env-file when
// that file exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/thesyncim/golpc"
	"github.com/thesyncim/golpc/harness"
	"github.com/thesyncim/golpc/internal/cycles"
)

// selfTestIndex is the coefficient negated in -self-test mode. Order 1 is
// the first step of a default sweep, so the oracle must fire immediately.
const selfTestIndex = 0

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	envFile := lookupEnvFile(args)
	if err := loadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "lpcbench: %v\n", err)
		return 2
	}

	opts, err := parseFlags(args, os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lpcbench: %v\n", err)
		return 2
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if err := configureLogger(log, opts.logLevel, opts.logFormat, term.IsTerminal(int(os.Stderr.Fd()))); err != nil {
		fmt.Fprintf(os.Stderr, "lpcbench: %v\n", err)
		return 2
	}

	reference, err := golpc.LookupPredictor(opts.reference)
	if err != nil {
		log.WithError(err).Error("Invalid -reference")
		return 2
	}
	optimized, err := golpc.LookupPredictor(opts.optimized)
	if err != nil {
		log.WithError(err).Error("Invalid -optimized")
		return 2
	}
	if opts.selfTest {
		optimized = harness.FlipCoefficient(optimized, selfTestIndex)
	}

	// perf counters follow the thread that opened them; keep the sweep on it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	counter, err := cycles.Open(opts.counter)
	if err != nil {
		if !errors.Is(err, cycles.ErrUnavailable) {
			log.WithError(err).Error("Invalid -counter")
			return 2
		}
		log.WithError(err).Warn("Hardware cycle counter unavailable; falling back to monotonic clock")
		counter = cycles.NewMonotonic()
	}
	defer counter.Close()

	reg := prometheus.NewRegistry()
	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr, reg, log)
		defer srv.Close()
	}

	h, err := harness.New(reference, optimized,
		harness.WithConfig(opts.cfg),
		harness.WithLogger(log),
		harness.WithCounter(counter),
		harness.WithRegisterer(reg),
	)
	if err != nil {
		log.WithError(err).Error("Invalid sweep configuration")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, runErr := h.Run(ctx)
	if report != nil {
		if err := report.WriteText(os.Stdout); err != nil {
			log.WithError(err).Error("Write report failed")
			return 2
		}
	}
	return exitCode(runErr, opts.selfTest, log)
}

// exitCode maps the sweep outcome to the process status. In self-test mode
// the expectations are inverted: a divergence proves the oracle works.
func exitCode(runErr error, selfTest bool, log logrus.FieldLogger) int {
	diverged := errors.Is(runErr, harness.ErrDivergence)
	if runErr != nil && !diverged {
		log.WithError(runErr).Error("Sweep failed")
		return 2
	}
	if selfTest {
		if !diverged {
			log.Error("Self-test: oracle did not detect the mutated predictor")
			return 1
		}
		log.Info("Self-test: oracle detected the mutated predictor")
		return 0
	}
	if diverged {
		return 1
	}
	return 0
}

func serveMetrics(addr string, reg *prometheus.Registry, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("Metrics endpoint stopped")
		}
	}()
	log.WithField("addr", addr).Info("Serving metrics")
	return srv
}

// loadEnvFile reads KEY=VALUE pairs from path without overriding variables
// already set in the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// lookupEnvFile finds -env-file ahead of flag parsing, since the file
// supplies flag defaults.
func lookupEnvFile(args []string) string {
	path := ".env"
	if v, ok := os.LookupEnv(envPrefix + "ENV_FILE"); ok {
		path = v
	}
	for i := 0; i < len(args); i++ {
		a := strings.TrimPrefix(strings.TrimPrefix(args[i], "-"), "-")
		if a == "env-file" {
			if i+1 < len(args) {
				return args[i+1]
			}
			continue
		}
		if v, ok := strings.CutPrefix(a, "env-file="); ok {
			return v
		}
	}
	return path
}
