package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/golpc/harness"
	"github.com/thesyncim/golpc/internal/cycles"
)

const envPrefix = "LPCBENCH_"

type options struct {
	cfg         harness.Config
	reference   string
	optimized   string
	counter     string
	logLevel    string
	logFormat   string
	metricsAddr string
	envFile     string
	selfTest    bool
}

// envDefaults resolves flag defaults from LPCBENCH_* variables.
type envDefaults struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envDefaults) key(name string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func (e *envDefaults) str(name, def string) string {
	if v, ok := e.lookup(e.key(name)); ok {
		return v
	}
	return def
}

func (e *envDefaults) int(name string, def int) int {
	v, ok := e.lookup(e.key(name))
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("%s: %w", e.key(name), err)
		}
		return def
	}
	return n
}

func (e *envDefaults) bool(name string, def bool) bool {
	v, ok := e.lookup(e.key(name))
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("%s: %w", e.key(name), err)
		}
		return def
	}
	return b
}

func parseFlags(args []string, lookup func(string) (string, bool)) (options, error) {
	def := harness.DefaultConfig()
	env := &envDefaults{lookup: lookup}

	fs := flag.NewFlagSet("lpcbench", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	minOrder := fs.Int("min-order", env.int("min-order", def.MinOrder), "First predictor order of the sweep")
	maxOrder := fs.Int("max-order", env.int("max-order", def.MaxOrder), "Last predictor order of the sweep")
	qlevels := fs.String("qlevels", env.str("qlevels", formatInts(def.QLevels)), "Comma-separated quantization shifts per order")
	buffer := fs.Int("buffer", env.int("buffer", def.BufferSize), "Samples per buffer (history plus block)")
	seed := fs.Int("seed-offset", env.int("seed-offset", int(def.SeedOffset)), "Buffers are seeded with i + offset")
	rounds := fs.Int("rounds", env.int("rounds", def.Rounds), "Timed rounds per step; the minimum is reported")

	var o options
	fs.StringVar(&o.reference, "reference", env.str("reference", "reference"), "Reference predictor name")
	fs.StringVar(&o.optimized, "optimized", env.str("optimized", "unrolled"), "Predictor checked against the reference")
	fs.StringVar(&o.counter, "counter", env.str("counter", cycles.KindAuto), "Cycle counter: auto, perf or monotonic")
	fs.StringVar(&o.logLevel, "log-level", env.str("log-level", "info"), "Log level: debug, info, warn or error")
	fs.StringVar(&o.logFormat, "log-format", env.str("log-format", "auto"), "Log format: auto, text or json")
	fs.StringVar(&o.metricsAddr, "metrics-addr", env.str("metrics-addr", ""), "Serve Prometheus metrics on this address (e.g. :9102)")
	fs.StringVar(&o.envFile, "env-file", env.str("env-file", ".env"), "Optional file of LPCBENCH_* variables")
	fs.BoolVar(&o.selfTest, "self-test", env.bool("self-test", false), "Run against a deliberately broken predictor; succeed only if the oracle catches it")

	if env.err != nil {
		return options{}, env.err
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	ql, err := parseInts(*qlevels)
	if err != nil {
		return options{}, fmt.Errorf("-qlevels: %w", err)
	}
	o.cfg = harness.Config{
		MinOrder:   *minOrder,
		MaxOrder:   *maxOrder,
		QLevels:    ql,
		BufferSize: *buffer,
		SeedOffset: int32(*seed),
		Rounds:     *rounds,
	}
	if err := o.cfg.Validate(); err != nil {
		return options{}, err
	}
	return o, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return out, nil
}

func formatInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// configureLogger applies level and format. "auto" picks the text formatter
// on a terminal and JSON otherwise.
func configureLogger(log *logrus.Logger, level, format string, tty bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "auto", "":
		if tty {
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: !tty})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q (use auto, text or json)", format)
	}
	return nil
}
