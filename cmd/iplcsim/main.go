// Package main provides the trace-driven cache and pipeline simulator.
//
// Usage:
//
//	iplcsim [flags] index_bits blocksize assoc branch_predict_taken [trace]
//
// The trace defaults to instruction-trace.txt. branch_predict_taken is 0
// (predict not taken) or 1 (predict taken).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strconv"

	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/core"
	"github.com/sarchlab/iplcsim/timing/latency"
)

const defaultTrace = "instruction-trace.txt"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	configPath string
	verbose    bool
	dump       bool
	debug      bool
	tagStore   string
	crossCheck bool
	cpuProfile string

	cache     cache.Config
	predict   bool
	tracePath string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("iplcsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to timing configuration JSON file")
	fs.BoolVar(&opts.verbose, "v", false, "Print every cache access")
	fs.BoolVar(&opts.dump, "dump", false, "Dump the pipeline after every trace line")
	fs.BoolVar(&opts.debug, "debug", false, "Print retired instructions and taken branches")
	fs.StringVar(&opts.tagStore, "tagstore", "list", "Tag store implementation: list or akita")
	fs.BoolVar(&opts.crossCheck, "crosscheck", false, "Check every probe against the akita tag store")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to file")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: iplcsim [options] index_bits blocksize assoc branch_predict_taken [trace]\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() < 4 || fs.NArg() > 5 {
		fs.Usage()
		return nil, fmt.Errorf("expected 4 or 5 arguments, got %d", fs.NArg())
	}

	names := []string{"index_bits", "blocksize", "assoc", "branch_predict_taken"}
	values := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(fs.Arg(i))
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", name, fs.Arg(i))
		}
		values[i] = v
	}

	if values[3] != 0 && values[3] != 1 {
		return nil, fmt.Errorf("branch_predict_taken must be 0 or 1, got %d", values[3])
	}

	opts.cache = cache.Config{
		IndexBits:     values[0],
		BlockSize:     values[1],
		Associativity: values[2],
	}
	opts.predict = values[3] == 1

	opts.tracePath = defaultTrace
	if fs.NArg() == 5 {
		opts.tracePath = fs.Arg(4)
	}

	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Error creating CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Error starting CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	timingConfig := latency.DefaultTimingConfig()
	if opts.configPath != "" {
		timingConfig, err = latency.LoadConfig(opts.configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading timing config: %v\n", err)
			return 1
		}
	}
	opts.cache.MaxSize = timingConfig.MaxCacheSize

	core.PrintCacheConfiguration(stdout, opts.cache)

	config := core.Config{
		Cache:              opts.cache,
		Timing:             timingConfig,
		BranchPredictTaken: opts.predict,
	}

	simOpts := []core.Option{core.WithOutput(stdout)}
	if opts.verbose {
		simOpts = append(simOpts, core.WithVerbose())
	}
	if opts.dump {
		simOpts = append(simOpts, core.WithPipelineDump())
	}
	if opts.debug {
		simOpts = append(simOpts, core.WithDebug())
	}

	prober, err := buildTagStore(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if prober != nil {
		simOpts = append(simOpts, core.WithProber(prober))
	}

	sim, err := core.NewSimulator(config, simOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	trace, err := os.Open(opts.tracePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening trace: %v\n", err)
		return 1
	}
	defer trace.Close()

	if err := sim.Run(trace); err != nil {
		fmt.Fprintf(stderr, "Error: %s: %v\n", opts.tracePath, err)
		return 1
	}

	core.Report(stdout, sim.Finish())
	return 0
}

// buildTagStore returns the tag store selected on the command line, or
// nil for the simulator's built-in one.
func buildTagStore(opts *options) (cache.Prober, error) {
	if err := opts.cache.Validate(); err != nil {
		return nil, err
	}

	switch opts.tagStore {
	case "list":
		if !opts.crossCheck {
			return nil, nil
		}
		return crossChecked(opts.cache)
	case "akita":
		if opts.crossCheck {
			return crossChecked(opts.cache)
		}
		return cache.NewReference(opts.cache)
	}

	return nil, fmt.Errorf("unknown tag store %q", opts.tagStore)
}

func crossChecked(config cache.Config) (cache.Prober, error) {
	primary, err := cache.New(config)
	if err != nil {
		return nil, err
	}
	reference, err := cache.NewReference(config)
	if err != nil {
		return nil, err
	}
	return cache.NewCrossCheck(primary, reference), nil
}
