// Package benchmarks provides a timing benchmark harness that runs
// synthetic traces through the simulator.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sarchlab/iplcsim/timing/core"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// TraceLines is the number of trace lines fed to the simulator
	TraceLines int `json:"trace_lines"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// Cache stats, instruction fetches and data accesses together
	CacheAccesses uint64  `json:"cache_accesses"`
	CacheHits     uint64  `json:"cache_hits"`
	CacheMisses   uint64  `json:"cache_misses"`
	MissRate      float64 `json:"miss_rate"`

	// Branch predictor stats
	Branches              uint64  `json:"branches,omitempty"`
	BranchCorrect         uint64  `json:"branch_correct,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent,omitempty"`

	// Error is set when the benchmark could not be run
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single synthetic trace.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Trace is the instruction trace, one line per instruction
	Trace []string
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Simulator is the cache geometry, timing and prediction used for
	// every benchmark
	Simulator core.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Simulator: core.DefaultConfig(),
		Output:    os.Stdout,
		Verbose:   false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh simulator.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		TraceLines:  len(bench.Trace),
	}

	opts := []core.Option{}
	if h.config.Verbose {
		opts = append(opts, core.WithOutput(h.config.Output), core.WithVerbose())
	}

	sim, err := core.NewSimulator(h.config.Simulator, opts...)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	err = sim.Run(strings.NewReader(strings.Join(bench.Trace, "\n")))
	stats := sim.Finish()
	result.WallTime = time.Since(start)

	if err != nil {
		result.Error = err.Error()
	}

	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.CacheAccesses = stats.Accesses
	result.CacheHits = stats.Hits
	result.CacheMisses = stats.Misses
	result.MissRate = stats.MissRate()

	bpStats := sim.Pipeline().BranchPredictor().Stats()
	result.Branches = stats.Branches
	result.BranchCorrect = stats.BranchCorrect
	result.BranchAccuracyPercent = bpStats.Accuracy()

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== IPLC Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Trace Lines:          %d\n", r.TraceLines)
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)

		_, _ = fmt.Fprintln(h.config.Output, "  --- Cache ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Accesses:  %d\n", r.CacheAccesses)
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:      %d\n", r.CacheHits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses:    %d\n", r.CacheMisses)
		_, _ = fmt.Fprintf(h.config.Output, "  Miss Rate: %.3f\n", r.MissRate)

		if r.Branches > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Branch Predictor ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Branches:  %d\n", r.Branches)
			_, _ = fmt.Fprintf(h.config.Output, "  Correct:   %d\n", r.BranchCorrect)
			_, _ = fmt.Fprintf(h.config.Output, "  Accuracy:  %.1f%%\n", r.BranchAccuracyPercent)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,lines,cycles,instructions,cpi,accesses,hits,misses,miss_rate,branches,branch_correct")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%d,%d,%d,%.3f,%d,%d\n",
			r.Name,
			r.TraceLines,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.CacheAccesses,
			r.CacheHits,
			r.CacheMisses,
			r.MissRate,
			r.Branches,
			r.BranchCorrect,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the simulator configuration used.
type BenchmarkConfig struct {
	IndexBits          int    `json:"index_bits"`
	BlockSize          int    `json:"block_size"`
	Associativity      int    `json:"associativity"`
	CacheSize          uint64 `json:"cache_size"`
	BranchPredictTaken bool   `json:"branch_predict_taken"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	sc := h.config.Simulator
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				IndexBits:          sc.Cache.IndexBits,
				BlockSize:          sc.Cache.BlockSize,
				Associativity:      sc.Cache.Associativity,
				CacheSize:          sc.Cache.SizeMetric(),
				BranchPredictTaken: sc.BranchPredictTaken,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
