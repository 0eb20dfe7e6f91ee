// Package core provides the trace-driven simulator.
// It ties one tag store and the 5-stage pipeline together behind a
// front-end that fetches trace instructions in order.
package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/latency"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

// Stats holds the combined performance statistics of a run.
type Stats struct {
	// Accesses is the number of cache probes, fetches and data accesses.
	Accesses uint64
	// Hits is the number of probes that hit.
	Hits uint64
	// Misses is the number of probes that missed.
	Misses uint64

	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Branches is the number of branch instructions fetched.
	Branches uint64
	// BranchCorrect is the number of correct branch predictions.
	BranchCorrect uint64
}

// MissRate returns Misses / Accesses, or 0 before the first access.
func (s Stats) MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.Accesses)
}

// CPI returns the cycles per retired instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Config holds the parameters of one simulation.
type Config struct {
	// Cache is the geometry of the shared instruction and data cache.
	Cache cache.Config
	// Timing holds the cycle costs. Nil selects the defaults.
	Timing *latency.TimingConfig
	// BranchPredictTaken selects the static prediction direction.
	BranchPredictTaken bool
}

// DefaultConfig returns the default cache geometry and timing with
// branches predicted not taken.
func DefaultConfig() Config {
	return Config{
		Cache:  cache.DefaultConfig(),
		Timing: latency.DefaultTimingConfig(),
	}
}

// Validate checks both the cache geometry and the timing.
func (c Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if c.Timing != nil {
		if err := c.Timing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Option is a functional option for configuring the Simulator.
type Option func(*Simulator)

// WithOutput sets the writer that receives trace, dump and debug lines.
func WithOutput(w io.Writer) Option {
	return func(s *Simulator) {
		s.out = w
	}
}

// WithVerbose enables a line per cache access.
func WithVerbose() Option {
	return func(s *Simulator) {
		s.verbose = true
	}
}

// WithPipelineDump enables a pipeline dump after every trace line.
func WithPipelineDump() Option {
	return func(s *Simulator) {
		s.dump = true
	}
}

// WithDebug enables the retire and branch-taken lines.
func WithDebug() Option {
	return func(s *Simulator) {
		s.debug = true
	}
}

// WithProber replaces the built-in tag store. The prober must already be
// configured with the geometry in Config.Cache.
func WithProber(p cache.Prober) Option {
	return func(s *Simulator) {
		s.cache = p
	}
}

// checker is implemented by tag stores that can detect an internal
// inconsistency while probing.
type checker interface {
	Err() error
}

// Simulator runs a trace through the shared cache and the pipeline.
type Simulator struct {
	config Config
	table  *latency.Table
	parser *insts.Parser

	cache cache.Prober
	pipe  *pipeline.Pipeline

	out     io.Writer
	verbose bool
	dump    bool
	debug   bool
}

// NewSimulator validates config and builds a simulator that owns its
// cache and pipeline.
func NewSimulator(config Config, opts ...Option) (*Simulator, error) {
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Simulator{
		config: config,
		table:  latency.NewTableWithConfig(config.Timing.Clone()),
		parser: insts.NewParser(),
		out:    io.Discard,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cache == nil {
		c, err := cache.New(config.Cache)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}

	pipeOpts := []pipeline.PipelineOption{
		pipeline.WithLatencyTable(s.table),
		pipeline.WithBranchPredictTaken(config.BranchPredictTaken),
	}
	if s.verbose {
		pipeOpts = append(pipeOpts, pipeline.WithTrace(s.out))
	}
	if s.debug {
		pipeOpts = append(pipeOpts, pipeline.WithDebug(s.out))
	}
	s.pipe = pipeline.NewPipeline(s.cache, pipeOpts...)

	return s, nil
}

// Config returns the configuration the simulator was built with.
func (s *Simulator) Config() Config {
	return s.config
}

// Pipeline returns the underlying pipeline.
func (s *Simulator) Pipeline() *pipeline.Pipeline {
	return s.pipe
}

// Fetch probes the cache at the instruction address and pushes the
// instruction into the pipeline. A miss first stalls the front-end so
// that the fetch costs the full miss delay.
func (s *Simulator) Fetch(inst insts.Instruction) {
	result := s.cache.Probe(inst.Addr)

	if s.verbose {
		fmt.Fprintf(s.out, "%s \n", result)
		if result.Hit {
			fmt.Fprintf(s.out, "INST HIT:\t Address 0x%x \n", inst.Addr)
		} else {
			fmt.Fprintf(s.out, "INST MISS:\t Address 0x%x \n", inst.Addr)
		}
	}

	if !result.Hit {
		for i := uint64(0); i < s.table.FetchStallAdvances(); i++ {
			s.pipe.Advance()
		}
	}

	s.pipe.Push(inst)
}

// Step parses one trace line and fetches it. Blank lines are ignored.
func (s *Simulator) Step(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	inst, err := s.parser.Parse(line)
	if err != nil {
		return err
	}

	s.Fetch(inst)

	if s.dump {
		if err := s.pipe.Dump(s.out); err != nil {
			return fmt.Errorf("dumping pipeline: %w", err)
		}
	}

	if c, ok := s.cache.(checker); ok {
		if err := c.Err(); err != nil {
			return err
		}
	}

	return nil
}

// Run steps through every line of r in order. It stops at the first
// error, which carries the line number.
func (s *Simulator) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := s.Step(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("line %d: %w", lineNo+1, insts.ErrMalformed)
		}
		return fmt.Errorf("reading trace: %w", err)
	}

	return nil
}

// Stats returns the statistics so far without draining the pipeline.
func (s *Simulator) Stats() Stats {
	cs := s.cache.Stats()
	ps := s.pipe.Stats()
	return Stats{
		Accesses:      cs.Accesses,
		Hits:          cs.Hits,
		Misses:        cs.Misses,
		Cycles:        ps.Cycles,
		Instructions:  ps.Instructions,
		Branches:      ps.Branches,
		BranchCorrect: ps.BranchCorrect,
	}
}

// Finish drains the pipeline and returns the final statistics.
func (s *Simulator) Finish() Stats {
	s.pipe.Drain()
	return s.Stats()
}
