// Package pipeline provides a 5-stage in-order pipeline model for
// trace-driven timing simulation.
package pipeline

import (
	"fmt"
	"io"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/latency"
)

// DataCache serves the data accesses of loads and stores in the MEM stage.
type DataCache interface {
	Probe(addr uint32) cache.ProbeResult
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Branches is the number of branch instructions pushed.
	Branches uint64
	// BranchCorrect is the number of correct branch predictions.
	BranchCorrect uint64
	// BranchMispredictions is the number of branch mispredictions.
	BranchMispredictions uint64
	// DataHits is the number of MEM-stage accesses that hit.
	DataHits uint64
	// DataMisses is the number of MEM-stage accesses that missed.
	DataMisses uint64
	// Advances is the number of logical cycles performed.
	Advances uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLatencyTable sets a custom latency table for cycle accounting.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.latencyTable = table
	}
}

// WithBranchPredictTaken sets the static branch prediction direction.
func WithBranchPredictTaken(taken bool) PipelineOption {
	return func(p *Pipeline) {
		p.branchPredictor = NewStaticBranchPredictor(taken)
	}
}

// WithTrace writes a line for every data access made from the MEM stage.
func WithTrace(w io.Writer) PipelineOption {
	return func(p *Pipeline) {
		p.trace = w
	}
}

// WithDebug writes a line for every retired instruction and every branch
// found taken.
func WithDebug(w io.Writer) PipelineOption {
	return func(p *Pipeline) {
		p.debug = w
	}
}

// Pipeline implements a 5-stage in-order pipeline model.
// Stages: Fetch (IF) -> Decode (ID) -> ALU (EX) -> Memory (MEM) -> Writeback (WB)
//
// Each Advance is one logical cycle that may cost more than one clock
// cycle: a mispredicted branch resolving in DECODE or a data miss in MEM
// raises the cost of that advance.
type Pipeline struct {
	stages [NumStages]insts.Instruction

	dcache          DataCache
	branchPredictor *StaticBranchPredictor
	latencyTable    *latency.Table

	trace io.Writer
	debug io.Writer

	stats Statistics
}

// NewPipeline creates a new pipeline whose loads and stores probe dcache.
// Branches are predicted not taken unless configured otherwise.
func NewPipeline(dcache DataCache, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		dcache:          dcache,
		branchPredictor: NewStaticBranchPredictor(false),
		latencyTable:    latency.NewTable(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// BranchPredictor returns the branch predictor.
func (p *Pipeline) BranchPredictor() *StaticBranchPredictor {
	return p.branchPredictor
}

// Reset empties every stage and clears statistics.
func (p *Pipeline) Reset() {
	p.stages = [NumStages]insts.Instruction{}
	p.stats = Statistics{}
	p.branchPredictor.Reset()
}

// Push advances the pipeline once and places inst in FETCH.
func (p *Pipeline) Push(inst insts.Instruction) {
	p.Advance()

	p.stages[StageFetch] = inst
	if inst.Kind == insts.KindBranch {
		p.stats.Branches++
	}
}

// Advance performs one logical cycle: retire WRITEBACK, resolve a branch
// in DECODE, perform the data access of MEM, charge the cycles and shift
// every stage forward, leaving FETCH empty.
//
// A data miss sets the cost of the advance to the miss delay, replacing
// a mispredict surcharge from the same advance rather than adding to it.
func (p *Pipeline) Advance() {
	cycles := p.latencyTable.BaseCycles()

	p.retire()

	if p.stages[StageDecode].Kind == insts.KindBranch {
		if !p.resolveBranch() {
			cycles = p.latencyTable.MispredictCycles()
		}
	}

	if dataAddr, ok := p.stages[StageMem].DataAddress(); ok {
		if !p.accessData(dataAddr) {
			cycles = p.latencyTable.CacheMissCycles()
		}
	}

	p.stats.Cycles += cycles
	p.stats.Advances++

	copy(p.stages[StageDecode:], p.stages[:StageWriteback])
	p.stages[StageFetch] = insts.Instruction{}
}

// Drain advances until every stage is empty and returns the number of
// advances performed.
func (p *Pipeline) Drain() uint64 {
	var n uint64
	for !p.Empty() {
		p.Advance()
		n++
	}
	return n
}

// retire counts the instruction leaving WRITEBACK. Bubbles carry address
// 0 and are not counted.
func (p *Pipeline) retire() {
	wb := p.stages[StageWriteback]
	if wb.Addr == 0 {
		return
	}

	p.stats.Instructions++
	if p.debug != nil {
		fmt.Fprintf(p.debug, "DEBUG: Retired Instruction at 0x%x, Type %d, at Time %d \n",
			wb.Addr, wb.Kind, p.stats.Cycles)
	}
}

// resolveBranch checks the static prediction of the branch in DECODE
// against the instruction behind it in FETCH. The branch was taken when
// FETCH holds a real instruction that is not the fall-through.
func (p *Pipeline) resolveBranch() bool {
	fetch := p.stages[StageFetch]
	decode := p.stages[StageDecode]

	taken := fetch.Kind != insts.KindNOP && fetch.Addr != decode.Addr+4
	if taken && p.debug != nil {
		fmt.Fprintf(p.debug, "DEBUG: Branch Taken: FETCH addr = 0x%x, DECODE instr addr = 0x%x \n",
			fetch.Addr, decode.Addr)
	}

	if p.branchPredictor.Update(taken) {
		p.stats.BranchCorrect++
		return true
	}

	p.stats.BranchMispredictions++
	return false
}

// accessData probes the data cache and reports whether it hit.
func (p *Pipeline) accessData(addr uint32) bool {
	result := p.dcache.Probe(addr)

	if result.Hit {
		p.stats.DataHits++
	} else {
		p.stats.DataMisses++
	}

	if p.trace != nil {
		fmt.Fprintf(p.trace, "%s \n", result)
		if result.Hit {
			fmt.Fprintf(p.trace, "DATA HIT:\t Address 0x%x\n", addr)
		} else {
			fmt.Fprintf(p.trace, "DATA MISS:\t Address 0x%x\n", addr)
		}
	}

	return result.Hit
}
