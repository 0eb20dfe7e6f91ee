// Package latency provides the cycle costs used by the pipeline's cycle
// accounting.
//
// The costs are fixed per run and can be configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/iplcsim/insts"
)

// Table provides cycle cost lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// BaseCycles returns the cost of an advance with no stall.
func (t *Table) BaseCycles() uint64 {
	return t.config.BaseCycles
}

// MispredictCycles returns the cost of an advance that resolves a
// mispredicted branch.
func (t *Table) MispredictCycles() uint64 {
	return t.config.BaseCycles + t.config.MispredictPenalty
}

// CacheMissCycles returns the cost of an advance whose data access misses.
func (t *Table) CacheMissCycles() uint64 {
	return t.config.CacheMissDelay
}

// FetchStallAdvances returns how many bubble advances the front-end
// inserts before pushing an instruction whose fetch missed. The push
// itself performs the last advance of the miss window.
func (t *Table) FetchStallAdvances() uint64 {
	if t.config.CacheMissDelay == 0 {
		return 0
	}
	return t.config.CacheMissDelay - 1
}

// IsMemoryOp returns true if the instruction accesses data memory.
func (t *Table) IsMemoryOp(inst insts.Instruction) bool {
	return inst.Kind.IsMemory()
}

// IsBranchOp returns true if the instruction is resolved by the branch
// predictor.
func (t *Table) IsBranchOp(inst insts.Instruction) bool {
	return inst.Kind == insts.KindBranch
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
