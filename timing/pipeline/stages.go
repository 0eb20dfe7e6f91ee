package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/iplcsim/insts"
)

// Stage identifies one slot of the pipeline.
type Stage int

// Pipeline stages, in the order instructions move through them.
const (
	StageFetch Stage = iota
	StageDecode
	StageALU
	StageMem
	StageWriteback

	// NumStages is the depth of the pipeline.
	NumStages = 5
)

// ErrBadStage reports a stage index outside the pipeline.
var ErrBadStage = errors.New("bad stage")

var stageNames = [NumStages]string{
	StageFetch:     "FETCH",
	StageDecode:    "DECODE",
	StageALU:       "ALU",
	StageMem:       "MEM",
	StageWriteback: "WB",
}

// Valid reports whether s names a pipeline stage.
func (s Stage) Valid() bool {
	return s >= 0 && s < NumStages
}

// String returns the short name of the stage.
func (s Stage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Dump writes one line describing every stage, prefixed with the current
// cycle count:
//
//	(cyc: 12) FETCH:	 1: 0x400010 	DECODE:	 3: 0x40000c 	...	WB:	 0: 0x0
//
// Each stage shows its kind number and instruction address.
func (p *Pipeline) Dump(w io.Writer) error {
	for s := StageFetch; s < NumStages; s++ {
		if err := p.dumpStage(w, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) dumpStage(w io.Writer, s Stage) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrBadStage, int(s))
	}

	inst := p.stages[s]
	var err error
	switch s {
	case StageFetch:
		_, err = fmt.Fprintf(w, "(cyc: %d) %s:\t %d: 0x%x \t",
			p.stats.Cycles, s, inst.Kind, inst.Addr)
	case StageWriteback:
		_, err = fmt.Fprintf(w, "%s:\t %d: 0x%x \n", s, inst.Kind, inst.Addr)
	default:
		_, err = fmt.Fprintf(w, "%s:\t %d: 0x%x \t", s, inst.Kind, inst.Addr)
	}
	return err
}

// Stage returns the instruction held by stage s. An invalid stage yields
// an empty slot.
func (p *Pipeline) Stage(s Stage) insts.Instruction {
	if !s.Valid() {
		return insts.Instruction{}
	}
	return p.stages[s]
}

// Empty reports whether no stage holds an instruction.
func (p *Pipeline) Empty() bool {
	for _, inst := range p.stages {
		if !inst.IsEmpty() {
			return false
		}
	}
	return true
}
