package benchmarks

import "fmt"

const (
	// textBase is where every synthetic program starts.
	textBase uint32 = 0x00400000
	// dataBase is the first data address used by loads and stores. It maps
	// to the upper half of the default cache so that data does not evict text.
	dataBase uint32 = 0x10010100
)

// GetMicrobenchmarks returns the standard set of synthetic traces.
// Each benchmark targets one effect of the timing model.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		straightLine(),
		tightLoop(),
		memoryStream(),
		memoryReuse(),
		conflictMisses(),
		forwardBranches(),
		mixedLoop(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		tightLoop(),
		memoryReuse(),
		forwardBranches(),
	}
}

// TraceBuilder emits trace lines at consecutive instruction addresses.
type TraceBuilder struct {
	pc    uint32
	lines []string
}

// NewTraceBuilder creates a builder whose first instruction is at pc.
func NewTraceBuilder(pc uint32) *TraceBuilder {
	return &TraceBuilder{pc: pc}
}

// At moves the next instruction to pc, as after a taken branch.
func (b *TraceBuilder) At(pc uint32) *TraceBuilder {
	b.pc = pc
	return b
}

// PC returns the address of the next instruction.
func (b *TraceBuilder) PC() uint32 {
	return b.pc
}

func (b *TraceBuilder) emit(format string, args ...any) *TraceBuilder {
	b.lines = append(b.lines, fmt.Sprintf("%x ", b.pc)+fmt.Sprintf(format, args...))
	b.pc += 4
	return b
}

// Add emits add rd, rs, rt.
func (b *TraceBuilder) Add(rd, rs, rt int) *TraceBuilder {
	return b.emit("add $%d, $%d, $%d", rd, rs, rt)
}

// Lw emits a load of data into rt.
func (b *TraceBuilder) Lw(rt int, data uint32) *TraceBuilder {
	return b.emit("lw $%d, 0($0) %x", rt, data)
}

// Sw emits a store of rt to data.
func (b *TraceBuilder) Sw(rt int, data uint32) *TraceBuilder {
	return b.emit("sw $%d, 0($0) %x", rt, data)
}

// Beq emits a conditional branch. Whether it is taken is decided by the
// address of the next emitted instruction.
func (b *TraceBuilder) Beq(rs, rt int) *TraceBuilder {
	return b.emit("beq $%d, $%d, L", rs, rt)
}

// Nop emits a nop.
func (b *TraceBuilder) Nop() *TraceBuilder {
	return b.emit("nop")
}

// Lines returns the trace built so far.
func (b *TraceBuilder) Lines() []string {
	return b.lines
}

// 1. Straight Line - every fetch touches a new word
func straightLine() Benchmark {
	b := NewTraceBuilder(textBase)
	for i := 0; i < 64; i++ {
		b.Add(i%8+8, i%8+8, 1)
	}

	return Benchmark{
		Name:        "straight_line",
		Description: "64 sequential ADDs - measures cold instruction misses",
		Trace:       b.Lines(),
	}
}

// 2. Tight Loop - a small body that fits in the cache
func tightLoop() Benchmark {
	b := NewTraceBuilder(textBase)
	for iter := 0; iter < 16; iter++ {
		b.At(textBase)
		for i := 0; i < 8; i++ {
			b.Add(8, 8, 1)
		}
		b.Beq(8, 9)
	}
	b.Nop()

	return Benchmark{
		Name:        "tight_loop",
		Description: "16 iterations of an 8-ADD loop - measures branch prediction",
		Trace:       b.Lines(),
	}
}

// 3. Memory Stream - every load touches a new word
func memoryStream() Benchmark {
	b := NewTraceBuilder(textBase)
	for i := uint32(0); i < 64; i++ {
		b.Lw(8, dataBase+i*4)
	}

	return Benchmark{
		Name:        "memory_stream",
		Description: "64 loads with a one-word stride - measures data misses",
		Trace:       b.Lines(),
	}
}

// 4. Memory Reuse - the same eight words loaded over and over
func memoryReuse() Benchmark {
	b := NewTraceBuilder(textBase)
	for iter := 0; iter < 8; iter++ {
		b.At(textBase)
		for i := uint32(0); i < 8; i++ {
			b.Lw(8, dataBase+i*4)
		}
		b.Beq(8, 9)
	}
	b.Nop()

	return Benchmark{
		Name:        "memory_reuse",
		Description: "8 loads repeated 8 times - measures data hits",
		Trace:       b.Lines(),
	}
}

// 5. Conflict Misses - two words that share a set in small caches
func conflictMisses() Benchmark {
	b := NewTraceBuilder(textBase)
	for i := 0; i < 32; i++ {
		b.Lw(8, dataBase+uint32(i%2)*0x10000)
	}

	return Benchmark{
		Name:        "conflict_misses",
		Description: "32 loads alternating between two aliasing words - measures associativity",
		Trace:       b.Lines(),
	}
}

// 6. Forward Branches - each branch skips three instructions
func forwardBranches() Benchmark {
	b := NewTraceBuilder(textBase)
	for i := 0; i < 16; i++ {
		b.Beq(8, 9)
		b.At(b.PC() + 12)
		b.Add(8, 8, 1)
	}

	return Benchmark{
		Name:        "forward_branches",
		Description: "16 branches that skip ahead - measures taken branches on cold code",
		Trace:       b.Lines(),
	}
}

// 7. Mixed Loop - loads, ALU work and stores in a loop
func mixedLoop() Benchmark {
	b := NewTraceBuilder(textBase)
	for iter := uint32(0); iter < 8; iter++ {
		b.At(textBase)
		b.Lw(8, dataBase+iter*4)
		b.Add(9, 9, 8)
		b.Add(10, 10, 1)
		b.Sw(9, dataBase+0x100+iter*4)
		b.Beq(10, 11)
	}
	b.Nop()

	return Benchmark{
		Name:        "mixed_loop",
		Description: "8 iterations of load, add, add, store - balanced characteristics",
		Trace:       b.Lines(),
	}
}
