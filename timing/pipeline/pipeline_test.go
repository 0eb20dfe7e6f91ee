package pipeline_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/timing/cache"
	"github.com/sarchlab/iplcsim/timing/latency"
	"github.com/sarchlab/iplcsim/timing/pipeline"
)

// fakeDataCache hits on the addresses it was told about and misses on
// everything else.
type fakeDataCache struct {
	hits   map[uint32]bool
	probes []uint32
}

func newFakeDataCache(hits ...uint32) *fakeDataCache {
	c := &fakeDataCache{hits: make(map[uint32]bool)}
	for _, addr := range hits {
		c.hits[addr] = true
	}
	return c
}

func (c *fakeDataCache) Probe(addr uint32) cache.ProbeResult {
	c.probes = append(c.probes, addr)
	return cache.ProbeResult{Addr: addr, Hit: c.hits[addr]}
}

func rtype(addr uint32) insts.Instruction {
	return insts.Instruction{
		Kind:    insts.KindRType,
		Addr:    addr,
		Payload: insts.RType{Mnemonic: "add", Rd: 3, Rs: 3, Rt: 1},
	}
}

func load(addr, data uint32) insts.Instruction {
	return insts.Instruction{
		Kind:    insts.KindLW,
		Addr:    addr,
		Payload: insts.Load{Rt: 1, Base: insts.NoReg, DataAddr: data},
	}
}

func store(addr, data uint32) insts.Instruction {
	return insts.Instruction{
		Kind:    insts.KindSW,
		Addr:    addr,
		Payload: insts.Store{Rt: 1, Base: insts.NoReg, DataAddr: data},
	}
}

func branch(addr uint32) insts.Instruction {
	return insts.Instruction{
		Kind:    insts.KindBranch,
		Addr:    addr,
		Payload: insts.Branch{Rs: insts.NoReg, Rt: insts.NoReg},
	}
}

var _ = Describe("Pipeline", func() {
	var (
		dcache *fakeDataCache
		pipe   *pipeline.Pipeline
	)

	BeforeEach(func() {
		dcache = newFakeDataCache()
		pipe = pipeline.NewPipeline(dcache)
	})

	Describe("NewPipeline", func() {
		It("should start empty", func() {
			Expect(pipe.Empty()).To(BeTrue())
			Expect(pipe.Stats()).To(Equal(pipeline.Statistics{}))
			Expect(pipe.BranchPredictor().Predict()).To(BeFalse())
		})

		It("should honour the branch prediction option", func() {
			pipe = pipeline.NewPipeline(dcache, pipeline.WithBranchPredictTaken(true))
			Expect(pipe.BranchPredictor().Predict()).To(BeTrue())
		})
	})

	Describe("Push", func() {
		It("should advance once and place the instruction in FETCH", func() {
			pipe.Push(rtype(0x1000))

			Expect(pipe.Stage(pipeline.StageFetch).Addr).To(Equal(uint32(0x1000)))
			Expect(pipe.Stats().Cycles).To(Equal(uint64(1)))
			Expect(pipe.Stats().Advances).To(Equal(uint64(1)))
		})

		It("should move earlier instructions one stage forward", func() {
			pipe.Push(rtype(0x1000))
			pipe.Push(rtype(0x1004))
			pipe.Push(rtype(0x1008))

			Expect(pipe.Stage(pipeline.StageFetch).Addr).To(Equal(uint32(0x1008)))
			Expect(pipe.Stage(pipeline.StageDecode).Addr).To(Equal(uint32(0x1004)))
			Expect(pipe.Stage(pipeline.StageALU).Addr).To(Equal(uint32(0x1000)))
			Expect(pipe.Stage(pipeline.StageMem).IsEmpty()).To(BeTrue())
		})

		It("should count branches when they enter FETCH", func() {
			pipe.Push(branch(0x1000))
			Expect(pipe.Stats().Branches).To(Equal(uint64(1)))
		})
	})

	Describe("Advance", func() {
		It("should leave FETCH empty", func() {
			pipe.Push(rtype(0x1000))
			pipe.Advance()

			Expect(pipe.Stage(pipeline.StageFetch).IsEmpty()).To(BeTrue())
			Expect(pipe.Stage(pipeline.StageDecode).Addr).To(Equal(uint32(0x1000)))
		})

		It("should not count bubbles as retired", func() {
			for i := 0; i < 10; i++ {
				pipe.Advance()
			}
			Expect(pipe.Stats().Instructions).To(BeZero())
			Expect(pipe.Stats().Cycles).To(Equal(uint64(10)))
		})
	})

	Describe("Drain", func() {
		It("should take five advances to retire a single instruction", func() {
			pipe.Push(rtype(0x1000))

			Expect(pipe.Drain()).To(Equal(uint64(5)))
			Expect(pipe.Empty()).To(BeTrue())
			Expect(pipe.Stats().Instructions).To(Equal(uint64(1)))
			Expect(pipe.Stats().Cycles).To(Equal(uint64(6)))
		})

		It("should do nothing on an empty pipeline", func() {
			Expect(pipe.Drain()).To(BeZero())
			Expect(pipe.Stats().Cycles).To(BeZero())
		})

		It("should retire a traced nop that carries an address", func() {
			pipe.Push(insts.Instruction{Kind: insts.KindNOP, Addr: 0x1000})

			Expect(pipe.Drain()).To(Equal(uint64(5)))
			Expect(pipe.Stats().Instructions).To(Equal(uint64(1)))
		})
	})

	Describe("Data accesses", func() {
		It("should charge the miss delay when a load misses in MEM", func() {
			pipe.Push(load(0x1000, 0x2000))
			pipe.Drain()

			stats := pipe.Stats()
			Expect(stats.Cycles).To(Equal(uint64(15)))
			Expect(stats.DataMisses).To(Equal(uint64(1)))
			Expect(stats.DataHits).To(BeZero())
			Expect(dcache.probes).To(Equal([]uint32{0x2000}))
		})

		It("should charge a single cycle when a store hits", func() {
			dcache = newFakeDataCache(0x3000)
			pipe = pipeline.NewPipeline(dcache)

			pipe.Push(store(0x1000, 0x3000))
			pipe.Drain()

			stats := pipe.Stats()
			Expect(stats.Cycles).To(Equal(uint64(6)))
			Expect(stats.DataHits).To(Equal(uint64(1)))
		})

		It("should not probe for instructions without a data address", func() {
			pipe.Push(rtype(0x1000))
			pipe.Push(branch(0x1004))
			pipe.Drain()

			Expect(dcache.probes).To(BeEmpty())
		})

		It("should write access lines to the trace writer", func() {
			var buf bytes.Buffer
			pipe = pipeline.NewPipeline(dcache, pipeline.WithTrace(&buf))

			pipe.Push(load(0x1000, 0x2000))
			pipe.Drain()

			Expect(buf.String()).To(ContainSubstring("DATA MISS:\t Address 0x2000\n"))
		})
	})

	Describe("Branch resolution", func() {
		It("should charge the mispredict surcharge for a taken branch predicted not taken", func() {
			pipe.Push(branch(0x1000))
			pipe.Push(rtype(0x1010))
			pipe.Drain()

			stats := pipe.Stats()
			Expect(stats.Cycles).To(Equal(uint64(8)))
			Expect(stats.Instructions).To(Equal(uint64(2)))
			Expect(stats.Branches).To(Equal(uint64(1)))
			Expect(stats.BranchCorrect).To(BeZero())
			Expect(stats.BranchMispredictions).To(Equal(uint64(1)))
		})

		It("should not charge a correctly predicted taken branch", func() {
			pipe = pipeline.NewPipeline(dcache, pipeline.WithBranchPredictTaken(true))

			pipe.Push(branch(0x1000))
			pipe.Push(rtype(0x1010))
			pipe.Drain()

			Expect(pipe.Stats().Cycles).To(Equal(uint64(7)))
			Expect(pipe.Stats().BranchCorrect).To(Equal(uint64(1)))
		})

		It("should treat the fall-through as not taken", func() {
			pipe.Push(branch(0x1000))
			pipe.Push(rtype(0x1004))
			pipe.Drain()

			Expect(pipe.Stats().Cycles).To(Equal(uint64(7)))
			Expect(pipe.Stats().BranchCorrect).To(Equal(uint64(1)))
		})

		It("should treat a bubble behind the branch as not taken", func() {
			pipe.Push(branch(0x1000))
			pipe.Drain()

			Expect(pipe.Stats().BranchCorrect).To(Equal(uint64(1)))
			Expect(pipe.BranchPredictor().Stats().Predictions).To(Equal(uint64(1)))
		})

		It("should log taken branches to the debug writer", func() {
			var buf bytes.Buffer
			pipe = pipeline.NewPipeline(dcache, pipeline.WithDebug(&buf))

			pipe.Push(branch(0x1000))
			pipe.Push(rtype(0x1010))
			pipe.Drain()

			Expect(buf.String()).To(ContainSubstring(
				"DEBUG: Branch Taken: FETCH addr = 0x1010, DECODE instr addr = 0x1000"))
			Expect(buf.String()).To(ContainSubstring("DEBUG: Retired Instruction at 0x1000, Type 4"))
		})
	})

	Describe("Overlapping penalties", func() {
		It("should let a data miss replace the mispredict surcharge", func() {
			pipe.Push(load(0x1000, 0x2000))
			pipe.Push(rtype(0x1004))
			pipe.Push(branch(0x1008))
			pipe.Push(rtype(0x1100))
			pipe.Drain()

			stats := pipe.Stats()
			Expect(stats.BranchMispredictions).To(Equal(uint64(1)))
			Expect(stats.DataMisses).To(Equal(uint64(1)))
			Expect(stats.Cycles).To(Equal(uint64(18)))
		})
	})

	Describe("Latency table", func() {
		It("should use the configured costs", func() {
			cfg := latency.DefaultTimingConfig()
			cfg.CacheMissDelay = 4
			pipe = pipeline.NewPipeline(dcache,
				pipeline.WithLatencyTable(latency.NewTableWithConfig(cfg)))

			pipe.Push(load(0x1000, 0x2000))
			pipe.Drain()

			Expect(pipe.Stats().Cycles).To(Equal(uint64(9)))
		})
	})

	Describe("Statistics", func() {
		It("should compute CPI", func() {
			stats := pipeline.Statistics{Cycles: 15, Instructions: 3}
			Expect(stats.CPI()).To(BeNumerically("~", 5.0, 0.0001))
		})

		It("should report zero CPI without instructions", func() {
			Expect(pipeline.Statistics{Cycles: 4}.CPI()).To(BeZero())
		})
	})

	Describe("Reset", func() {
		It("should empty the stages and clear statistics", func() {
			pipe.Push(branch(0x1000))
			pipe.Push(rtype(0x1010))
			pipe.Reset()

			Expect(pipe.Empty()).To(BeTrue())
			Expect(pipe.Stats()).To(Equal(pipeline.Statistics{}))
			Expect(pipe.BranchPredictor().Stats().Predictions).To(BeZero())
		})
	})

	Describe("Stages", func() {
		It("should name every stage", func() {
			Expect(pipeline.StageFetch.String()).To(Equal("FETCH"))
			Expect(pipeline.StageDecode.String()).To(Equal("DECODE"))
			Expect(pipeline.StageALU.String()).To(Equal("ALU"))
			Expect(pipeline.StageMem.String()).To(Equal("MEM"))
			Expect(pipeline.StageWriteback.String()).To(Equal("WB"))
			Expect(pipeline.Stage(7).Valid()).To(BeFalse())
		})

		It("should return an empty slot for an invalid stage", func() {
			pipe.Push(rtype(0x1000))
			Expect(pipe.Stage(pipeline.Stage(-1)).IsEmpty()).To(BeTrue())
		})
	})

	Describe("Dump", func() {
		It("should print every stage on one line", func() {
			var buf bytes.Buffer
			pipe.Push(load(0x1000, 0x2000))

			Expect(pipe.Dump(&buf)).To(Succeed())
			Expect(buf.String()).To(Equal(
				"(cyc: 1) FETCH:\t 2: 0x1000 \tDECODE:\t 0: 0x0 \tALU:\t 0: 0x0 \t" +
					"MEM:\t 0: 0x0 \tWB:\t 0: 0x0 \n"))
		})

		It("should report write failures", func() {
			Expect(pipe.Dump(failingWriter{})).To(MatchError(errWrite))
		})
	})
})

var errWrite = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWrite
}
