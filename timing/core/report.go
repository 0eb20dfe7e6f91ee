package core

import (
	"fmt"
	"io"

	"github.com/sarchlab/iplcsim/timing/cache"
)

// PrintCacheConfiguration writes the cache configuration header.
func PrintCacheConfiguration(w io.Writer, c cache.Config) {
	fmt.Fprintf(w, "Cache Configuration \n")
	fmt.Fprintf(w, "   Index: %d bits or %d lines \n", c.IndexBits, c.NumSets())
	fmt.Fprintf(w, "   BlockSize: %d \n", c.BlockSize)
	fmt.Fprintf(w, "   Associativity: %d \n", c.Associativity)
	fmt.Fprintf(w, "   BlockOffSetBits: %d \n", c.OffsetBits())
	fmt.Fprintf(w, "   CacheSize: %d \n", c.SizeMetric())
}

// PrintConfiguration writes the configuration header of the simulator.
func (s *Simulator) PrintConfiguration(w io.Writer) {
	PrintCacheConfiguration(w, s.config.Cache)
}

// Report writes the cache and pipeline summary for stats.
func Report(w io.Writer, stats Stats) {
	fmt.Fprintf(w, " Cache Performance \n")
	fmt.Fprintf(w, "\t Number of Cache Accesses is %d \n", stats.Accesses)
	fmt.Fprintf(w, "\t Number of Cache Misses is %d \n", stats.Misses)
	fmt.Fprintf(w, "\t Number of Cache Hits is %d \n", stats.Hits)
	fmt.Fprintf(w, "\t Cache Miss Rate is %f \n\n", stats.MissRate())
	fmt.Fprintf(w, "Pipeline Performance \n")
	fmt.Fprintf(w, "\t Total Cycles is %d \n", stats.Cycles)
	fmt.Fprintf(w, "\t Total Instructions is %d \n", stats.Instructions)
	fmt.Fprintf(w, "\t Total Branch Instructions is %d \n", stats.Branches)
	fmt.Fprintf(w, "\t Total Correct Branch Predictions is %d \n", stats.BranchCorrect)
	fmt.Fprintf(w, "\t CPI is %f \n\n", stats.CPI())
}

// Report writes the summary of the statistics so far.
func (s *Simulator) Report(w io.Writer) {
	Report(w, s.Stats())
}
