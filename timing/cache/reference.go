package cache

import (
	"errors"
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// ErrDivergence reports a probe on which two tag stores disagreed.
var ErrDivergence = errors.New("tag stores diverged")

// Reference is a tag store with the same geometry and replacement policy
// as Cache, built on the Akita cache directory. Blocks are tagged with
// their block-aligned address.
type Reference struct {
	config Config
	layout Layout

	// Akita cache directory for tag/LRU management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// NewReference creates an Akita-backed tag store.
func NewReference(config Config) (*Reference, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Reference{
		config: config,
		layout: config.Layout(),
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			config.BlockSize*4,
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Config returns the cache configuration.
func (r *Reference) Config() Config {
	return r.config
}

// Stats returns cache statistics.
func (r *Reference) Stats() Statistics {
	return r.stats
}

// Reset invalidates every block and clears statistics.
func (r *Reference) Reset() {
	r.directory.Reset()
	r.stats = Statistics{}
}

// Probe looks addr up in the directory. A miss takes the victim chosen by
// the LRU victim finder, which prefers invalid blocks in way order.
func (r *Reference) Probe(addr uint32) ProbeResult {
	result := ProbeResult{
		Addr:  addr,
		Tag:   r.layout.Tag(addr),
		Index: r.layout.Index(addr),
	}
	blockAddr := uint64(r.layout.BlockAddr(addr))

	r.stats.Accesses++

	block := r.directory.Lookup(0, blockAddr) // PID=0
	if block != nil && block.IsValid {
		r.stats.Hits++
		r.directory.Visit(block) // Update LRU
		result.Hit = true
		return result
	}

	r.stats.Misses++

	victim := r.directory.FindVictim(blockAddr)
	if victim == nil {
		// This shouldn't happen with proper directory setup
		return result
	}
	victim.Tag = blockAddr
	victim.IsValid = true
	r.directory.Visit(victim)

	return result
}

// CrossCheck probes two tag stores in lockstep and remembers the first
// access on which they disagree. Results come from the primary.
type CrossCheck struct {
	primary   Prober
	reference Prober
	err       error
}

// NewCrossCheck pairs a primary tag store with a reference.
func NewCrossCheck(primary, reference Prober) *CrossCheck {
	return &CrossCheck{
		primary:   primary,
		reference: reference,
	}
}

// Probe probes both tag stores and returns the primary's result.
func (x *CrossCheck) Probe(addr uint32) ProbeResult {
	got := x.primary.Probe(addr)
	want := x.reference.Probe(addr)

	if x.err == nil && got.Hit != want.Hit {
		x.err = fmt.Errorf("%w: access %d at address 0x%x: primary hit=%v, reference hit=%v",
			ErrDivergence, x.primary.Stats().Accesses, addr, got.Hit, want.Hit)
	}

	return got
}

// Stats returns the primary's statistics.
func (x *CrossCheck) Stats() Statistics {
	return x.primary.Stats()
}

// Err returns the first divergence, or nil.
func (x *CrossCheck) Err() error {
	return x.err
}
