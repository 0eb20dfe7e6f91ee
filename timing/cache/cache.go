// Package cache provides the set-associative tag store with per-set LRU
// ordering that backs instruction fetches and data accesses.
package cache

import (
	"fmt"
)

// none terminates a recency chain.
const none = -1

// ProbeResult contains the result of a cache probe.
type ProbeResult struct {
	// Addr is the probed address.
	Addr uint32
	// Hit indicates whether the probe was a cache hit.
	Hit bool
	// Tag is the tag field of the probed address.
	Tag uint32
	// Index is the set selected by the probed address.
	Index uint32
}

// String formats the probe as the simulator's per-access trace line.
func (r ProbeResult) String() string {
	return fmt.Sprintf("Address %x: Tag= %x, Index= %d", r.Addr, r.Tag, r.Index)
}

// Statistics holds cache performance statistics.
// Accesses always equals Hits + Misses.
type Statistics struct {
	Accesses uint64
	Hits     uint64
	Misses   uint64
}

// MissRate returns Misses / Accesses, or 0 before the first access.
func (s Statistics) MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.Accesses)
}

// Prober is anything that can serve cache probes.
type Prober interface {
	// Probe looks addr up, updates recency and reports hit or miss.
	Probe(addr uint32) ProbeResult
	// Stats returns the access counters.
	Stats() Statistics
}

// line is one way of a set. prev and next are way indices that link the
// valid lines from LRU to MRU.
type line struct {
	valid bool
	tag   uint32
	prev  int
	next  int
}

// set holds the ways of one index and the two ends of its recency chain.
type set struct {
	ways []line
	mru  int
	lru  int
}

// Cache is a set-associative tag store. It records presence only.
type Cache struct {
	config Config
	layout Layout
	sets   []set
	stats  Statistics
}

// New creates a cache with the given configuration. Configurations that
// fail Config.Validate are rejected.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Cache{
		config: config,
		layout: config.Layout(),
		sets:   make([]set, config.NumSets()),
	}
	for i := range c.sets {
		c.sets[i].ways = make([]line, config.Associativity)
	}
	c.reset()

	return c, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Layout returns the address layout of the cache.
func (c *Cache) Layout() Layout {
	return c.layout
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Reset invalidates every line and clears statistics.
func (c *Cache) Reset() {
	c.reset()
	c.stats = Statistics{}
}

// reset seeds every set with all lines invalid and a singleton chain at
// way 0.
func (c *Cache) reset() {
	for i := range c.sets {
		s := &c.sets[i]
		for j := range s.ways {
			s.ways[j] = line{prev: none, next: none}
		}
		s.mru = 0
		s.lru = 0
	}
}

// Probe looks addr up. A hit promotes the line to MRU. A miss installs the
// tag in the first invalid way or, when every way is valid, in place of
// the LRU line. Either way the installed line becomes MRU.
func (c *Cache) Probe(addr uint32) ProbeResult {
	index := c.layout.Index(addr)
	tag := c.layout.Tag(addr)
	result := ProbeResult{Addr: addr, Tag: tag, Index: index}

	c.stats.Accesses++
	s := &c.sets[index]

	for i := range s.ways {
		l := &s.ways[i]
		if !l.valid {
			c.stats.Misses++
			s.fill(i, tag)
			return result
		}
		if l.tag == tag {
			c.stats.Hits++
			s.promote(i)
			result.Hit = true
			return result
		}
	}

	c.stats.Misses++
	s.replace(tag)
	return result
}

// promote moves way i to the MRU end of the chain.
func (s *set) promote(i int) {
	if len(s.ways) == 1 {
		return
	}

	l := &s.ways[i]
	if l.next == none {
		// Already MRU.
		return
	}

	s.ways[l.next].prev = l.prev
	if l.prev != none {
		s.ways[l.prev].next = l.next
	} else {
		s.lru = l.next
		s.ways[s.lru].prev = none
	}

	s.spliceMRU(i)
}

// fill installs tag into the unused way i.
func (s *set) fill(i int, tag uint32) {
	l := &s.ways[i]
	l.valid = true
	l.tag = tag

	// The very first fill lands on the seed of the chain.
	if i != s.mru {
		s.spliceMRU(i)
	}
}

// replace overwrites the LRU line with tag and makes it MRU.
func (s *set) replace(tag uint32) {
	victim := s.lru
	s.ways[victim].tag = tag

	if len(s.ways) == 1 {
		return
	}

	next := s.ways[victim].next
	if next != none {
		s.lru = next
		s.ways[next].prev = none
	}

	if victim != s.mru {
		s.spliceMRU(victim)
	}
}

// spliceMRU links way i after the current MRU. The caller has already
// detached i from the chain.
func (s *set) spliceMRU(i int) {
	s.ways[s.mru].next = i
	s.ways[i].prev = s.mru
	s.ways[i].next = none
	s.mru = i
}

// LRUOrder returns the ways of a set that hold valid lines, from least to
// most recently used.
func (c *Cache) LRUOrder(index int) []int {
	s := &c.sets[index]
	order := make([]int, 0, len(s.ways))
	if !s.ways[s.lru].valid {
		return order
	}
	for i := s.lru; i != none; i = s.ways[i].next {
		order = append(order, i)
	}
	return order
}

// Way returns the tag and valid bit of one way.
func (c *Cache) Way(index, way int) (tag uint32, valid bool) {
	l := c.sets[index].ways[way]
	return l.tag, l.valid
}

// Contains reports whether addr is present without touching recency or
// statistics.
func (c *Cache) Contains(addr uint32) bool {
	s := &c.sets[c.layout.Index(addr)]
	tag := c.layout.Tag(addr)
	for _, l := range s.ways {
		if l.valid && l.tag == tag {
			return true
		}
	}
	return false
}

// Verify checks the recency chain of every set: it must hold exactly the
// valid lines, each once, doubly linked, with nothing before the LRU end
// and nothing after the MRU end.
func (c *Cache) Verify() error {
	if c.stats.Accesses != c.stats.Hits+c.stats.Misses {
		return fmt.Errorf("accesses %d != hits %d + misses %d",
			c.stats.Accesses, c.stats.Hits, c.stats.Misses)
	}

	for index := range c.sets {
		if err := c.sets[index].verify(); err != nil {
			return fmt.Errorf("set %d: %w", index, err)
		}
	}
	return nil
}

func (s *set) verify() error {
	numValid := 0
	for _, l := range s.ways {
		if l.valid {
			numValid++
		}
	}

	if numValid == 0 {
		if s.lru != s.mru {
			return fmt.Errorf("empty set has lru %d != mru %d", s.lru, s.mru)
		}
		return nil
	}

	if s.ways[s.lru].prev != none {
		return fmt.Errorf("lru way %d has a predecessor", s.lru)
	}
	if s.ways[s.mru].next != none {
		return fmt.Errorf("mru way %d has a successor", s.mru)
	}

	seen := make([]bool, len(s.ways))
	count := 0
	prev := none
	for i := s.lru; i != none; i = s.ways[i].next {
		if seen[i] {
			return fmt.Errorf("way %d appears twice in the chain", i)
		}
		seen[i] = true
		if !s.ways[i].valid {
			return fmt.Errorf("invalid way %d is in the chain", i)
		}
		if s.ways[i].prev != prev {
			return fmt.Errorf("way %d has prev %d, want %d", i, s.ways[i].prev, prev)
		}
		prev = i
		count++
	}

	if prev != s.mru {
		return fmt.Errorf("chain ends at way %d, mru is %d", prev, s.mru)
	}
	if count != numValid {
		return fmt.Errorf("chain holds %d ways, %d are valid", count, numValid)
	}
	return nil
}
