package cache

import (
	"errors"
	"fmt"
	"math/bits"
)

// DefaultMaxSize is the classic ceiling on the cache size metric.
const DefaultMaxSize = 10240

var (
	// ErrInvalidConfig reports a geometry that cannot be built.
	ErrInvalidConfig = errors.New("invalid cache configuration")

	// ErrCacheTooLarge reports a geometry whose size metric exceeds the
	// configured ceiling.
	ErrCacheTooLarge = errors.New("cache too big")
)

// Config holds cache configuration parameters.
type Config struct {
	// IndexBits selects the number of sets (2^IndexBits).
	IndexBits int
	// BlockSize in 4-byte words. Must be a power of two.
	BlockSize int
	// Associativity (number of ways)
	Associativity int
	// MaxSize is the ceiling on SizeMetric. Zero disables the check.
	MaxSize uint64
}

// DefaultConfig returns a direct-mapped 128-set cache with one-word
// blocks, which fits under the default size ceiling.
func DefaultConfig() Config {
	return Config{
		IndexBits:     7,
		BlockSize:     1,
		Associativity: 1,
		MaxSize:       DefaultMaxSize,
	}
}

// OffsetBits returns the width of the block offset field,
// ceil(log2(BlockSize * 4)).
func (c Config) OffsetBits() int {
	if c.BlockSize <= 0 {
		return 0
	}
	return bits.Len(uint(c.BlockSize*4 - 1))
}

// NumSets returns the number of sets.
func (c Config) NumSets() int {
	return 1 << c.IndexBits
}

// SizeMetric returns assoc * sets * (32*blocksize + 33 - index - offset),
// the storage bits of the cache including tags and valid bits.
func (c Config) SizeMetric() uint64 {
	perLine := 32*c.BlockSize + 33 - c.IndexBits - c.OffsetBits()
	if perLine < 0 {
		perLine = 0
	}
	return uint64(c.Associativity) * uint64(c.NumSets()) * uint64(perLine)
}

// Layout returns the address layout of the configuration.
func (c Config) Layout() Layout {
	return Layout{
		IndexBits:  uint(c.IndexBits),
		OffsetBits: uint(c.OffsetBits()),
	}
}

// Validate checks that the configuration describes a buildable cache
// within the size ceiling.
func (c Config) Validate() error {
	if c.IndexBits < 0 {
		return fmt.Errorf("%w: index bits must be >= 0, got %d", ErrInvalidConfig, c.IndexBits)
	}
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("%w: block size must be a positive power of two, got %d",
			ErrInvalidConfig, c.BlockSize)
	}
	if c.Associativity < 1 {
		return fmt.Errorf("%w: associativity must be >= 1, got %d", ErrInvalidConfig, c.Associativity)
	}
	if c.IndexBits+c.OffsetBits() > 32 {
		return fmt.Errorf("%w: %d index bits and %d offset bits exceed a 32-bit address",
			ErrInvalidConfig, c.IndexBits, c.OffsetBits())
	}
	if c.MaxSize != 0 && c.SizeMetric() > c.MaxSize {
		return fmt.Errorf("%w: size %d is greater than max size of %d",
			ErrCacheTooLarge, c.SizeMetric(), c.MaxSize)
	}
	return nil
}

// Layout partitions a 32-bit address into tag, index and block offset,
// from most to least significant.
type Layout struct {
	IndexBits  uint
	OffsetBits uint
}

// Index returns the set selected by addr.
func (l Layout) Index(addr uint32) uint32 {
	return (addr >> l.OffsetBits) & (1<<l.IndexBits - 1)
}

// Tag returns the tag bits of addr.
func (l Layout) Tag(addr uint32) uint32 {
	shift := l.IndexBits + l.OffsetBits
	if shift >= 32 {
		return 0
	}
	return addr >> shift
}

// BlockAddr returns addr with its block offset cleared.
func (l Layout) BlockAddr(addr uint32) uint32 {
	return addr &^ (1<<l.OffsetBits - 1)
}
