package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/iplcsim/timing/cache"
)

var _ = Describe("Config", func() {
	DescribeTable("OffsetBits",
		func(blockSize, want int) {
			config := cache.Config{BlockSize: blockSize}
			Expect(config.OffsetBits()).To(Equal(want))
		},
		Entry("one word", 1, 2),
		Entry("two words", 2, 3),
		Entry("four words", 4, 4),
		Entry("sixteen words", 16, 6),
	)

	It("should compute the size metric", func() {
		config := cache.Config{IndexBits: 10, BlockSize: 1, Associativity: 1}
		// 1 * 1024 * (32 + 33 - 10 - 2)
		Expect(config.SizeMetric()).To(Equal(uint64(54272)))

		config = cache.Config{IndexBits: 5, BlockSize: 2, Associativity: 2}
		// 2 * 32 * (64 + 33 - 5 - 3)
		Expect(config.SizeMetric()).To(Equal(uint64(5696)))
	})

	It("should accept the default configuration", func() {
		config := cache.DefaultConfig()
		Expect(config.Validate()).To(Succeed())
		Expect(config.SizeMetric()).To(BeNumerically("<=", cache.DefaultMaxSize))
	})

	It("should reject a cache larger than the ceiling", func() {
		config := cache.Config{
			IndexBits:     10,
			BlockSize:     1,
			Associativity: 1,
			MaxSize:       cache.DefaultMaxSize,
		}
		Expect(config.Validate()).To(MatchError(cache.ErrCacheTooLarge))

		_, err := cache.New(config)
		Expect(err).To(MatchError(cache.ErrCacheTooLarge))
	})

	It("should not check size when the ceiling is zero", func() {
		config := cache.Config{IndexBits: 10, BlockSize: 1, Associativity: 1}
		Expect(config.Validate()).To(Succeed())
	})

	DescribeTable("should reject unbuildable geometries",
		func(config cache.Config) {
			Expect(config.Validate()).To(MatchError(cache.ErrInvalidConfig))

			_, err := cache.New(config)
			Expect(err).To(MatchError(cache.ErrInvalidConfig))
		},
		Entry("negative index bits", cache.Config{IndexBits: -1, BlockSize: 1, Associativity: 1}),
		Entry("zero block size", cache.Config{IndexBits: 2, BlockSize: 0, Associativity: 1}),
		Entry("block size not a power of two", cache.Config{IndexBits: 2, BlockSize: 3, Associativity: 1}),
		Entry("zero associativity", cache.Config{IndexBits: 2, BlockSize: 1, Associativity: 0}),
		Entry("index wider than the address", cache.Config{IndexBits: 31, BlockSize: 1, Associativity: 1}),
	)

	Describe("Layout", func() {
		It("should split addresses into tag and index", func() {
			layout := cache.Config{IndexBits: 10, BlockSize: 1, Associativity: 1}.Layout()

			Expect(layout.Index(0x1000)).To(Equal(uint32(0)))
			Expect(layout.Tag(0x1000)).To(Equal(uint32(1)))
			Expect(layout.Index(0x1004)).To(Equal(uint32(1)))
			Expect(layout.Tag(0x1004)).To(Equal(uint32(1)))
			Expect(layout.Index(0x2000)).To(Equal(uint32(0)))
			Expect(layout.Tag(0x2000)).To(Equal(uint32(2)))
		})

		It("should use a single set with zero index bits", func() {
			layout := cache.Config{IndexBits: 0, BlockSize: 1, Associativity: 1}.Layout()

			Expect(layout.Index(0xFFFFFFFF)).To(Equal(uint32(0)))
			Expect(layout.Tag(0xFFFFFFFF)).To(Equal(uint32(0x3FFFFFFF)))
		})

		It("should clear the block offset", func() {
			layout := cache.Config{IndexBits: 4, BlockSize: 4, Associativity: 1}.Layout()
			Expect(layout.BlockAddr(0x100C)).To(Equal(uint32(0x1000)))
		})
	})
})
