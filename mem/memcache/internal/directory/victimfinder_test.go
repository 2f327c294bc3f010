package directory

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("RoundRobinVictimFinder", func() {
	var f *RoundRobinVictimFinder

	ginkgo.BeforeEach(func() {
		f = NewRoundRobinVictimFinder(2)
	})

	ginkgo.It("should prefer invalid ways", func() {
		ways := []Entry{{Valid: true}, {}, {Valid: true}}

		way, ok := f.FindVictim(0, ways)

		Expect(ok).To(BeTrue())
		Expect(way).To(Equal(1))
	})

	ginkgo.It("should rotate over valid ways", func() {
		ways := []Entry{{Valid: true}, {Valid: true}, {Valid: true}}

		picks := []int{}
		for i := 0; i < 4; i++ {
			way, _ := f.FindVictim(1, ways)
			picks = append(picks, way)
		}

		Expect(picks).To(Equal([]int{0, 1, 2, 0}))
	})

	ginkgo.It("should skip locked ways", func() {
		ways := []Entry{{Valid: true, Lock: true}, {Lock: true}, {Valid: true}}

		way, ok := f.FindVictim(0, ways)
		Expect(ok).To(BeTrue())
		Expect(way).To(Equal(2))

		ways[2].Lock = true
		_, ok = f.FindVictim(0, ways)
		Expect(ok).To(BeFalse())
	})
})

var _ = ginkgo.Describe("LRUVictimFinder", func() {
	var f *LRUVictimFinder

	ginkgo.BeforeEach(func() {
		f = NewLRUVictimFinder(1, 3)
	})

	ginkgo.It("should evict the least recently used way", func() {
		ways := []Entry{{Valid: true}, {Valid: true}, {Valid: true}}

		f.Visit(0, 0)
		f.Visit(0, 2)

		way, ok := f.FindVictim(0, ways)
		Expect(ok).To(BeTrue())
		Expect(way).To(Equal(1))
	})

	ginkgo.It("should skip locked ways", func() {
		ways := []Entry{{Valid: true}, {Valid: true, Lock: true}, {Valid: true}}

		f.Visit(0, 0)

		way, _ := f.FindVictim(0, ways)
		Expect(way).To(Equal(2))
	})
})
