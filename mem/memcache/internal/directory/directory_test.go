package directory

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/soclib/mem/memcache/internal/copyset"
)

var _ = ginkgo.Describe("Directory", func() {
	var (
		mockCtrl *gomock.Controller
		vf       *MockVictimFinder
		d        *Directory
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		vf = NewMockVictimFinder(mockCtrl)
		d = New(16, 4, 4, vf)
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should split addresses", func() {
		addr := uint64(0x1234)

		nline := d.NLine(addr)
		Expect(nline).To(Equal(uint64(0x123)))
		Expect(d.SetOf(nline)).To(Equal(3))
		Expect(d.TagOf(nline)).To(Equal(uint64(0x12)))
		Expect(d.WordIndex(addr)).To(Equal(1))
		Expect(d.NLineOf(3, 0x12)).To(Equal(nline))
		Expect(d.LineAddr(nline)).To(Equal(uint64(0x1230)))
	})

	ginkgo.It("should miss on an empty directory", func() {
		_, _, hit := d.Read(0x100)
		Expect(hit).To(BeFalse())
	})

	ginkgo.It("should hit after a write", func() {
		nline := d.NLine(0x1234)
		e := Entry{Valid: true, Tag: d.TagOf(nline), Count: 1,
			DCopies: copyset.Of(2)}

		d.Write(d.SetOf(nline), 2, e)

		got, way, hit := d.Read(0x1238)
		Expect(hit).To(BeTrue())
		Expect(way).To(Equal(2))
		Expect(got).To(Equal(e))
	})

	ginkgo.It("should not hit an invalid entry with a matching tag", func() {
		nline := d.NLine(0x1234)
		d.Write(d.SetOf(nline), 0, Entry{Tag: d.TagOf(nline)})

		_, _, hit := d.ReadLine(nline)
		Expect(hit).To(BeFalse())
		Expect(d.Get(d.SetOf(nline), 0)).To(BeZero())
	})

	ginkgo.It("should invalidate", func() {
		d.Write(1, 1, Entry{Valid: true, Tag: 9})
		d.Inval(1, 1)

		Expect(d.Get(1, 1)).To(BeZero())
	})

	ginkgo.It("should ask the victim finder", func() {
		d.Write(5, 3, Entry{Valid: true, Tag: 7})
		vf.EXPECT().FindVictim(5, gomock.Len(4)).Return(3, true)

		e, way, ok := d.Select(5)

		Expect(ok).To(BeTrue())
		Expect(way).To(Equal(3))
		Expect(e.Tag).To(Equal(uint64(7)))
	})

	ginkgo.It("should fail to select when the finder fails", func() {
		vf.EXPECT().FindVictim(5, gomock.Any()).Return(0, false)

		_, _, ok := d.Select(5)

		Expect(ok).To(BeFalse())
	})

	ginkgo.It("should forward visits", func() {
		vf.EXPECT().Visit(2, 1)

		d.Visit(2, 1)
	})

	ginkgo.It("should reset", func() {
		d.Write(1, 1, Entry{Valid: true, Tag: 9})
		d.Reset()

		count := 0
		d.ForEach(func(int, int, Entry) { count++ })
		Expect(count).To(Equal(0))
	})
})

var _ = ginkgo.Describe("Entry", func() {
	ginkgo.It("should register sharers in vector mode", func() {
		e := Entry{Valid: true}

		e.AddCopy(1, false, 4)
		e.AddCopy(2, true, 4)
		e.AddCopy(1, false, 4)

		Expect(e.IsCnt).To(BeFalse())
		Expect(e.Count).To(Equal(2))
		Expect(e.DCopies.Has(1)).To(BeTrue())
		Expect(e.ICopies.Has(2)).To(BeTrue())
		Expect(e.Consistent()).To(BeTrue())
	})

	ginkgo.It("should switch to counter mode above the limit", func() {
		e := Entry{Valid: true}

		e.AddCopy(0, false, 2)
		e.AddCopy(1, false, 2)
		Expect(e.IsCnt).To(BeFalse())

		e.AddCopy(2, false, 2)
		Expect(e.IsCnt).To(BeTrue())
		Expect(e.Count).To(Equal(3))
		Expect(e.DCopies.Empty()).To(BeTrue())
	})

	ginkgo.It("should count removals", func() {
		e := Entry{Valid: true}
		e.AddCopy(3, false, 4)

		Expect(e.RemoveCopy(3, true)).To(BeFalse())
		Expect(e.RemoveCopy(3, false)).To(BeTrue())
		Expect(e.RemoveCopy(3, false)).To(BeFalse())
		Expect(e.Count).To(Equal(0))
		Expect(e.Consistent()).To(BeTrue())
	})

	ginkgo.It("should leave counter mode at zero", func() {
		e := Entry{Valid: true, IsCnt: true, Count: 2}

		Expect(e.RemoveCopy(5, false)).To(BeTrue())
		Expect(e.IsCnt).To(BeTrue())
		Expect(e.RemoveCopy(6, true)).To(BeTrue())
		Expect(e.IsCnt).To(BeFalse())
		Expect(e.RemoveCopy(6, true)).To(BeFalse())
	})
})
