package xram

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

var _ = Describe("XRAM", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		port     *MockPort
		memory   *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		port = NewMockPort(mockCtrl)
		port.EXPECT().AsRemote().Return(sim.RemotePort("XRAM.TopPort")).
			AnyTimes()

		memory = MakeBuilder().
			WithEngine(engine).
			WithLatency(10).
			WithBusErrorRange(0x1000, 0x2000).
			Build("XRAM")
		memory.topPort = port
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	readReq := func(addr uint64) *vci.XRAMReadReq {
		return vci.XRAMReqBuilder{}.
			WithSrc("MemCache.Bottom").
			WithDst("XRAM.TopPort").
			WithTrdID(2).
			WithAddress(addr).
			BuildRead(4)
	}

	It("should do nothing if there is no request", func() {
		port.EXPECT().RetrieveIncoming().Return(nil)

		Expect(memory.Tick()).To(BeFalse())
	})

	It("should schedule the response after the latency", func() {
		req := readReq(0x40)
		port.EXPECT().RetrieveIncoming().Return(req)
		engine.EXPECT().CurrentTime().Return(sim.VTimeInSec(10))
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e sim.Event) {
				Expect(e).To(BeAssignableToTypeOf(&respondEvent{}))
				Expect(e.Time()).To(BeNumerically(">", 10))
			})

		Expect(memory.Tick()).To(BeTrue())
	})

	It("should panic on unknown requests", func() {
		port.EXPECT().RetrieveIncoming().Return(&vci.ReadReq{})

		Expect(func() { memory.Tick() }).To(Panic())
	})

	It("should read a line", func() {
		memory.Storage.WriteBurst(0x40, []uint32{1, 2, 3, 4})
		req := readReq(0x40)

		engine.EXPECT().CurrentTime().Return(sim.VTimeInSec(20)).AnyTimes()
		engine.EXPECT().Schedule(gomock.Any())
		port.EXPECT().Send(gomock.Any()).
			DoAndReturn(func(msg sim.Msg) *sim.SendError {
				rsp := msg.(*vci.XRAMReadRsp)
				Expect(rsp.RespondTo).To(Equal(req.ID))
				Expect(rsp.TrdID).To(Equal(2))
				Expect(rsp.Data).To(Equal([]uint32{1, 2, 3, 4}))
				Expect(rsp.Error).To(BeFalse())
				Expect(rsp.Dst).To(Equal(sim.RemotePort("MemCache.Bottom")))

				return nil
			})

		err := memory.Handle(newRespondEvent(20, memory, req))

		Expect(err).NotTo(HaveOccurred())
		Expect(memory.NumReads()).To(Equal(uint64(1)))
	})

	It("should report bus errors", func() {
		req := readReq(0x0ff0)

		engine.EXPECT().CurrentTime().Return(sim.VTimeInSec(20)).AnyTimes()
		engine.EXPECT().Schedule(gomock.Any())
		port.EXPECT().Send(gomock.Any()).
			DoAndReturn(func(msg sim.Msg) *sim.SendError {
				rsp := msg.(*vci.XRAMReadRsp)
				Expect(rsp.Error).To(BeTrue())
				Expect(rsp.Data).To(BeNil())

				return nil
			})

		Expect(memory.Handle(newRespondEvent(20, memory, req))).To(Succeed())
	})

	It("should write a line after the response is sent", func() {
		req := vci.XRAMReqBuilder{}.
			WithSrc("MemCache.Bottom").
			WithDst("XRAM.TopPort").
			WithTrdID(1).
			WithAddress(0x80).
			BuildWrite([]uint32{9, 8, 7, 6})

		engine.EXPECT().CurrentTime().Return(sim.VTimeInSec(20)).AnyTimes()
		engine.EXPECT().Schedule(gomock.Any())
		port.EXPECT().Send(gomock.Any()).
			DoAndReturn(func(msg sim.Msg) *sim.SendError {
				rsp := msg.(*vci.XRAMWriteRsp)
				Expect(rsp.TrdID).To(Equal(1))
				Expect(memory.Storage.Read(0x84)).To(Equal(uint32(0)))

				return nil
			})

		Expect(memory.Handle(newRespondEvent(20, memory, req))).To(Succeed())
		Expect(memory.Storage.ReadBurst(0x80, 4)).
			To(Equal([]uint32{9, 8, 7, 6}))
		Expect(memory.NumWrites()).To(Equal(uint64(1)))
	})

	It("should retry when the port is busy", func() {
		req := readReq(0x40)

		port.EXPECT().Send(gomock.Any()).Return(sim.NewSendError())
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e sim.Event) {
				Expect(e).To(BeAssignableToTypeOf(&respondEvent{}))
				Expect(e.Time()).To(BeNumerically(">", 20))
			})

		Expect(memory.Handle(newRespondEvent(20, memory, req))).To(Succeed())
		Expect(memory.NumReads()).To(BeZero())
	})
})
