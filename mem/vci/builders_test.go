package vci

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/soclib/sim"
)

var _ = Describe("Builders", func() {
	It("should enable every byte when no mask is given", func() {
		req := ReqBuilder{}.
			WithSrc("Agent.Mem").
			WithDst("MC.Top").
			WithSrcID(2).
			WithAddress(0x100).
			BuildWriteReq([]uint32{1, 2}, nil)

		Expect(req.BE).To(Equal([]uint8{0xf, 0xf}))
		Expect(req.SrcID).To(Equal(2))
		Expect(req.Src).To(Equal(sim.RemotePort("Agent.Mem")))
	})

	It("should route responses back to the requester", func() {
		req := ReqBuilder{}.
			WithSrc("Agent.Mem").
			WithDst("MC.Top").
			WithSrcID(1).
			WithTrdID(3).
			BuildLLReq()

		rsp := RspBuilder{}.
			WithSrc(req.Dst).
			WithDst(req.Src).
			WithIdent(req.GetIdent()).
			WithRspTo(req.ID).
			BuildLLRsp(7)

		var tr TargetRsp = rsp
		Expect(tr.GetRspTo()).To(Equal(req.ID))
		Expect(tr.GetIdent()).To(Equal(Ident{SrcID: 1, TrdID: 3}))
		Expect(tr.IsError()).To(BeFalse())
		Expect(rsp.Dst).To(Equal(sim.RemotePort("Agent.Mem")))
	})

	It("should acknowledge a command to its sender", func() {
		cmd := CoherenceReqBuilder{}.
			WithSrc("MC.Coherence").
			WithDst("Agent.Coherence").
			WithUPTRef(UPTRef{UPTIndex: 2, UPTTag: 9}).
			WithNLine(4).
			BuildInval(false, true)

		ack := BuildAck(cmd, cmd.UPTRef, 1, cmd.Instruction)

		Expect(ack.Src).To(Equal(sim.RemotePort("Agent.Coherence")))
		Expect(ack.Dst).To(Equal(sim.RemotePort("MC.Coherence")))
		Expect(ack.UPTTag).To(Equal(uint64(9)))
		Expect(ack.RespondTo).To(Equal(cmd.ID))
		Expect(ack.Instruction).To(BeTrue())
	})

	It("should copy data when cloning", func() {
		req := ReqBuilder{}.WithSrc("A").WithDst("B").
			BuildWriteReq([]uint32{1}, []uint8{1})

		clone := req.Clone().(*WriteReq)
		clone.Data[0] = 5

		Expect(req.Data[0]).To(Equal(uint32(1)))
		Expect(clone.ID).NotTo(Equal(req.ID))
	})
})
