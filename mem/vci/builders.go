package vci

import "github.com/sarchlab/soclib/sim"

func newMeta(src, dst sim.RemotePort, bytes int) sim.MsgMeta {
	return sim.MsgMeta{
		ID:           sim.GetIDGenerator().Generate(),
		Src:          src,
		Dst:          dst,
		TrafficBytes: bytes,
	}
}

// ReqBuilder holds the fields shared by all processor-side requests.
type ReqBuilder struct {
	src, dst sim.RemotePort
	ident    Ident
	address  uint64
}

// WithSrc sets the source of the request to build.
func (b ReqBuilder) WithSrc(src sim.RemotePort) ReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b ReqBuilder) WithDst(dst sim.RemotePort) ReqBuilder {
	b.dst = dst
	return b
}

// WithSrcID sets the requester ID of the request to build.
func (b ReqBuilder) WithSrcID(srcID int) ReqBuilder {
	b.ident.SrcID = srcID
	return b
}

// WithTrdID sets the thread ID of the request to build.
func (b ReqBuilder) WithTrdID(trdID int) ReqBuilder {
	b.ident.TrdID = trdID
	return b
}

// WithPktID sets the packet ID of the request to build.
func (b ReqBuilder) WithPktID(pktID int) ReqBuilder {
	b.ident.PktID = pktID
	return b
}

// WithAddress sets the address of the request to build.
func (b ReqBuilder) WithAddress(address uint64) ReqBuilder {
	b.address = address
	return b
}

// BuildReadReq creates a ReadReq of the given number of words.
func (b ReqBuilder) BuildReadReq(length int, instruction bool) *ReadReq {
	return &ReadReq{
		MsgMeta:     newMeta(b.src, b.dst, reqByteOverhead),
		Ident:       b.ident,
		Address:     b.address,
		Length:      length,
		Instruction: instruction,
	}
}

// BuildWriteReq creates a WriteReq. A nil be enables every byte.
func (b ReqBuilder) BuildWriteReq(data []uint32, be []uint8) *WriteReq {
	if be == nil {
		be = make([]uint8, len(data))
		for i := range be {
			be[i] = 0xf
		}
	}

	return &WriteReq{
		MsgMeta: newMeta(b.src, b.dst, reqByteOverhead+4*len(data)),
		Ident:   b.ident,
		Address: b.address,
		Data:    data,
		BE:      be,
	}
}

// BuildLLReq creates an LLReq.
func (b ReqBuilder) BuildLLReq() *LLReq {
	return &LLReq{
		MsgMeta: newMeta(b.src, b.dst, reqByteOverhead),
		Ident:   b.ident,
		Address: b.address,
	}
}

// BuildSCReq creates an SCReq.
func (b ReqBuilder) BuildSCReq(data uint32) *SCReq {
	return &SCReq{
		MsgMeta: newMeta(b.src, b.dst, reqByteOverhead+4),
		Ident:   b.ident,
		Address: b.address,
		Data:    data,
	}
}

// BuildCleanupReq creates a CleanupReq for the line.
func (b ReqBuilder) BuildCleanupReq(
	nline uint64,
	instruction bool,
) *CleanupReq {
	return &CleanupReq{
		MsgMeta:     newMeta(b.src, b.dst, reqByteOverhead),
		Ident:       b.ident,
		NLine:       nline,
		Instruction: instruction,
	}
}

// RspBuilder can build the responses of the processor-side requests.
type RspBuilder struct {
	src, dst sim.RemotePort
	ident    Ident
	rspTo    string
	err      bool
}

// WithSrc sets the source of the response to build.
func (b RspBuilder) WithSrc(src sim.RemotePort) RspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the response to build.
func (b RspBuilder) WithDst(dst sim.RemotePort) RspBuilder {
	b.dst = dst
	return b
}

// WithIdent copies the requester identifiers into the response to build.
func (b RspBuilder) WithIdent(ident Ident) RspBuilder {
	b.ident = ident
	return b
}

// WithRspTo sets the ID of the request that the response answers.
func (b RspBuilder) WithRspTo(id string) RspBuilder {
	b.rspTo = id
	return b
}

// WithError marks the response as failed.
func (b RspBuilder) WithError(err bool) RspBuilder {
	b.err = err
	return b
}

func (b RspBuilder) base(bytes int) RspBase {
	return RspBase{
		MsgMeta:   newMeta(b.src, b.dst, rspByteOverhead+bytes),
		Ident:     b.ident,
		RespondTo: b.rspTo,
		Error:     b.err,
	}
}

// BuildReadRsp creates a ReadRsp.
func (b RspBuilder) BuildReadRsp(data []uint32) *ReadRsp {
	return &ReadRsp{RspBase: b.base(4 * len(data)), Data: data}
}

// BuildWriteRsp creates a WriteRsp.
func (b RspBuilder) BuildWriteRsp() *WriteRsp {
	return &WriteRsp{RspBase: b.base(0)}
}

// BuildLLRsp creates an LLRsp.
func (b RspBuilder) BuildLLRsp(data uint32) *LLRsp {
	return &LLRsp{RspBase: b.base(4), Data: data}
}

// BuildSCRsp creates an SCRsp.
func (b RspBuilder) BuildSCRsp(success bool) *SCRsp {
	return &SCRsp{RspBase: b.base(0), Success: success}
}

// BuildCleanupRsp creates a CleanupRsp.
func (b RspBuilder) BuildCleanupRsp(nline uint64) *CleanupRsp {
	return &CleanupRsp{RspBase: b.base(0), NLine: nline}
}

// XRAMReqBuilder can build requests to the external memory.
type XRAMReqBuilder struct {
	src, dst sim.RemotePort
	trdID    int
	address  uint64
}

// WithSrc sets the source of the request to build.
func (b XRAMReqBuilder) WithSrc(src sim.RemotePort) XRAMReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b XRAMReqBuilder) WithDst(dst sim.RemotePort) XRAMReqBuilder {
	b.dst = dst
	return b
}

// WithTrdID sets the transaction table index carried by the request.
func (b XRAMReqBuilder) WithTrdID(trdID int) XRAMReqBuilder {
	b.trdID = trdID
	return b
}

// WithAddress sets the line address of the request to build.
func (b XRAMReqBuilder) WithAddress(address uint64) XRAMReqBuilder {
	b.address = address
	return b
}

// BuildRead creates an XRAMReadReq.
func (b XRAMReqBuilder) BuildRead(numWords int) *XRAMReadReq {
	return &XRAMReadReq{
		MsgMeta:  newMeta(b.src, b.dst, reqByteOverhead),
		TrdID:    b.trdID,
		Address:  b.address,
		NumWords: numWords,
	}
}

// BuildWrite creates an XRAMWriteReq.
func (b XRAMReqBuilder) BuildWrite(data []uint32) *XRAMWriteReq {
	return &XRAMWriteReq{
		MsgMeta: newMeta(b.src, b.dst, reqByteOverhead+4*len(data)),
		TrdID:   b.trdID,
		Address: b.address,
		Data:    append([]uint32(nil), data...),
	}
}

// CoherenceReqBuilder can build invalidate and update commands.
type CoherenceReqBuilder struct {
	src, dst sim.RemotePort
	ref      UPTRef
	nline    uint64
}

// WithSrc sets the source of the command to build.
func (b CoherenceReqBuilder) WithSrc(src sim.RemotePort) CoherenceReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the command to build.
func (b CoherenceReqBuilder) WithDst(dst sim.RemotePort) CoherenceReqBuilder {
	b.dst = dst
	return b
}

// WithUPTRef sets the update table entry that collects the acknowledgement.
func (b CoherenceReqBuilder) WithUPTRef(ref UPTRef) CoherenceReqBuilder {
	b.ref = ref
	return b
}

// WithNLine sets the line number of the command to build.
func (b CoherenceReqBuilder) WithNLine(nline uint64) CoherenceReqBuilder {
	b.nline = nline
	return b
}

// BuildInval creates an InvalReq.
func (b CoherenceReqBuilder) BuildInval(broadcast, instruction bool) *InvalReq {
	return &InvalReq{
		MsgMeta:     newMeta(b.src, b.dst, reqByteOverhead),
		UPTRef:      b.ref,
		NLine:       b.nline,
		Broadcast:   broadcast,
		Instruction: instruction,
	}
}

// BuildUpdate creates an UpdateReq.
func (b CoherenceReqBuilder) BuildUpdate(
	wordIndex int,
	data []uint32,
	be []uint8,
) *UpdateReq {
	return &UpdateReq{
		MsgMeta:   newMeta(b.src, b.dst, reqByteOverhead+4*len(data)),
		UPTRef:    b.ref,
		NLine:     b.nline,
		WordIndex: wordIndex,
		Data:      append([]uint32(nil), data...),
		BE:        append([]uint8(nil), be...),
	}
}

// BuildAck creates the acknowledgement of a coherence command.
func BuildAck(
	cmd sim.Msg,
	ref UPTRef,
	srcID int,
	instruction bool,
) *CoherenceAck {
	return &CoherenceAck{
		MsgMeta:     newMeta(cmd.Meta().Dst, cmd.Meta().Src, rspByteOverhead),
		UPTRef:      ref,
		RespondTo:   cmd.Meta().ID,
		SrcID:       srcID,
		Instruction: instruction,
	}
}
