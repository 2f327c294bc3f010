package memcache

import (
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

type tgtCmdState int

const (
	tgtCmdIdle tgtCmdState = iota
	tgtCmdRead
	tgtCmdWrite
	tgtCmdAtomic
)

var tgtCmdStateNames = []string{"IDLE", "READ", "WRITE", "ATOMIC"}

// fifoItem is a request waiting in a request FIFO. A request that breaks the
// protocol under the RespondWithError policy is answered with an error
// without touching the tables.
type fifoItem struct {
	req vci.TargetReq
	err bool
}

// tgtCmdFSM dispatches the processor requests to the request FIFOs.
type tgtCmdFSM struct {
	c     *Comp
	state tgtCmdState
}

func (f *tgtCmdFSM) stateName() string {
	return stateString(tgtCmdStateNames, int(f.state))
}

func (f *tgtCmdFSM) wants(resource) bool     { return false }
func (f *tgtCmdFSM) acquiring(resource) bool { return false }

func (f *tgtCmdFSM) Tick() bool {
	switch f.state {
	case tgtCmdIdle:
		return f.idle()
	case tgtCmdRead:
		return f.dispatch(f.c.readFIFO)
	case tgtCmdWrite:
		return f.dispatch(f.c.writeFIFO)
	case tgtCmdAtomic:
		return f.dispatch(f.c.llscFIFO)
	}

	return false
}

func (f *tgtCmdFSM) idle() bool {
	msg := f.c.topPort.PeekIncoming()
	if msg == nil {
		return false
	}

	switch msg.(type) {
	case *vci.ReadReq:
		f.state = tgtCmdRead
	case *vci.WriteReq:
		f.state = tgtCmdWrite
	case *vci.LLReq, *vci.SCReq:
		f.state = tgtCmdAtomic
	default:
		f.c.protocolError(ErrUnknownCommand, msg.Meta().Src,
			"unexpected %T on the target port", msg)
		f.c.topPort.RetrieveIncoming()
	}

	return true
}

func (f *tgtCmdFSM) dispatch(fifo sim.Buffer) bool {
	if !fifo.CanPush() {
		return false
	}

	req := f.c.topPort.RetrieveIncoming().(vci.TargetReq)
	f.c.traceReqStart(req)

	item := fifoItem{req: req}
	if kind, bad := f.c.validate(req); bad {
		f.c.protocolError(kind, req.Meta().Src, "request %s at 0x%x",
			req.Meta().ID, req.GetAddress())
		item.err = true
	}

	fifo.Push(item)
	f.state = tgtCmdIdle

	return true
}

// validate checks the request against the protocol rules that the tables
// rely on.
func (c *Comp) validate(req vci.TargetReq) (ProtocolErrorKind, bool) {
	if id := req.GetIdent().SrcID; id < 0 || id >= c.numRequesters {
		return ErrBadSrcID, true
	}

	addr := req.GetAddress()
	if addr%4 != 0 {
		return ErrMisaligned, true
	}

	n := c.dir.WordsPerLine()
	wordIndex := c.dir.WordIndex(addr)

	switch req := req.(type) {
	case *vci.ReadReq:
		switch {
		case req.Length == 1:
		case req.Length == n && wordIndex == 0:
		default:
			return ErrBadLength, true
		}
	case *vci.WriteReq:
		if len(req.Data) == 0 || len(req.BE) != len(req.Data) {
			return ErrBadLength, true
		}

		if wordIndex+len(req.Data) > n {
			return ErrBurstCrossesLine, true
		}
	}

	return 0, false
}

// errorRsp answers a request that broke the protocol.
func (c *Comp) errorRsp(req vci.TargetReq) sim.Msg {
	b := c.rspBuilder(req.Meta().Src, req.GetIdent(), req.Meta().ID, true)

	switch req.(type) {
	case *vci.ReadReq:
		return b.BuildReadRsp(nil)
	case *vci.LLReq:
		return b.BuildLLRsp(0)
	case *vci.SCReq:
		return b.BuildSCRsp(false)
	}

	return b.BuildWriteRsp()
}
