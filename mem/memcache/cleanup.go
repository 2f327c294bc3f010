package memcache

import (
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

type cleanupState int

const (
	cleanupIdle cleanupState = iota
	cleanupDirLock
	cleanupDirWrite
	cleanupUPTLock
	cleanupUPTDecrement
	cleanupWriteRsp
	cleanupRsp
)

var cleanupStateNames = []string{
	"IDLE", "DIR_LOCK", "DIR_WRITE", "UPT_LOCK", "UPT_DECREMENT", "WRITE_RSP",
	"RSP",
}

// cleanupFSM removes a sharer that dropped its copy. If a coherence
// transaction still waits for that sharer, the cleanup counts as its
// acknowledgement.
type cleanupFSM struct {
	c     *Comp
	state cleanupState

	req      *vci.CleanupReq
	key      int
	set, way int
	rspErr   bool
	complete sim.Msg
}

func (f *cleanupFSM) stateName() string {
	return stateString(cleanupStateNames, int(f.state))
}

func (f *cleanupFSM) wants(r resource) bool {
	switch f.state {
	case cleanupDirLock, cleanupDirWrite:
		return r == resDir
	case cleanupUPTLock, cleanupUPTDecrement:
		return r == resDir || r == resUPT
	}

	return false
}

func (f *cleanupFSM) acquiring(r resource) bool {
	switch f.state {
	case cleanupDirLock:
		return r == resDir
	case cleanupUPTLock:
		return r == resUPT
	}

	return false
}

func (f *cleanupFSM) Tick() bool {
	switch f.state {
	case cleanupIdle:
		return f.idle()
	case cleanupDirLock:
		return f.dirLock()
	case cleanupDirWrite:
		e := f.c.dir.Get(f.set, f.way)
		e.RemoveCopy(f.req.SrcID, f.req.Instruction)
		f.c.dir.Write(f.set, f.way, e)
		f.state = cleanupUPTLock

		return true
	case cleanupUPTLock:
		return f.uptLock()
	case cleanupUPTDecrement:
		return f.uptDecrement()
	case cleanupWriteRsp:
		if f.c.rspSlots[fsmCleanup] != nil {
			return false
		}

		f.c.rspSlots[fsmCleanup] = f.complete
		f.complete = nil
		f.state = cleanupRsp

		return true
	case cleanupRsp:
		return f.respond()
	}

	return false
}

func (f *cleanupFSM) idle() bool {
	msg := f.c.cleanupPort.PeekIncoming()
	if msg == nil {
		return false
	}

	f.c.cleanupPort.RetrieveIncoming()

	req, ok := msg.(*vci.CleanupReq)
	if !ok {
		f.c.protocolError(ErrUnknownCommand, msg.Meta().Src,
			"unexpected %T on the cleanup port", msg)
		return true
	}

	f.req = req
	f.c.traceReqStart(req)

	if req.SrcID < 0 || req.SrcID >= f.c.numRequesters {
		f.c.protocolError(ErrBadSrcID, req.Src,
			"cleanup %s from requester %d", req.ID, req.SrcID)
		f.rspErr = true
		f.state = cleanupRsp

		return true
	}

	f.rspErr = false
	f.key = upt.AckKey(req.SrcID, req.Instruction)
	f.state = cleanupDirLock

	return true
}

func (f *cleanupFSM) dirLock() bool {
	if !f.c.granted(resDir, fsmCleanup) {
		return false
	}

	_, way, hit := f.c.dir.ReadLine(f.req.NLine)
	if hit {
		f.set = f.c.dir.SetOf(f.req.NLine)
		f.way = way
		f.state = cleanupDirWrite
	} else {
		f.state = cleanupUPTLock
	}

	return true
}

func (f *cleanupFSM) uptLock() bool {
	if !f.c.granted(resUPT, fsmCleanup) {
		return false
	}

	if _, found := f.c.upt.SearchPending(f.req.NLine, f.key); found {
		f.state = cleanupUPTDecrement
	} else {
		f.state = cleanupRsp
	}

	return true
}

func (f *cleanupFSM) uptDecrement() bool {
	c := f.c

	index, _ := c.upt.SearchPending(f.req.NLine, f.key)
	remaining, _ := c.upt.Decrement(index, f.key)
	f.state = cleanupRsp

	if remaining > 0 {
		return true
	}

	e := c.upt.Read(index)
	c.upt.Clear(index)

	if e.IsUpdate {
		c.unlockLine(e.NLine)
	}

	if e.NeedRsp {
		f.complete = c.completionRsp(e)
		f.state = cleanupWriteRsp
	}

	return true
}

func (f *cleanupFSM) respond() bool {
	if !f.c.cleanupPort.CanSend() {
		return false
	}

	rsp := vci.RspBuilder{}.
		WithSrc(f.c.cleanupPort.AsRemote()).
		WithDst(f.req.Src).
		WithIdent(f.req.Ident).
		WithRspTo(f.req.ID).
		WithError(f.rspErr).
		BuildCleanupRsp(f.req.NLine)

	if err := f.c.cleanupPort.Send(rsp); err != nil {
		return false
	}

	f.c.traceReqEnd(f.req.ID)
	f.state = cleanupIdle

	return true
}

// unlockLine releases a line locked by a multicast update. The caller holds
// the directory.
func (c *Comp) unlockLine(nline uint64) {
	e, way, hit := c.dir.ReadLine(nline)
	if !hit {
		return
	}

	e.Lock = false
	c.dir.Write(c.dir.SetOf(nline), way, e)
}
