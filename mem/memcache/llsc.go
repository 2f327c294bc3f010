package memcache

import (
	"github.com/sarchlab/soclib/mem/memcache/internal/trt"
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

type llscState int

const (
	llscIdle llscState = iota
	llscDirLock
	llscLLDirHit
	llscLLTRTLock
	llscLLTRTSet
	llscLLXRAMReq
	llscSCDirHit
	llscSCUPTLock
	llscSCUpdate
	llscSCTRTWriteLock
	llscSCInvalLock
	llscSCInval
	llscSCXRAMSend
	llscSCRspFail
	llscWait
	llscRsp
)

var llscStateNames = []string{
	"IDLE", "DIR_LOCK", "LL_DIR_HIT", "LL_TRT_LOCK", "LL_TRT_SET",
	"LL_XRAM_REQ", "SC_DIR_HIT", "SC_UPT_LOCK", "SC_UPDATE",
	"SC_TRT_WRITE_LOCK", "SC_INVAL_LOCK", "SC_INVAL", "SC_XRAM_SEND",
	"SC_RSP_FAIL", "WAIT", "RSP",
}

// llscFSM serves the load-linked and store-conditional requests. A
// load-linked places a reservation on the word. A store-conditional succeeds
// only if the reservation is still held, and then behaves like a one-word
// write.
type llscFSM struct {
	c     *Comp
	state llscState

	req      vci.TargetReq
	nline    uint64
	set, way int
	trtIndex int
	w        *pendingWrite
	rsp      sim.Msg
}

func (f *llscFSM) stateName() string {
	return stateString(llscStateNames, int(f.state))
}

func (f *llscFSM) wants(r resource) bool {
	switch f.state {
	case llscDirLock, llscLLDirHit, llscSCDirHit:
		return r == resDir
	case llscLLTRTLock, llscLLTRTSet, llscSCTRTWriteLock:
		return r == resDir || r == resTRT
	case llscSCUPTLock:
		return r == resDir || r == resUPT
	case llscSCInvalLock:
		return true
	}

	return false
}

func (f *llscFSM) acquiring(r resource) bool {
	switch f.state {
	case llscDirLock:
		return r == resDir
	case llscLLTRTLock, llscSCTRTWriteLock:
		return r == resTRT
	case llscSCUPTLock, llscSCInvalLock:
		return r == resUPT
	}

	return false
}

func (f *llscFSM) Tick() bool {
	switch f.state {
	case llscIdle:
		return f.idle()
	case llscDirLock:
		return f.dirLock()
	case llscLLDirHit:
		return f.llDirHit()
	case llscLLTRTLock:
		return f.llTRTLock()
	case llscLLTRTSet:
		return f.llTRTSet()
	case llscLLXRAMReq:
		return f.llXRAMReq()
	case llscSCDirHit:
		f.c.commitHitWrite(f.w, false)
		f.respondWith(f.c.writeRsp(f.w))

		return true
	case llscSCUPTLock:
		return f.scUPTLock()
	case llscSCUpdate:
		return f.scUpdate()
	case llscSCTRTWriteLock:
		return f.scTRTWriteLock()
	case llscSCInvalLock:
		return f.scInvalLock()
	case llscSCInval:
		return f.scInval()
	case llscSCXRAMSend:
		return f.scXRAMSend()
	case llscSCRspFail:
		f.c.atomic.Clear(f.req.GetIdent().SrcID)
		f.c.traceStep(f.req.Meta().ID, "sc_fail")
		f.respondWith(f.rspBuilder().BuildSCRsp(false))

		return true
	case llscWait:
		f.state = llscDirLock
		return true
	case llscRsp:
		return f.respond()
	}

	return false
}

func (f *llscFSM) rspBuilder() vci.RspBuilder {
	return f.c.rspBuilder(
		f.req.Meta().Src, f.req.GetIdent(), f.req.Meta().ID, false)
}

func (f *llscFSM) idle() bool {
	if f.c.llscFIFO.Size() == 0 {
		return false
	}

	item := f.c.llscFIFO.Pop().(fifoItem)
	f.req = item.req

	if item.err {
		f.respondWith(f.c.errorRsp(f.req))
		return true
	}

	f.nline = f.c.dir.NLine(f.req.GetAddress())
	f.w = nil

	if sc, ok := f.req.(*vci.SCReq); ok {
		f.w = f.c.newPendingWrite(
			sc, []uint32{sc.Data}, []uint8{0xf}, upt.RspSC)
	}

	f.state = llscDirLock

	return true
}

func (f *llscFSM) dirLock() bool {
	if !f.c.granted(resDir, fsmLLSC) {
		return false
	}

	if f.w == nil {
		return f.llLookup()
	}

	return f.scLookup()
}

func (f *llscFSM) llLookup() bool {
	_, way, hit := f.c.dir.ReadLine(f.nline)
	if hit {
		f.set = f.c.dir.SetOf(f.nline)
		f.way = way
		f.state = llscLLDirHit
	} else {
		f.state = llscLLTRTLock
	}

	return true
}

func (f *llscFSM) scLookup() bool {
	id := f.w.ident.SrcID
	hit := f.c.lookupForWrite(f.w)

	if !hit || !f.c.atomic.IsAtomic(id, f.w.addr) {
		f.state = llscSCRspFail
		return true
	}

	switch decideHitWrite(f.w.entry, id) {
	case hitLocked:
		f.state = llscWait
	case hitInval:
		f.state = llscSCTRTWriteLock
	case hitUpdate:
		f.state = llscSCUPTLock
	case hitLocal:
		f.state = llscSCDirHit
	}

	return true
}

func (f *llscFSM) llDirHit() bool {
	addr := f.req.GetAddress()
	word := f.c.store.ReadWord(f.set, f.way, f.c.dir.WordIndex(addr))

	f.c.dir.Visit(f.set, f.way)
	f.c.atomic.Set(f.req.GetIdent().SrcID, addr)
	f.c.traceStep(f.req.Meta().ID, "hit")
	f.respondWith(f.rspBuilder().BuildLLRsp(word))

	return true
}

func (f *llscFSM) llTRTLock() bool {
	index, ok := f.c.missTRTLock(fsmLLSC, f.nline)
	if !ok {
		return false
	}

	if index < 0 {
		f.state = llscWait
		return true
	}

	f.trtIndex = index
	f.state = llscLLTRTSet

	return true
}

func (f *llscFSM) llTRTSet() bool {
	ident := f.req.GetIdent()
	f.c.trt.Set(f.trtIndex, trt.SetArgs{
		Read:       true,
		NLine:      f.nline,
		SrcID:      ident.SrcID,
		TrdID:      ident.TrdID,
		PktID:      ident.PktID,
		ProcRead:   true,
		SingleWord: true,
		LL:         true,
		WordIndex:  f.c.dir.WordIndex(f.req.GetAddress()),
		Length:     1,
		Src:        f.req.Meta().Src,
		ReqID:      f.req.Meta().ID,
	})
	f.c.traceStep(f.req.Meta().ID, "miss")
	f.state = llscLLXRAMReq

	return true
}

func (f *llscFSM) llXRAMReq() bool {
	if f.c.xramSlots[fsmLLSC] != nil {
		return false
	}

	f.c.xramSlots[fsmLLSC] = &xramCmd{
		trtIndex: f.trtIndex,
		nline:    f.nline,
		parentID: f.req.Meta().ID,
	}
	f.state = llscIdle

	return true
}

func (f *llscFSM) scUPTLock() bool {
	if !f.c.granted(resUPT, fsmLLSC) {
		return false
	}

	if !f.c.canAllocUPT(f.w.nline) {
		f.state = llscWait
		return true
	}

	f.c.commitHitWrite(f.w, true)
	f.c.allocUpdate(f.w)
	f.c.traceStep(f.w.reqID, "update")
	f.state = llscSCUpdate

	return true
}

func (f *llscFSM) scUpdate() bool {
	if f.c.initSlots[fsmLLSC] != nil {
		return false
	}

	f.c.initSlots[fsmLLSC] = f.c.updateCmd(f.w)
	f.state = llscIdle

	return true
}

func (f *llscFSM) scTRTWriteLock() bool {
	if !f.c.granted(resTRT, fsmLLSC) {
		return false
	}

	full, index := f.c.trt.Full()
	if full {
		f.state = llscWait
		return true
	}

	f.w.trtIndex = index
	f.state = llscSCInvalLock

	return true
}

func (f *llscFSM) scInvalLock() bool {
	if !f.c.granted(resUPT, fsmLLSC) {
		return false
	}

	if !f.c.canAllocUPT(f.w.nline) {
		f.state = llscWait
		return true
	}

	f.c.invalAndWriteBack(f.w)
	f.c.traceStep(f.w.reqID, "inval")
	f.state = llscSCInval

	return true
}

func (f *llscFSM) scInval() bool {
	if f.w.uptIndex < 0 {
		f.state = llscSCXRAMSend
		return true
	}

	if f.c.initSlots[fsmLLSC] != nil {
		return false
	}

	f.c.initSlots[fsmLLSC] = f.c.invalCmd(f.w)
	f.state = llscSCXRAMSend

	return true
}

func (f *llscFSM) scXRAMSend() bool {
	if f.c.xramSlots[fsmLLSC] != nil {
		return false
	}

	f.c.xramSlots[fsmLLSC] = f.c.putCmd(f.w)

	if f.w.uptIndex < 0 {
		f.respondWith(f.c.writeRsp(f.w))
		return true
	}

	f.state = llscIdle

	return true
}

func (f *llscFSM) respondWith(rsp sim.Msg) {
	f.rsp = rsp
	f.state = llscRsp
}

func (f *llscFSM) respond() bool {
	if f.c.rspSlots[fsmLLSC] != nil {
		return false
	}

	f.c.rspSlots[fsmLLSC] = f.rsp
	f.rsp = nil
	f.state = llscIdle

	return true
}
