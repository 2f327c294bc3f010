package memcache

import (
	"github.com/sarchlab/soclib/mem/memcache/internal/trt"
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

type writeState int

const (
	writeIdle writeState = iota
	writeNext
	writeDirLock
	writeDirHit
	writeUPTLock
	writeUpdate
	writeTRTWriteLock
	writeInvalLock
	writeInval
	writeXRAMSend
	writeTRTLock
	writeTRTData
	writeTRTSet
	writeXRAMReq
	writeWait
	writeRsp
)

var writeStateNames = []string{
	"IDLE", "NEXT", "DIR_LOCK", "DIR_HIT", "UPT_LOCK", "UPDATE",
	"TRT_WRITE_LOCK", "INVAL_LOCK", "INVAL", "XRAM_SEND", "TRT_LOCK",
	"TRT_DATA", "TRT_SET", "XRAM_REQ", "WAIT", "RSP",
}

// writeFSM serves the write requests.
type writeFSM struct {
	c     *Comp
	state writeState

	req *vci.WriteReq
	w   *pendingWrite
	rsp sim.Msg
}

func (f *writeFSM) stateName() string {
	return stateString(writeStateNames, int(f.state))
}

func (f *writeFSM) wants(r resource) bool {
	switch f.state {
	case writeDirLock, writeDirHit:
		return r == resDir
	case writeUPTLock:
		return r == resDir || r == resUPT
	case writeTRTWriteLock, writeTRTLock, writeTRTData, writeTRTSet:
		return r == resDir || r == resTRT
	case writeInvalLock:
		return true
	}

	return false
}

func (f *writeFSM) acquiring(r resource) bool {
	switch f.state {
	case writeDirLock:
		return r == resDir
	case writeUPTLock, writeInvalLock:
		return r == resUPT
	case writeTRTWriteLock, writeTRTLock:
		return r == resTRT
	}

	return false
}

func (f *writeFSM) Tick() bool {
	switch f.state {
	case writeIdle:
		return f.idle()
	case writeNext:
		f.w = f.c.newPendingWrite(f.req, f.req.Data, f.req.BE, upt.RspWrite)
		f.state = writeDirLock

		return true
	case writeDirLock:
		return f.dirLock()
	case writeDirHit:
		f.c.commitHitWrite(f.w, false)
		f.c.traceStep(f.w.reqID, "hit")
		f.respondWith(f.c.writeRsp(f.w))

		return true
	case writeUPTLock:
		return f.uptLock()
	case writeUpdate:
		return f.update()
	case writeTRTWriteLock:
		return f.trtWriteLock()
	case writeInvalLock:
		return f.invalLock()
	case writeInval:
		return f.inval()
	case writeXRAMSend:
		return f.xramSend()
	case writeTRTLock:
		return f.trtLock()
	case writeTRTData:
		return f.trtData()
	case writeTRTSet:
		return f.trtSet()
	case writeXRAMReq:
		return f.xramReq()
	case writeWait:
		f.state = writeDirLock
		return true
	case writeRsp:
		return f.respond()
	}

	return false
}

func (f *writeFSM) idle() bool {
	if f.c.writeFIFO.Size() == 0 {
		return false
	}

	item := f.c.writeFIFO.Pop().(fifoItem)
	f.req = item.req.(*vci.WriteReq)

	if item.err {
		f.respondWith(f.c.errorRsp(f.req))
		return true
	}

	f.state = writeNext

	return true
}

func (f *writeFSM) dirLock() bool {
	if !f.c.granted(resDir, fsmWrite) {
		return false
	}

	if !f.c.lookupForWrite(f.w) {
		f.state = writeTRTLock
		return true
	}

	switch decideHitWrite(f.w.entry, f.w.ident.SrcID) {
	case hitLocked:
		f.state = writeWait
	case hitInval:
		f.state = writeTRTWriteLock
	case hitUpdate:
		f.state = writeUPTLock
	case hitLocal:
		f.state = writeDirHit
	}

	return true
}

func (f *writeFSM) uptLock() bool {
	if !f.c.granted(resUPT, fsmWrite) {
		return false
	}

	if !f.c.canAllocUPT(f.w.nline) {
		f.state = writeWait
		return true
	}

	f.c.commitHitWrite(f.w, true)
	f.c.allocUpdate(f.w)
	f.c.traceStep(f.w.reqID, "update")
	f.state = writeUpdate

	return true
}

func (f *writeFSM) update() bool {
	if f.c.initSlots[fsmWrite] != nil {
		return false
	}

	f.c.initSlots[fsmWrite] = f.c.updateCmd(f.w)
	f.state = writeIdle

	return true
}

func (f *writeFSM) trtWriteLock() bool {
	if !f.c.granted(resTRT, fsmWrite) {
		return false
	}

	full, index := f.c.trt.Full()
	if full {
		f.state = writeWait
		return true
	}

	f.w.trtIndex = index
	f.state = writeInvalLock

	return true
}

func (f *writeFSM) invalLock() bool {
	if !f.c.granted(resUPT, fsmWrite) {
		return false
	}

	if !f.c.canAllocUPT(f.w.nline) {
		f.state = writeWait
		return true
	}

	f.c.invalAndWriteBack(f.w)
	f.c.traceStep(f.w.reqID, "inval")
	f.state = writeInval

	return true
}

func (f *writeFSM) inval() bool {
	if f.w.uptIndex < 0 {
		f.state = writeXRAMSend
		return true
	}

	if f.c.initSlots[fsmWrite] != nil {
		return false
	}

	f.c.initSlots[fsmWrite] = f.c.invalCmd(f.w)
	f.state = writeXRAMSend

	return true
}

func (f *writeFSM) xramSend() bool {
	if f.c.xramSlots[fsmWrite] != nil {
		return false
	}

	f.c.xramSlots[fsmWrite] = f.c.putCmd(f.w)

	if f.w.uptIndex < 0 {
		f.respondWith(f.c.writeRsp(f.w))
		return true
	}

	f.state = writeIdle

	return true
}

func (f *writeFSM) trtLock() bool {
	if !f.c.granted(resTRT, fsmWrite) {
		return false
	}

	if hit, index := f.c.trt.HitRead(f.w.nline); hit {
		f.w.trtIndex = index
		f.state = writeTRTData

		return true
	}

	if f.c.trt.HitWrite(f.w.nline) {
		f.state = writeWait
		return true
	}

	full, index := f.c.trt.Full()
	if full {
		f.state = writeWait
		return true
	}

	f.w.trtIndex = index
	f.state = writeTRTSet

	return true
}

func (f *writeFSM) trtData() bool {
	f.c.trt.WriteDataMask(f.w.trtIndex, f.w.be, f.w.data)
	f.c.atomic.Reset(f.w.nline)
	f.c.traceStep(f.w.reqID, "merge")
	f.respondWith(f.c.writeRsp(f.w))

	return true
}

func (f *writeFSM) trtSet() bool {
	w := f.w
	f.c.trt.Set(w.trtIndex, trt.SetArgs{
		Read:      true,
		NLine:     w.nline,
		SrcID:     w.ident.SrcID,
		TrdID:     w.ident.TrdID,
		PktID:     w.ident.PktID,
		WordIndex: w.wordIndex,
		Length:    w.numWords,
		BE:        w.be,
		Data:      w.data,
		Src:       w.src,
		ReqID:     w.reqID,
	})
	f.c.atomic.Reset(w.nline)
	f.c.traceStep(w.reqID, "miss")
	f.state = writeXRAMReq

	return true
}

func (f *writeFSM) xramReq() bool {
	if f.c.xramSlots[fsmWrite] != nil {
		return false
	}

	f.c.xramSlots[fsmWrite] = &xramCmd{
		trtIndex: f.w.trtIndex,
		nline:    f.w.nline,
		parentID: f.w.reqID,
	}
	f.respondWith(f.c.writeRsp(f.w))

	return true
}

func (f *writeFSM) respondWith(rsp sim.Msg) {
	f.rsp = rsp
	f.state = writeRsp
}

func (f *writeFSM) respond() bool {
	if f.c.rspSlots[fsmWrite] != nil {
		return false
	}

	f.c.rspSlots[fsmWrite] = f.rsp
	f.rsp = nil
	f.state = writeIdle

	return true
}
