package memcache

import (
	"log"

	"github.com/sarchlab/soclib/mem/vci"
)

type ixrRspState int

const (
	ixrRspIdle ixrRspState = iota
	ixrRspTRTErase
	ixrRspTRTRead
)

var ixrRspStateNames = []string{"IDLE", "TRT_ERASE", "TRT_READ"}

// ixrRspFSM receives the external memory responses. Line data is copied into
// the transaction table one word per cycle, then XRAM_RSP is notified.
type ixrRspFSM struct {
	c     *Comp
	state ixrRspState

	readRsp  *vci.XRAMReadRsp
	writeRsp *vci.XRAMWriteRsp
	word     int
}

func (f *ixrRspFSM) stateName() string {
	return stateString(ixrRspStateNames, int(f.state))
}

func (f *ixrRspFSM) wants(r resource) bool {
	return f.state != ixrRspIdle && r == resTRT
}

func (f *ixrRspFSM) acquiring(r resource) bool {
	return f.state != ixrRspIdle && r == resTRT && f.word == 0
}

func (f *ixrRspFSM) Tick() bool {
	switch f.state {
	case ixrRspIdle:
		return f.idle()
	case ixrRspTRTErase:
		return f.trtErase()
	case ixrRspTRTRead:
		return f.trtRead()
	}

	return false
}

func (f *ixrRspFSM) idle() bool {
	msg := f.c.bottomPort.PeekIncoming()
	if msg == nil {
		return false
	}

	switch rsp := msg.(type) {
	case *vci.XRAMReadRsp:
		f.mustBePending(rsp.TrdID, true)
		f.readRsp = rsp
		f.word = 0
		f.state = ixrRspTRTRead
	case *vci.XRAMWriteRsp:
		f.mustBePending(rsp.TrdID, false)
		f.writeRsp = rsp
		f.state = ixrRspTRTErase
	default:
		log.Panicf("%s: unexpected %T from the external memory",
			f.c.Name(), msg)
	}

	return true
}

func (f *ixrRspFSM) mustBePending(index int, read bool) {
	if index < 0 || index >= f.c.trt.Depth() {
		log.Panicf("%s: external memory response for transaction %d",
			f.c.Name(), index)
	}

	e := f.c.trt.Read(index)
	if !e.Valid || e.Read != read {
		log.Panicf("%s: external memory response for idle transaction %d",
			f.c.Name(), index)
	}
}

func (f *ixrRspFSM) trtErase() bool {
	if !f.c.granted(resTRT, fsmIXRRsp) {
		return false
	}

	f.c.trt.Erase(f.writeRsp.TrdID)
	f.c.bottomPort.RetrieveIncoming()
	f.c.traceOutEnd(f.writeRsp.RespondTo)
	f.writeRsp = nil
	f.state = ixrRspIdle

	return true
}

func (f *ixrRspFSM) trtRead() bool {
	if !f.c.granted(resTRT, fsmIXRRsp) {
		return false
	}

	rsp := f.readRsp

	var data uint32
	if f.word < len(rsp.Data) {
		data = rsp.Data[f.word]
	}

	f.c.trt.WriteRsp(rsp.TrdID, f.word, data, rsp.Error)
	f.word++

	if f.word < f.c.dir.WordsPerLine() {
		return true
	}

	f.c.rspOK[rsp.TrdID] = true
	f.c.bottomPort.RetrieveIncoming()
	f.c.traceOutEnd(rsp.RespondTo)
	f.readRsp = nil
	f.word = 0
	f.state = ixrRspIdle

	return true
}
