package memcache

import (
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/mem/vci"
)

type initRspState int

const (
	initRspIdle initRspState = iota
	initRspUPTLock
	initRspUPTClear
	initRspDirLock
	initRspRsp
)

var initRspStateNames = []string{
	"IDLE", "UPT_LOCK", "UPT_CLEAR", "DIR_LOCK", "RSP",
}

// initRspFSM counts the coherence acknowledgements. When the last one
// arrives, the transaction is cleared, the line is unlocked after an update,
// and the writer gets its response.
type initRspFSM struct {
	c     *Comp
	state initRspState

	ack   *vci.CoherenceAck
	entry upt.Entry
}

func (f *initRspFSM) stateName() string {
	return stateString(initRspStateNames, int(f.state))
}

func (f *initRspFSM) wants(r resource) bool {
	switch f.state {
	case initRspUPTLock, initRspUPTClear:
		return r == resUPT
	case initRspDirLock:
		return r == resDir
	}

	return false
}

func (f *initRspFSM) acquiring(r resource) bool {
	switch f.state {
	case initRspUPTLock:
		return r == resUPT
	case initRspDirLock:
		return r == resDir
	}

	return false
}

func (f *initRspFSM) Tick() bool {
	switch f.state {
	case initRspIdle:
		return f.idle()
	case initRspUPTLock:
		return f.uptLock()
	case initRspUPTClear:
		return f.uptClear()
	case initRspDirLock:
		if !f.c.granted(resDir, fsmInitRsp) {
			return false
		}

		f.c.unlockLine(f.entry.NLine)
		f.afterClear()

		return true
	case initRspRsp:
		if f.c.rspSlots[fsmInitRsp] != nil {
			return false
		}

		f.c.rspSlots[fsmInitRsp] = f.c.completionRsp(f.entry)
		f.state = initRspIdle

		return true
	}

	return false
}

func (f *initRspFSM) idle() bool {
	msg := f.c.coherencePort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	ack, ok := msg.(*vci.CoherenceAck)
	if !ok {
		f.c.protocolError(ErrUnknownCommand, msg.Meta().Src,
			"unexpected %T on the coherence port", msg)
		return true
	}

	f.c.traceOutEnd(ack.RespondTo)

	switch {
	case ack.UPTIndex < 0 || ack.UPTIndex >= f.c.upt.Depth():
		f.c.protocolError(ErrUnexpectedAck, ack.Src,
			"acknowledgement for update table entry %d", ack.UPTIndex)
		return true
	case ack.SrcID < 0 || ack.SrcID >= f.c.numRequesters:
		f.c.protocolError(ErrBadSrcID, ack.Src,
			"acknowledgement from requester %d", ack.SrcID)
		return true
	}

	f.ack = ack
	f.state = initRspUPTLock

	return true
}

func (f *initRspFSM) uptLock() bool {
	if !f.c.granted(resUPT, fsmInitRsp) {
		return false
	}

	f.state = initRspIdle

	if !f.c.upt.Matches(f.ack.UPTIndex, f.ack.UPTTag) {
		return true
	}

	key := upt.AckKey(f.ack.SrcID, f.ack.Instruction)

	remaining, counted := f.c.upt.Decrement(f.ack.UPTIndex, key)
	if counted && remaining == 0 {
		f.state = initRspUPTClear
	}

	return true
}

func (f *initRspFSM) uptClear() bool {
	f.entry = f.c.upt.Read(f.ack.UPTIndex)
	f.c.upt.Clear(f.ack.UPTIndex)

	if f.entry.IsUpdate {
		f.state = initRspDirLock
		return true
	}

	f.afterClear()

	return true
}

func (f *initRspFSM) afterClear() {
	if f.entry.NeedRsp {
		f.state = initRspRsp
	} else {
		f.state = initRspIdle
	}
}
