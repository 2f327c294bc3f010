package memcache

import (
	"github.com/sarchlab/soclib/mem/memcache/internal/trt"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

type readState int

const (
	readIdle readState = iota
	readDirLock
	readDirHit
	readTRTLock
	readTRTSet
	readXRAMReq
	readWait
	readRsp
)

var readStateNames = []string{
	"IDLE", "DIR_LOCK", "DIR_HIT", "TRT_LOCK", "TRT_SET", "XRAM_REQ", "WAIT",
	"RSP",
}

// readFSM serves the read requests. A hit is answered from the cache, a miss
// allocates a transaction and fetches the line.
type readFSM struct {
	c     *Comp
	state readState

	req      *vci.ReadReq
	nline    uint64
	set, way int
	trtIndex int
	rsp      sim.Msg
}

func (f *readFSM) stateName() string {
	return stateString(readStateNames, int(f.state))
}

func (f *readFSM) wants(r resource) bool {
	switch f.state {
	case readDirLock, readDirHit:
		return r == resDir
	case readTRTLock, readTRTSet:
		return r == resDir || r == resTRT
	}

	return false
}

func (f *readFSM) acquiring(r resource) bool {
	switch f.state {
	case readDirLock:
		return r == resDir
	case readTRTLock:
		return r == resTRT
	}

	return false
}

func (f *readFSM) Tick() bool {
	switch f.state {
	case readIdle:
		return f.idle()
	case readDirLock:
		return f.dirLock()
	case readDirHit:
		return f.dirHit()
	case readTRTLock:
		return f.trtLock()
	case readTRTSet:
		return f.trtSet()
	case readXRAMReq:
		return f.xramReq()
	case readWait:
		f.state = readDirLock
		return true
	case readRsp:
		return f.respond()
	}

	return false
}

func (f *readFSM) idle() bool {
	if f.c.readFIFO.Size() == 0 {
		return false
	}

	item := f.c.readFIFO.Pop().(fifoItem)
	f.req = item.req.(*vci.ReadReq)

	if item.err {
		f.rsp = f.c.errorRsp(f.req)
		f.state = readRsp

		return true
	}

	f.nline = f.c.dir.NLine(f.req.Address)
	f.state = readDirLock

	return true
}

func (f *readFSM) dirLock() bool {
	if !f.c.granted(resDir, fsmRead) {
		return false
	}

	_, way, hit := f.c.dir.ReadLine(f.nline)
	if hit {
		f.set = f.c.dir.SetOf(f.nline)
		f.way = way
		f.state = readDirHit
	} else {
		f.state = readTRTLock
	}

	return true
}

func (f *readFSM) dirHit() bool {
	c := f.c
	e := c.dir.Get(f.set, f.way)
	e.AddCopy(f.req.SrcID, f.req.Instruction, c.copiesLimit)
	c.dir.Write(f.set, f.way, e)
	c.dir.Visit(f.set, f.way)

	var data []uint32
	if f.req.Length == 1 {
		word := c.dir.WordIndex(f.req.Address)
		data = []uint32{c.store.ReadWord(f.set, f.way, word)}
	} else {
		data = c.store.ReadLine(f.set, f.way)
	}

	c.traceStep(f.req.ID, "hit")
	f.rsp = c.rspBuilder(f.req.Src, f.req.Ident, f.req.ID, false).
		BuildReadRsp(data)
	f.state = readRsp

	return true
}

func (f *readFSM) trtLock() bool {
	index, ok := f.c.missTRTLock(fsmRead, f.nline)
	if !ok {
		return false
	}

	if index < 0 {
		f.state = readWait
		return true
	}

	f.trtIndex = index
	f.state = readTRTSet

	return true
}

func (f *readFSM) trtSet() bool {
	c := f.c
	c.trt.Set(f.trtIndex, trt.SetArgs{
		Read:        true,
		NLine:       f.nline,
		SrcID:       f.req.SrcID,
		TrdID:       f.req.TrdID,
		PktID:       f.req.PktID,
		ProcRead:    true,
		SingleWord:  f.req.Length == 1,
		Instruction: f.req.Instruction,
		WordIndex:   c.dir.WordIndex(f.req.Address),
		Length:      f.req.Length,
		Src:         f.req.Src,
		ReqID:       f.req.ID,
	})

	c.traceStep(f.req.ID, "miss")
	f.state = readXRAMReq

	return true
}

func (f *readFSM) xramReq() bool {
	if f.c.xramSlots[fsmRead] != nil {
		return false
	}

	f.c.xramSlots[fsmRead] = &xramCmd{
		trtIndex: f.trtIndex,
		nline:    f.nline,
		parentID: f.req.ID,
	}
	f.state = readIdle

	return true
}

func (f *readFSM) respond() bool {
	if f.c.rspSlots[fsmRead] != nil {
		return false
	}

	f.c.rspSlots[fsmRead] = f.rsp
	f.rsp = nil
	f.state = readIdle

	return true
}

// missTRTLock checks the transaction table for a miss. It returns false while
// the table is not granted, and a negative index when the request has to wait
// for another transaction of the line or for a free entry.
func (c *Comp) missTRTLock(id fsmID, nline uint64) (int, bool) {
	if !c.granted(resTRT, id) {
		return 0, false
	}

	if hit, _ := c.trt.HitRead(nline); hit {
		return -1, true
	}

	if c.trt.HitWrite(nline) {
		return -1, true
	}

	full, index := c.trt.Full()
	if full {
		return -1, true
	}

	return index, true
}
