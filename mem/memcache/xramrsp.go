package memcache

import (
	"github.com/sarchlab/soclib/mem/memcache/internal/directory"
	"github.com/sarchlab/soclib/mem/memcache/internal/trt"
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

type xramRspState int

const (
	xramRspIdle xramRspState = iota
	xramRspDirLock
	xramRspTRTCopy
	xramRspInvalLock
	xramRspDirUpdate
	xramRspTRTDirty
	xramRspDirRsp
	xramRspInval
	xramRspWriteDirty
	xramRspErrorErase
	xramRspErrorRsp
)

var xramRspStateNames = []string{
	"IDLE", "DIR_LOCK", "TRT_COPY", "INVAL_LOCK", "DIR_UPDATE", "TRT_DIRTY",
	"DIR_RSP", "INVAL", "WRITE_DIRTY", "ERROR_ERASE", "ERROR_RSP",
}

// xramRspFSM installs the fetched lines. It selects a victim, invalidates
// the victim's sharers, answers the processor that missed, and writes the
// victim back if it is dirty.
type xramRspFSM struct {
	c     *Comp
	state xramRspState

	ptr      int
	trtIndex int
	entry    trt.Entry

	set, way     int
	victim       directory.Entry
	victimNLine  uint64
	victimData   []uint32
	uptIndex     int
	uptTag       uint64
	targets      []coherenceTarget
	brdcast      bool
	invalPending bool
}

func (f *xramRspFSM) stateName() string {
	return stateString(xramRspStateNames, int(f.state))
}

func (f *xramRspFSM) wants(r resource) bool {
	switch f.state {
	case xramRspDirLock:
		return r == resDir
	case xramRspTRTCopy, xramRspDirUpdate, xramRspTRTDirty,
		xramRspErrorErase:
		return r == resDir || r == resTRT
	case xramRspInvalLock:
		return true
	}

	return false
}

func (f *xramRspFSM) acquiring(r resource) bool {
	switch f.state {
	case xramRspDirLock:
		return r == resDir
	case xramRspTRTCopy:
		return r == resTRT
	case xramRspInvalLock:
		return r == resUPT
	}

	return false
}

func (f *xramRspFSM) Tick() bool {
	switch f.state {
	case xramRspIdle:
		return f.idle()
	case xramRspDirLock:
		if !f.c.granted(resDir, fsmXRAMRsp) {
			return false
		}

		f.state = xramRspTRTCopy

		return true
	case xramRspTRTCopy:
		return f.trtCopy()
	case xramRspInvalLock:
		return f.invalLock()
	case xramRspDirUpdate:
		return f.dirUpdate()
	case xramRspTRTDirty:
		return f.trtDirty()
	case xramRspDirRsp:
		return f.dirRsp()
	case xramRspInval:
		return f.inval()
	case xramRspWriteDirty:
		return f.writeDirty()
	case xramRspErrorErase:
		f.c.trt.Erase(f.trtIndex)
		f.state = xramRspIdle

		if f.entry.ProcRead {
			f.state = xramRspErrorRsp
		}

		return true
	case xramRspErrorRsp:
		return f.errorRsp()
	}

	return false
}

func (f *xramRspFSM) idle() bool {
	n := len(f.c.rspOK)

	for i := 0; i < n; i++ {
		index := (f.ptr + i) % n
		if !f.c.rspOK[index] {
			continue
		}

		f.c.rspOK[index] = false
		f.ptr = (index + 1) % n
		f.trtIndex = index
		f.state = xramRspDirLock

		return true
	}

	return false
}

// retry gives the line back to the ready set when it cannot be installed
// yet.
func (f *xramRspFSM) retry() {
	f.c.rspOK[f.trtIndex] = true
	f.state = xramRspIdle
}

func (f *xramRspFSM) trtCopy() bool {
	c := f.c

	if !c.granted(resTRT, fsmXRAMRsp) {
		return false
	}

	f.entry = c.trt.Read(f.trtIndex)

	if f.entry.RspError {
		f.state = xramRspErrorErase
		return true
	}

	f.set = c.dir.SetOf(f.entry.NLine)

	victim, way, ok := c.dir.Select(f.set)
	if !ok {
		f.retry()
		return true
	}

	f.way = way
	f.victim = victim
	f.victimNLine = c.dir.NLineOf(f.set, victim.Tag)
	f.invalPending = false

	if victim.Valid && victim.HasCopies() {
		f.state = xramRspInvalLock
	} else {
		f.state = xramRspDirUpdate
	}

	return true
}

func (f *xramRspFSM) invalLock() bool {
	c := f.c

	if !c.granted(resUPT, fsmXRAMRsp) {
		return false
	}

	if !c.canAllocUPT(f.victimNLine) {
		f.retry()
		return true
	}

	f.targets, f.brdcast = c.invalTargets(f.victim)
	if len(f.targets) == 0 {
		f.state = xramRspDirUpdate
		return true
	}

	index, _ := c.upt.Set(upt.SetArgs{
		Brdcast: f.brdcast,
		NLine:   f.victimNLine,
		Pending: pendingOf(f.targets),
	})

	f.uptIndex = index
	f.uptTag = c.upt.Read(index).Tag
	f.invalPending = true
	f.state = xramRspDirUpdate

	return true
}

func (f *xramRspFSM) dirUpdate() bool {
	c := f.c
	e := f.entry

	if f.victim.Valid {
		f.victimData = c.store.ReadLine(f.set, f.way)
		c.atomic.Reset(f.victimNLine)
	}

	line := directory.Entry{
		Valid: true,
		Tag:   c.dir.TagOf(e.NLine),
	}

	for _, be := range e.BE {
		if be != 0 {
			line.Dirty = true
			break
		}
	}

	if e.ProcRead && !e.LL {
		line.AddCopy(e.SrcID, e.Instruction, c.copiesLimit)
	}

	c.dir.Write(f.set, f.way, line)
	c.store.WriteLine(f.set, f.way, e.Data)
	c.dir.Visit(f.set, f.way)

	if e.LL {
		c.atomic.Set(e.SrcID, c.dir.LineAddr(e.NLine)+uint64(4*e.WordIndex))
	}

	c.traceStep(e.ReqID, "fill")
	f.state = xramRspTRTDirty

	return true
}

func (f *xramRspFSM) trtDirty() bool {
	c := f.c

	if f.victim.Valid && f.victim.Dirty {
		c.trt.Set(f.trtIndex, trt.SetArgs{
			NLine: f.victimNLine,
			Data:  f.victimData,
		})
	} else {
		c.trt.Erase(f.trtIndex)
	}

	f.state = f.nextAfter(xramRspTRTDirty)

	return true
}

// nextAfter skips the output states that have nothing to send.
func (f *xramRspFSM) nextAfter(s xramRspState) xramRspState {
	switch s {
	case xramRspTRTDirty:
		if f.entry.ProcRead {
			return xramRspDirRsp
		}

		fallthrough
	case xramRspDirRsp:
		if f.invalPending {
			return xramRspInval
		}

		fallthrough
	case xramRspInval:
		if f.victim.Valid && f.victim.Dirty {
			return xramRspWriteDirty
		}
	}

	return xramRspIdle
}

func (f *xramRspFSM) dirRsp() bool {
	c := f.c

	if c.rspSlots[fsmXRAMRsp] != nil {
		return false
	}

	e := f.entry
	b := c.rspBuilder(e.Src, vci.Ident{
		SrcID: e.SrcID, TrdID: e.TrdID, PktID: e.PktID,
	}, e.ReqID, false)

	var rsp sim.Msg

	switch {
	case e.LL:
		rsp = b.BuildLLRsp(e.Data[e.WordIndex])
	case e.SingleWord:
		rsp = b.BuildReadRsp([]uint32{e.Data[e.WordIndex]})
	default:
		rsp = b.BuildReadRsp(e.Data)
	}

	c.rspSlots[fsmXRAMRsp] = rsp
	f.state = f.nextAfter(xramRspDirRsp)

	return true
}

func (f *xramRspFSM) inval() bool {
	if f.c.initSlots[fsmXRAMRsp] != nil {
		return false
	}

	f.c.initSlots[fsmXRAMRsp] = &initCmd{
		ref:      vci.UPTRef{UPTIndex: f.uptIndex, UPTTag: f.uptTag},
		brdcast:  f.brdcast,
		nline:    f.victimNLine,
		targets:  f.targets,
		parentID: f.entry.ReqID,
	}
	f.state = f.nextAfter(xramRspInval)

	return true
}

func (f *xramRspFSM) writeDirty() bool {
	if f.c.xramSlots[fsmXRAMRsp] != nil {
		return false
	}

	f.c.xramSlots[fsmXRAMRsp] = &xramCmd{
		trtIndex: f.trtIndex,
		put:      true,
		nline:    f.victimNLine,
		data:     f.victimData,
		parentID: f.entry.ReqID,
	}
	f.state = xramRspIdle

	return true
}

func (f *xramRspFSM) errorRsp() bool {
	c := f.c

	if c.rspSlots[fsmXRAMRsp] != nil {
		return false
	}

	e := f.entry
	b := c.rspBuilder(e.Src, vci.Ident{
		SrcID: e.SrcID, TrdID: e.TrdID, PktID: e.PktID,
	}, e.ReqID, true)

	if e.LL {
		c.rspSlots[fsmXRAMRsp] = b.BuildLLRsp(0)
	} else {
		c.rspSlots[fsmXRAMRsp] = b.BuildReadRsp(nil)
	}

	f.state = xramRspIdle

	return true
}
