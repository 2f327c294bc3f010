package memcache

import (
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

// xramCmdFSM sends the line fetches and write-backs to the external memory,
// serving the requesting state machines in round-robin order.
type xramCmdFSM struct {
	c    *Comp
	last string
}

func (f *xramCmdFSM) stateName() string {
	if f.last == "" {
		return "IDLE"
	}

	return f.last
}

func (f *xramCmdFSM) wants(resource) bool     { return false }
func (f *xramCmdFSM) acquiring(resource) bool { return false }

func (f *xramCmdFSM) Tick() bool {
	c := f.c

	if !c.bottomPort.CanSend() {
		return false
	}

	id := c.xramCmdArb.Next(func(id fsmID) bool {
		return c.xramSlots[id] != nil
	})

	cmd := c.xramSlots[id]
	if cmd == nil {
		f.last = ""
		return false
	}

	b := vci.XRAMReqBuilder{}.
		WithSrc(c.bottomPort.AsRemote()).
		WithDst(c.xramPort).
		WithTrdID(cmd.trtIndex).
		WithAddress(c.dir.LineAddr(cmd.nline))

	var msg sim.Msg
	if cmd.put {
		msg = b.BuildWrite(cmd.data)
		f.last = id.String() + "_PUT"
	} else {
		msg = b.BuildRead(c.dir.WordsPerLine())
		f.last = id.String() + "_GET"
	}

	if err := c.bottomPort.Send(msg); err != nil {
		return false
	}

	c.traceOutStart(msg, cmd.parentID)
	c.xramSlots[id] = nil

	return true
}
