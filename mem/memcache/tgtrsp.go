package memcache

import "github.com/sarchlab/soclib/sim"

// tgtRspFSM sends the responses to the processors, one per cycle, serving
// the producers in round-robin order.
type tgtRspFSM struct {
	c    *Comp
	last fsmID
	busy bool
}

func (f *tgtRspFSM) stateName() string {
	if !f.busy {
		return "IDLE"
	}

	return f.last.String()
}

func (f *tgtRspFSM) wants(resource) bool     { return false }
func (f *tgtRspFSM) acquiring(resource) bool { return false }

func (f *tgtRspFSM) Tick() bool {
	c := f.c

	if !c.topPort.CanSend() {
		return false
	}

	id := c.tgtRspArb.Next(func(id fsmID) bool {
		return c.rspSlots[id] != nil
	})

	rsp := c.rspSlots[id]
	if rsp == nil {
		f.busy = false
		return false
	}

	if err := c.topPort.Send(rsp); err != nil {
		return false
	}

	c.rspSlots[id] = nil
	f.last = id
	f.busy = true

	if r, ok := rsp.(sim.Rsp); ok {
		c.traceReqEnd(r.GetRspTo())
	}

	return true
}
