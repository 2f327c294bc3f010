package memcache

import (
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

// initCmdFSM sends the coherence commands of a transaction, one target per
// cycle. A transaction keeps the multiplexer until all its targets are
// served. Targets that already dropped their copy are skipped.
type initCmdFSM struct {
	c     *Comp
	owner fsmID
	busy  bool
}

func (f *initCmdFSM) stateName() string {
	if !f.busy {
		return "IDLE"
	}

	cmd := f.c.initSlots[f.owner]
	if cmd != nil && cmd.isUpdate {
		return f.owner.String() + "_UPDATE"
	}

	return f.owner.String() + "_INVAL"
}

func (f *initCmdFSM) wants(resource) bool     { return false }
func (f *initCmdFSM) acquiring(resource) bool { return false }

func (f *initCmdFSM) Tick() bool {
	c := f.c

	id := c.initCmdArb.Arbitrate(func(id fsmID) bool {
		return c.initSlots[id] != nil
	})

	cmd := c.initSlots[id]
	if cmd == nil {
		f.busy = false
		return false
	}

	f.owner = id
	f.busy = true

	for cmd.next < len(cmd.targets) {
		t := cmd.targets[cmd.next]
		if c.stillPending(cmd, t) {
			break
		}

		cmd.next++
	}

	if cmd.next == len(cmd.targets) {
		c.initSlots[id] = nil
		return true
	}

	if !c.coherencePort.CanSend() {
		return false
	}

	t := cmd.targets[cmd.next]
	msg := c.coherenceMsg(cmd, t)

	if err := c.coherencePort.Send(msg); err != nil {
		return false
	}

	c.traceOutStart(msg, cmd.parentID)
	cmd.next++

	if cmd.next == len(cmd.targets) {
		c.initSlots[id] = nil
	}

	return true
}

// stillPending tells if a target has not acknowledged the transaction yet,
// either by a cleanup or by an earlier acknowledgement.
func (c *Comp) stillPending(cmd *initCmd, t coherenceTarget) bool {
	if c.coherenceTargets[t.srcID] == "" {
		return false
	}

	if !c.upt.Matches(cmd.ref.UPTIndex, cmd.ref.UPTTag) {
		return false
	}

	e := c.upt.Read(cmd.ref.UPTIndex)

	return e.Pending.Has(upt.AckKey(t.srcID, t.instruction))
}

func (c *Comp) coherenceMsg(cmd *initCmd, t coherenceTarget) sim.Msg {
	b := vci.CoherenceReqBuilder{}.
		WithSrc(c.coherencePort.AsRemote()).
		WithDst(c.coherenceTargets[t.srcID]).
		WithUPTRef(cmd.ref).
		WithNLine(cmd.nline)

	if cmd.isUpdate {
		return b.BuildUpdate(cmd.wordIndex, cmd.data, cmd.be)
	}

	return b.BuildInval(cmd.brdcast, t.instruction)
}
