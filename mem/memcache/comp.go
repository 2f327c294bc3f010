// Package memcache implements a directory-based coherent memory cache. The
// cache sits in front of the external memory (XRAM), serves the processors'
// reads, writes and LL/SC, and keeps the processors' private caches coherent
// with multicast updates and invalidates.
package memcache

import (
	"fmt"

	"github.com/sarchlab/soclib/mem/memcache/internal/arbiter"
	"github.com/sarchlab/soclib/mem/memcache/internal/atomictab"
	"github.com/sarchlab/soclib/mem/memcache/internal/datastore"
	"github.com/sarchlab/soclib/mem/memcache/internal/directory"
	"github.com/sarchlab/soclib/mem/memcache/internal/trt"
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/sim"
)

// Comp is the coherent memory cache. Every tick, each state machine advances
// by one step, then the arbiters grant the directory, the transaction table
// and the update table for the next cycle.
type Comp struct {
	*sim.TickingComponent

	topPort       sim.Port
	cleanupPort   sim.Port
	bottomPort    sim.Port
	coherencePort sim.Port

	xramPort         sim.RemotePort
	coherenceTargets []sim.RemotePort

	numRequesters  int
	copiesLimit    int
	errorPolicy    ProtocolErrorPolicy
	protocolErrors []*ProtocolError

	dir    *directory.Directory
	store  *datastore.Store
	trt    *trt.Table
	upt    *upt.Table
	atomic *atomictab.Table

	dirArb     *arbiter.RoundRobinArbiter[fsmID]
	trtArb     *arbiter.RoundRobinArbiter[fsmID]
	uptArb     *arbiter.RoundRobinArbiter[fsmID]
	xramCmdArb *arbiter.RoundRobinArbiter[fsmID]
	initCmdArb *arbiter.RoundRobinArbiter[fsmID]
	tgtRspArb  *arbiter.RoundRobinArbiter[fsmID]

	readFIFO  sim.Buffer
	writeFIFO sim.Buffer
	llscFIFO  sim.Buffer

	rspSlots  [numFSMs]sim.Msg
	xramSlots [numFSMs]*xramCmd
	initSlots [numFSMs]*initCmd
	rspOK     []bool

	fsms [numFSMs]stateMachine
}

// TopPort returns the port that receives the processor requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// CleanupPort returns the port that receives the cleanup notifications.
func (c *Comp) CleanupPort() sim.Port {
	return c.cleanupPort
}

// BottomPort returns the port connected to the external memory.
func (c *Comp) BottomPort() sim.Port {
	return c.bottomPort
}

// CoherencePort returns the port that sends the coherence commands.
func (c *Comp) CoherencePort() sim.Port {
	return c.coherencePort
}

// SetXRAMPort sets the destination of the external memory requests.
func (c *Comp) SetXRAMPort(p sim.RemotePort) {
	c.xramPort = p
}

// SetCoherenceTarget sets the port that receives the coherence commands of
// a requester.
func (c *Comp) SetCoherenceTarget(srcID int, p sim.RemotePort) {
	if srcID < 0 || srcID >= c.numRequesters {
		panic(fmt.Sprintf("requester %d out of range", srcID))
	}

	c.coherenceTargets[srcID] = p
}

// Tick advances every state machine, then the arbiters.
func (c *Comp) Tick() bool {
	madeProgress := false

	for _, id := range tickOrder {
		madeProgress = c.fsms[id].Tick() || madeProgress
	}

	madeProgress = c.arbitrate() || madeProgress

	return madeProgress
}

func (c *Comp) arbitrate() bool {
	changed := false

	arbs := [numResources]*arbiter.RoundRobinArbiter[fsmID]{
		c.dirArb, c.trtArb, c.uptArb,
	}

	for r, arb := range arbs {
		res := resource(r)
		before := arb.Owner()
		after := arb.Arbitrate(func(id fsmID) bool {
			return c.fsms[id].wants(res)
		})

		changed = changed || before != after
	}

	return changed
}

func (c *Comp) granted(r resource, id fsmID) bool {
	switch r {
	case resDir:
		return c.dirArb.IsGranted(id)
	case resTRT:
		return c.trtArb.IsGranted(id)
	case resUPT:
		return c.uptArb.IsGranted(id)
	}

	return false
}

// FSMStates returns the current state of every state machine.
func (c *Comp) FSMStates() map[string]string {
	states := make(map[string]string, numFSMs)

	for id, f := range c.fsms {
		states[fsmID(id).String()] = f.stateName()
	}

	return states
}

// Grants returns the owner of each arbitrated resource.
func (c *Comp) Grants() map[string]string {
	return map[string]string{
		resDir.String(): c.dirArb.Owner().String(),
		resTRT.String(): c.trtArb.Owner().String(),
		resUPT.String(): c.uptArb.Owner().String(),
	}
}

// LineInfo is a snapshot of the state of a cached line.
type LineInfo struct {
	Dirty   bool
	Lock    bool
	IsCnt   bool
	DCopies []int
	ICopies []int
	Count   int
	Data    []uint32
}

// LineInfo returns the state of the line holding the address.
func (c *Comp) LineInfo(addr uint64) (LineInfo, bool) {
	e, way, hit := c.dir.Read(addr)
	if !hit {
		return LineInfo{}, false
	}

	set := c.dir.SetOf(c.dir.NLine(addr))

	return LineInfo{
		Dirty:   e.Dirty,
		Lock:    e.Lock,
		IsCnt:   e.IsCnt,
		DCopies: e.DCopies.Members(),
		ICopies: e.ICopies.Members(),
		Count:   e.Count,
		Data:    c.store.ReadLine(set, way),
	}, true
}

// CheckDirectory verifies that the sharer count of every line in vector mode
// matches its copy sets.
func (c *Comp) CheckDirectory() error {
	var err error

	c.dir.ForEach(func(set, way int, e directory.Entry) {
		if err == nil && !e.Consistent() {
			err = fmt.Errorf(
				"line in set %d way %d counts %d sharers, vectors hold %d",
				set, way, e.Count, e.DCopies.Count()+e.ICopies.Count())
		}
	})

	return err
}

// NumPendingTransactions returns the number of transaction table entries in
// use.
func (c *Comp) NumPendingTransactions() int {
	return c.trt.NumValid()
}

// NumPendingCoherence returns the number of update table entries in use.
func (c *Comp) NumPendingCoherence() int {
	return c.upt.NumValid()
}

// LineBytes returns the size of a line in bytes.
func (c *Comp) LineBytes() uint64 {
	return c.dir.LineBytes()
}

// WordsPerLine returns the number of words in a line.
func (c *Comp) WordsPerLine() int {
	return c.dir.WordsPerLine()
}
