// Package ccagent provides a minimal coherent processor-side agent. It turns
// the requests of an instruction set simulator into memory cache traffic,
// keeps private copies of the lines it reads, and answers the coherence
// commands of the memory cache.
package ccagent

import (
	"log"

	"github.com/sarchlab/soclib/mem/iss2"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
	"github.com/sarchlab/soclib/tracing"
)

type state int

const (
	stateIdle state = iota
	stateWaitCleanup
	stateWaitRsp
	stateReady
)

// A Finisher reports that it has nothing more to run.
type Finisher interface {
	Done() bool
}

// Comp is a coherent agent. It has at most one request in flight.
type Comp struct {
	*sim.TickingComponent

	toMem     sim.Port
	cleanup   sim.Port
	coherence sim.Port

	memPort    sim.RemotePort
	cleanupDst sim.RemotePort

	srcID        int
	wordsPerLine int
	iss          iss2.InstructionSetSimulator
	dcache       *lineCache
	icache       *lineCache

	state   state
	pktID   int
	pending *pendingReq
	irsp    iss2.InstructionResponse
	drsp    iss2.DataResponse

	numInvals  uint64
	numUpdates uint64
}

// pendingReq is the request in flight. A line read is not installed if a
// coherence command for the line arrives before the response.
type pendingReq struct {
	msg         sim.Msg
	instruction bool
	fill        bool
	nline       uint64
	word        int
	stale       bool
}

// ToMemPort returns the port that sends the requests.
func (c *Comp) ToMemPort() sim.Port {
	return c.toMem
}

// CleanupPort returns the port that sends the cleanups.
func (c *Comp) CleanupPort() sim.Port {
	return c.cleanup
}

// CoherencePort returns the port that receives the coherence commands.
func (c *Comp) CoherencePort() sim.Port {
	return c.coherence
}

// SetMemPort sets the memory cache port that serves the requests.
func (c *Comp) SetMemPort(p sim.RemotePort) {
	c.memPort = p
}

// SetCleanupPort sets the memory cache port that receives the cleanups.
func (c *Comp) SetCleanupPort(p sim.RemotePort) {
	c.cleanupDst = p
}

// SrcID returns the requester identifier.
func (c *Comp) SrcID() int {
	return c.srcID
}

// Done tells if the processor finished and no request is in flight.
func (c *Comp) Done() bool {
	return c.issDone() && c.state == stateIdle
}

// HasLine tells if the data cache holds a line.
func (c *Comp) HasLine(nline uint64) bool {
	_, ok := c.dcache.get(nline)
	return ok
}

// CachedWord returns a word of the data cache.
func (c *Comp) CachedWord(addr uint64) (uint32, bool) {
	l, ok := c.dcache.get(c.nline(addr))
	if !ok {
		return 0, false
	}

	return l[c.wordIndex(addr)], true
}

// NumCoherenceCommands returns the number of invalidates and updates
// received.
func (c *Comp) NumCoherenceCommands() (invals, updates uint64) {
	return c.numInvals, c.numUpdates
}

func (c *Comp) issDone() bool {
	if f, ok := c.iss.(Finisher); ok {
		return f.Done()
	}

	return false
}

func (c *Comp) lineBytes() uint64 {
	return uint64(c.wordsPerLine) * 4
}

func (c *Comp) nline(addr uint64) uint64 {
	return addr / c.lineBytes()
}

func (c *Comp) wordIndex(addr uint64) int {
	return int(addr%c.lineBytes()) / 4
}

// Tick serves the coherence commands first, then the responses, then the
// processor.
func (c *Comp) Tick() bool {
	madeProgress := false

	madeProgress = c.drainCoherence() || madeProgress
	madeProgress = c.receiveRsp() || madeProgress
	madeProgress = c.receiveCleanupRsp() || madeProgress
	madeProgress = c.execute() || madeProgress

	if c.state == stateIdle {
		madeProgress = c.issue() || madeProgress
	}

	return madeProgress || !c.Done()
}

func (c *Comp) drainCoherence() bool {
	madeProgress := false

	for c.coherence.CanSend() {
		msg := c.coherence.RetrieveIncoming()
		if msg == nil {
			break
		}

		c.applyCoherence(msg)
		madeProgress = true
	}

	return madeProgress
}

func (c *Comp) applyCoherence(msg sim.Msg) {
	var ack *vci.CoherenceAck

	switch cmd := msg.(type) {
	case *vci.InvalReq:
		c.numInvals++
		c.markStale(cmd.NLine)

		switch {
		case cmd.Broadcast:
			c.dcache.drop(cmd.NLine)
			c.icache.drop(cmd.NLine)
		case cmd.Instruction:
			c.icache.drop(cmd.NLine)
		default:
			c.dcache.drop(cmd.NLine)
		}

		instr := cmd.Instruction && !cmd.Broadcast
		ack = vci.BuildAck(cmd, cmd.UPTRef, c.srcID, instr)
	case *vci.UpdateReq:
		c.numUpdates++
		c.markStale(cmd.NLine)

		if l, ok := c.dcache.get(cmd.NLine); ok {
			for i, d := range cmd.Data {
				mask := iss2.ByteMask(cmd.BE[i])
				w := cmd.WordIndex + i
				l[w] = l[w]&^mask | d&mask
			}
		}

		ack = vci.BuildAck(cmd, cmd.UPTRef, c.srcID, false)
	default:
		log.Panicf("%s: unexpected %T on the coherence port", c.Name(), msg)
	}

	tracing.TraceReqReceive(msg, c)

	if err := c.coherence.Send(ack); err != nil {
		log.Panicf("%s: cannot send acknowledgement", c.Name())
	}

	tracing.TraceReqComplete(msg, c)
}

func (c *Comp) markStale(nline uint64) {
	if c.pending != nil && c.pending.fill && c.pending.nline == nline {
		c.pending.stale = true
	}
}

func (c *Comp) receiveRsp() bool {
	msg := c.toMem.RetrieveIncoming()
	if msg == nil {
		return false
	}

	if c.state != stateWaitRsp {
		log.Panicf("%s: unexpected response %T", c.Name(), msg)
	}

	p := c.pending
	rsp := msg.(vci.TargetRsp)
	isErr := rsp.IsError()

	switch rsp := msg.(type) {
	case *vci.ReadRsp:
		c.completeRead(p, rsp.Data, isErr)
	case *vci.WriteRsp:
		c.drsp = iss2.DataResponse{Valid: true, Error: isErr}
	case *vci.LLRsp:
		c.drsp = iss2.DataResponse{Valid: true, Error: isErr, RData: rsp.Data}
	case *vci.SCRsp:
		rdata := iss2.SCFailure
		if rsp.Success {
			rdata = iss2.SCSuccess
		}

		c.drsp = iss2.DataResponse{Valid: true, Error: isErr, RData: rdata}
	default:
		log.Panicf("%s: unexpected response %T", c.Name(), msg)
	}

	tracing.TraceReqFinalize(p.msg, c)
	c.pending = nil
	c.state = stateReady

	return true
}

func (c *Comp) completeRead(p *pendingReq, data []uint32, isErr bool) {
	var word uint32
	if !isErr {
		word = data[p.word]
	}

	if !isErr && !p.stale {
		if p.instruction {
			c.icache.install(p.nline, data)
		} else {
			c.dcache.install(p.nline, data)
		}
	}

	if p.instruction {
		c.irsp = iss2.InstructionResponse{
			Valid: true, Error: isErr, Instruction: word,
		}

		return
	}

	c.drsp = iss2.DataResponse{Valid: true, Error: isErr, RData: word}
}

func (c *Comp) receiveCleanupRsp() bool {
	msg := c.cleanup.RetrieveIncoming()
	if msg == nil {
		return false
	}

	if _, ok := msg.(*vci.CleanupRsp); !ok || c.state != stateWaitCleanup {
		log.Panicf("%s: unexpected %T on the cleanup port", c.Name(), msg)
	}

	tracing.TraceReqFinalize(c.pending.msg, c)
	c.pending = nil
	c.state = stateIdle

	return true
}

func (c *Comp) execute() bool {
	ready := c.state == stateReady
	if !ready && c.issDone() {
		return false
	}

	c.iss.ExecuteNCycles(1, c.irsp, c.drsp, 0)
	c.irsp = iss2.InstructionResponse{}
	c.drsp = iss2.DataResponse{}

	if ready {
		c.state = stateIdle
	}

	return ready
}
