// Package xram models the external memory behind the memory cache. It
// answers line reads and writes after a fixed latency, without limit on the
// number of requests in flight.
package xram

import (
	"log"
	"reflect"

	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
	"github.com/sarchlab/soclib/tracing"
)

type respondEvent struct {
	*sim.EventBase
	req sim.Msg
}

func newRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req sim.Msg,
) *respondEvent {
	return &respondEvent{sim.NewEventBase(time, handler), req}
}

// AddrRange is a half-open address range [Lo, Hi).
type AddrRange struct {
	Lo, Hi uint64
}

func (r AddrRange) overlaps(addr uint64, numBytes uint64) bool {
	return addr < r.Hi && addr+numBytes > r.Lo
}

// Comp is the external memory.
type Comp struct {
	*sim.TickingComponent

	topPort        sim.Port
	Storage        *Storage
	Latency        int
	BusErrorRanges []AddrRange

	width     int
	numReads  uint64
	numWrites uint64
}

// TopPort returns the port connected to the memory cache.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// NumReads returns the number of line reads served.
func (c *Comp) NumReads() uint64 {
	return c.numReads
}

// NumWrites returns the number of line writes served.
func (c *Comp) NumWrites() uint64 {
	return c.numWrites
}

// Handle defines how the Comp handles events.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *respondEvent:
		return c.handleRespondEvent(e)
	case sim.TickEvent:
		return c.TickingComponent.Handle(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// Tick accepts new requests.
func (c *Comp) Tick() bool {
	madeProgress := false

	for i := 0; i < c.width; i++ {
		madeProgress = c.acceptReq() || madeProgress
	}

	return madeProgress
}

func (c *Comp) acceptReq() bool {
	msg := c.topPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	switch msg.(type) {
	case *vci.XRAMReadReq, *vci.XRAMWriteReq:
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	tracing.TraceReqReceive(msg, c)

	now := c.CurrentTime()
	c.Engine.Schedule(
		newRespondEvent(c.Freq.NCyclesLater(c.Latency, now), c, msg))

	return true
}

func (c *Comp) handleRespondEvent(e *respondEvent) error {
	var rsp sim.Msg

	switch req := e.req.(type) {
	case *vci.XRAMReadReq:
		rsp = c.readRsp(req)
	case *vci.XRAMWriteReq:
		rsp = c.writeRsp(req)
	}

	if err := c.topPort.Send(rsp); err != nil {
		retry := newRespondEvent(c.Freq.NextTick(e.Time()), c, e.req)
		c.Engine.Schedule(retry)

		return nil
	}

	c.commit(e.req)
	tracing.TraceReqComplete(e.req, c)
	c.TickLater()

	return nil
}

func (c *Comp) readRsp(req *vci.XRAMReadReq) *vci.XRAMReadRsp {
	rsp := &vci.XRAMReadRsp{
		MsgMeta: sim.MsgMeta{
			ID:           sim.GetIDGenerator().Generate(),
			Src:          c.topPort.AsRemote(),
			Dst:          req.Src,
			TrafficBytes: 4 + 4*req.NumWords,
		},
		RespondTo: req.ID,
		TrdID:     req.TrdID,
	}

	if c.isBusError(req.Address, req.NumWords) {
		rsp.Error = true
		return rsp
	}

	rsp.Data = c.Storage.ReadBurst(req.Address, req.NumWords)

	return rsp
}

func (c *Comp) writeRsp(req *vci.XRAMWriteReq) *vci.XRAMWriteRsp {
	return &vci.XRAMWriteRsp{
		MsgMeta: sim.MsgMeta{
			ID:           sim.GetIDGenerator().Generate(),
			Src:          c.topPort.AsRemote(),
			Dst:          req.Src,
			TrafficBytes: 4,
		},
		RespondTo: req.ID,
		TrdID:     req.TrdID,
		Error:     c.isBusError(req.Address, len(req.Data)),
	}
}

// commit updates the counters and the storage once the response is sent.
func (c *Comp) commit(req sim.Msg) {
	switch req := req.(type) {
	case *vci.XRAMReadReq:
		c.numReads++
	case *vci.XRAMWriteReq:
		c.numWrites++
		if !c.isBusError(req.Address, len(req.Data)) {
			c.Storage.WriteBurst(req.Address, req.Data)
		}
	}
}

func (c *Comp) isBusError(addr uint64, numWords int) bool {
	for _, r := range c.BusErrorRanges {
		if r.overlaps(addr, uint64(4*numWords)) {
			return true
		}
	}

	return false
}
