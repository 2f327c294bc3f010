package ccagent

import (
	"github.com/sarchlab/soclib/mem/iss2"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
	"github.com/sarchlab/soclib/tracing"
)

func (c *Comp) issue() bool {
	ireq, dreq := c.iss.GetRequests()

	switch {
	case ireq.Valid:
		return c.issueFetch(ireq)
	case dreq.Valid:
		return c.issueData(dreq)
	}

	return false
}

func (c *Comp) respondData(rsp iss2.DataResponse) bool {
	rsp.Valid = true
	c.drsp = rsp
	c.state = stateReady

	return true
}

func (c *Comp) issueFetch(req iss2.InstructionRequest) bool {
	if err := req.Validate(); err != nil {
		c.irsp = iss2.InstructionResponse{Valid: true, Error: true}
		c.state = stateReady

		return true
	}

	addr := uint64(req.Addr)
	nline := c.nline(addr)

	if l, ok := c.icache.get(nline); ok {
		c.irsp = iss2.InstructionResponse{
			Valid: true, Instruction: l[c.wordIndex(addr)],
		}
		c.state = stateReady

		return true
	}

	if c.icache.full() {
		return c.sendCleanup(c.icache.victim(), true)
	}

	return c.sendRead(addr, true)
}

func (c *Comp) issueData(req iss2.DataRequest) bool {
	if err := req.Validate(); err != nil {
		return c.respondData(iss2.DataResponse{Error: true})
	}

	addr := uint64(req.Addr)
	nline := c.nline(addr)

	switch req.Type {
	case iss2.DataRead:
		if l, ok := c.dcache.get(nline); ok {
			return c.respondData(
				iss2.DataResponse{RData: l[c.wordIndex(addr)]})
		}

		if c.dcache.full() {
			return c.sendCleanup(c.dcache.victim(), false)
		}

		return c.sendRead(addr, false)
	case iss2.DataWrite, iss2.DataSC:
		if c.HasLine(nline) {
			return c.sendCleanup(nline, false)
		}

		return c.sendWrite(req)
	case iss2.DataLL:
		return c.send(c.reqBuilder(addr).BuildLLReq(), &pendingReq{})
	}

	return c.issueXTN(req)
}

// issueXTN runs the extended accesses. The cache invalidates and flushes
// clean up the lines they drop; the others complete at once.
func (c *Comp) issueXTN(req iss2.DataRequest) bool {
	if req.Type != iss2.XTNWrite {
		return c.respondData(iss2.DataResponse{})
	}

	switch iss2.XTNOpcode(req.Addr) {
	case iss2.XTNDCacheInval:
		if nline := c.nline(uint64(req.WData)); c.HasLine(nline) {
			return c.sendCleanup(nline, false)
		}
	case iss2.XTNICacheInval:
		nline := c.nline(uint64(req.WData))
		if _, ok := c.icache.get(nline); ok {
			return c.sendCleanup(nline, true)
		}
	case iss2.XTNDCacheFlush:
		if len(c.dcache.order) > 0 {
			return c.sendCleanup(c.dcache.victim(), false)
		}
	case iss2.XTNICacheFlush:
		if len(c.icache.order) > 0 {
			return c.sendCleanup(c.icache.victim(), true)
		}
	}

	return c.respondData(iss2.DataResponse{})
}

func (c *Comp) reqBuilder(addr uint64) vci.ReqBuilder {
	c.pktID++

	return vci.ReqBuilder{}.
		WithSrc(c.toMem.AsRemote()).
		WithDst(c.memPort).
		WithSrcID(c.srcID).
		WithPktID(c.pktID).
		WithAddress(addr)
}

func (c *Comp) sendRead(addr uint64, instruction bool) bool {
	nline := c.nline(addr)
	lineAddr := nline * c.lineBytes()
	req := c.reqBuilder(lineAddr).BuildReadReq(c.wordsPerLine, instruction)

	return c.send(req, &pendingReq{
		instruction: instruction,
		fill:        true,
		nline:       nline,
		word:        c.wordIndex(addr),
	})
}

func (c *Comp) sendWrite(req iss2.DataRequest) bool {
	b := c.reqBuilder(uint64(req.Addr))

	var msg sim.Msg
	if req.Type == iss2.DataSC {
		msg = b.BuildSCReq(req.WData)
	} else {
		msg = b.BuildWriteReq([]uint32{req.WData}, []uint8{req.BE})
	}

	return c.send(msg, &pendingReq{})
}

func (c *Comp) send(msg sim.Msg, p *pendingReq) bool {
	if !c.toMem.CanSend() {
		return false
	}

	if err := c.toMem.Send(msg); err != nil {
		return false
	}

	tracing.TraceReqInitiate(msg, c, "")
	p.msg = msg
	c.pending = p
	c.state = stateWaitRsp

	return true
}

// sendCleanup drops a line and tells the memory cache. The agent waits for
// the acknowledgement before reusing the line.
func (c *Comp) sendCleanup(nline uint64, instruction bool) bool {
	if !c.cleanup.CanSend() {
		return false
	}

	c.pktID++
	msg := vci.ReqBuilder{}.
		WithSrc(c.cleanup.AsRemote()).
		WithDst(c.cleanupDst).
		WithSrcID(c.srcID).
		WithPktID(c.pktID).
		BuildCleanupReq(nline, instruction)

	if err := c.cleanup.Send(msg); err != nil {
		return false
	}

	if instruction {
		c.icache.drop(nline)
	} else {
		c.dcache.drop(nline)
	}

	tracing.TraceReqInitiate(msg, c, "")
	c.pending = &pendingReq{msg: msg}
	c.state = stateWaitCleanup

	return true
}
