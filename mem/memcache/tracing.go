package memcache

import (
	"github.com/sarchlab/soclib/sim"
	"github.com/sarchlab/soclib/tracing"
)

func (c *Comp) taskID(reqID string) string {
	return reqID + "@" + c.Name()
}

func (c *Comp) traceReqStart(req sim.Msg) {
	tracing.TraceReqReceive(req, c)
}

func (c *Comp) traceReqEnd(reqID string) {
	tracing.EndTask(c.taskID(reqID), c)
}

func (c *Comp) traceStep(reqID string, what string) {
	if reqID == "" {
		return
	}

	tracing.AddTaskStep(c.taskID(reqID), c, what)
}

func (c *Comp) traceOutStart(msg sim.Msg, parentReqID string) {
	parent := ""
	if parentReqID != "" {
		parent = c.taskID(parentReqID)
	}

	tracing.TraceReqInitiate(msg, c, parent)
}

func (c *Comp) traceOutEnd(reqID string) {
	tracing.EndTask(reqID+"_req_out", c)
}
