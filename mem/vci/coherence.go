package vci

import "github.com/sarchlab/soclib/sim"

// UPTRef names the update table entry that a coherence command belongs to.
// The tag distinguishes successive uses of the same entry.
type UPTRef struct {
	UPTIndex int
	UPTTag   uint64
}

// InvalReq asks a sharer to drop its copy of a line. A broadcast invalidate is
// sent to every cache and each cache acknowledges it once.
type InvalReq struct {
	sim.MsgMeta
	UPTRef

	NLine       uint64
	Broadcast   bool
	Instruction bool
}

// Meta returns the message meta.
func (r *InvalReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *InvalReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// UpdateReq carries new values of consecutive words of a line, starting at
// WordIndex, to a sharer.
type UpdateReq struct {
	sim.MsgMeta
	UPTRef

	NLine     uint64
	WordIndex int
	Data      []uint32
	BE        []uint8
}

// Meta returns the message meta.
func (r *UpdateReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *UpdateReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()
	c.Data = append([]uint32(nil), r.Data...)
	c.BE = append([]uint8(nil), r.BE...)

	return &c
}

// CoherenceAck acknowledges an InvalReq or an UpdateReq.
type CoherenceAck struct {
	sim.MsgMeta
	UPTRef

	RespondTo   string
	SrcID       int
	Instruction bool
}

// Meta returns the message meta.
func (r *CoherenceAck) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetRspTo returns the ID of the command being acknowledged.
func (r *CoherenceAck) GetRspTo() string {
	return r.RespondTo
}

// Clone returns a copy of the ack with a new ID.
func (r *CoherenceAck) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}
