package vci

import "github.com/sarchlab/soclib/sim"

// XRAMReadReq fetches a full line from the external memory. TrdID carries the
// index of the transaction table entry that waits for the data.
type XRAMReadReq struct {
	sim.MsgMeta

	TrdID    int
	Address  uint64
	NumWords int
}

// Meta returns the message meta.
func (r *XRAMReadReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *XRAMReadReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// XRAMReadRsp returns the words of a line.
type XRAMReadRsp struct {
	sim.MsgMeta

	RespondTo string
	TrdID     int
	Data      []uint32
	Error     bool
}

// Meta returns the message meta.
func (r *XRAMReadRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetRspTo returns the ID of the request being answered.
func (r *XRAMReadRsp) GetRspTo() string {
	return r.RespondTo
}

// Clone returns a copy of the response with a new ID.
func (r *XRAMReadRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()
	c.Data = append([]uint32(nil), r.Data...)

	return &c
}

// XRAMWriteReq writes a full line back to the external memory.
type XRAMWriteReq struct {
	sim.MsgMeta

	TrdID   int
	Address uint64
	Data    []uint32
}

// Meta returns the message meta.
func (r *XRAMWriteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *XRAMWriteReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()
	c.Data = append([]uint32(nil), r.Data...)

	return &c
}

// XRAMWriteRsp acknowledges a line write-back.
type XRAMWriteRsp struct {
	sim.MsgMeta

	RespondTo string
	TrdID     int
	Error     bool
}

// Meta returns the message meta.
func (r *XRAMWriteRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetRspTo returns the ID of the request being answered.
func (r *XRAMWriteRsp) GetRspTo() string {
	return r.RespondTo
}

// Clone returns a copy of the response with a new ID.
func (r *XRAMWriteRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}
