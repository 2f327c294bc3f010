// Package vci defines the messages exchanged by the coherent memory cache with
// the processors, the external memory, and the sharer caches.
package vci

import (
	"github.com/sarchlab/soclib/sim"
)

var reqByteOverhead = 12
var rspByteOverhead = 4

// Ident carries the identifiers of the original requester. They are copied
// into every table entry that needs to route a response later.
type Ident struct {
	SrcID int
	TrdID int
	PktID int
}

// GetIdent returns the identifiers.
func (i *Ident) GetIdent() Ident {
	return *i
}

// A TargetReq is a request arriving on the processor-facing port.
type TargetReq interface {
	sim.Msg
	GetIdent() Ident
	GetAddress() uint64
}

// A TargetRsp is a response sent on the processor-facing port.
type TargetRsp interface {
	sim.Rsp
	GetIdent() Ident
	IsError() bool
}

// ReadReq reads one word or a full line.
type ReadReq struct {
	sim.MsgMeta
	Ident

	Address     uint64
	Length      int
	Instruction bool
}

// Meta returns the message meta.
func (r *ReadReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *ReadReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetAddress returns the address of the first word.
func (r *ReadReq) GetAddress() uint64 {
	return r.Address
}

// WriteReq writes a burst of words within one line. BE holds one 4-bit byte
// enable mask per word.
type WriteReq struct {
	sim.MsgMeta
	Ident

	Address uint64
	Data    []uint32
	BE      []uint8
}

// Meta returns the message meta.
func (r *WriteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *WriteReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()
	c.Data = append([]uint32(nil), r.Data...)
	c.BE = append([]uint8(nil), r.BE...)

	return &c
}

// GetAddress returns the address of the first word.
func (r *WriteReq) GetAddress() uint64 {
	return r.Address
}

// LLReq is a load-linked request.
type LLReq struct {
	sim.MsgMeta
	Ident

	Address uint64
}

// Meta returns the message meta.
func (r *LLReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *LLReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetAddress returns the reserved address.
func (r *LLReq) GetAddress() uint64 {
	return r.Address
}

// SCReq is a store-conditional request.
type SCReq struct {
	sim.MsgMeta
	Ident

	Address uint64
	Data    uint32
}

// Meta returns the message meta.
func (r *SCReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *SCReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetAddress returns the address to store.
func (r *SCReq) GetAddress() uint64 {
	return r.Address
}

// RspBase holds what every response carries.
type RspBase struct {
	sim.MsgMeta
	Ident

	RespondTo string
	Error     bool
}

// Meta returns the message meta.
func (r *RspBase) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetRspTo returns the ID of the request being answered.
func (r *RspBase) GetRspTo() string {
	return r.RespondTo
}

// IsError tells if the request failed.
func (r *RspBase) IsError() bool {
	return r.Error
}

// ReadRsp returns the words requested by a ReadReq.
type ReadRsp struct {
	RspBase

	Data []uint32
}

// Clone returns a copy of the response with a new ID.
func (r *ReadRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()
	c.Data = append([]uint32(nil), r.Data...)

	return &c
}

// WriteRsp acknowledges a WriteReq.
type WriteRsp struct {
	RspBase
}

// Clone returns a copy of the response with a new ID.
func (r *WriteRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// LLRsp returns the word loaded by an LLReq.
type LLRsp struct {
	RspBase

	Data uint32
}

// Clone returns a copy of the response with a new ID.
func (r *LLRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// SCRsp tells if a store-conditional succeeded.
type SCRsp struct {
	RspBase

	Success bool
}

// Clone returns a copy of the response with a new ID.
func (r *SCRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// CleanupReq notifies that a sharer dropped its copy of a line.
type CleanupReq struct {
	sim.MsgMeta
	Ident

	NLine       uint64
	Instruction bool
}

// Meta returns the message meta.
func (r *CleanupReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *CleanupReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// CleanupRsp acknowledges a CleanupReq.
type CleanupRsp struct {
	RspBase

	NLine uint64
}

// Clone returns a copy of the response with a new ID.
func (r *CleanupRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}
