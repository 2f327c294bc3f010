// Package iss2 defines the request and response contract between an
// instruction-set simulator and the cache wrapper that serves it.
package iss2

import (
	"errors"
	"fmt"
)

// ExecMode is the privilege level of an access.
type ExecMode int

// Execution modes.
const (
	ModeHyper ExecMode = iota
	ModeKernel
	ModeUser
)

func (m ExecMode) String() string {
	switch m {
	case ModeHyper:
		return "hyper"
	case ModeKernel:
		return "kernel"
	case ModeUser:
		return "user"
	}

	return fmt.Sprintf("ExecMode(%d)", int(m))
}

// DataOperationType tells what a data request does.
type DataOperationType int

// Data operation types.
const (
	DataRead DataOperationType = iota
	DataWrite
	DataLL
	DataSC
	XTNRead
	XTNWrite
)

func (t DataOperationType) String() string {
	switch t {
	case DataRead:
		return "READ"
	case DataWrite:
		return "WRITE"
	case DataLL:
		return "LL"
	case DataSC:
		return "SC"
	case XTNRead:
		return "XTN_READ"
	case XTNWrite:
		return "XTN_WRITE"
	}

	return fmt.Sprintf("DataOperationType(%d)", int(t))
}

// XTN opcodes. An extended access targets the address opcode*4.
const (
	XTNPTPR           = 0
	XTNTLBMode        = 1
	XTNICacheFlush    = 2
	XTNDCacheFlush    = 3
	XTNITLBInval      = 4
	XTNDTLBInval      = 5
	XTNICacheInval    = 6
	XTNDCacheInval    = 7
	XTNICachePrefetch = 8
	XTNDCachePrefetch = 9
	XTNSync           = 10
	XTNInsErrorType   = 11
	XTNDataErrorType  = 12
	XTNInsBadVAddr    = 13
	XTNDataBadVAddr   = 14
	XTNMMUParams      = 15
	XTNMMURelease     = 16
	XTNMMUWordLo      = 17
	XTNMMUWordHi      = 18
	XTNMMUICachePAInv = 19
	XTNMMUDCachePAInv = 20

	numXTNOpcodes = 21
)

// XTNAddress returns the address that encodes the opcode.
func XTNAddress(opcode uint32) uint32 {
	return opcode * 4
}

// XTNOpcode decodes the opcode of an extended access.
func XTNOpcode(addr uint32) uint32 {
	return addr / 4
}

// Values returned in DataResponse.RData for a store-conditional.
const (
	SCSuccess uint32 = 0
	SCFailure uint32 = 1
)

// InstructionRequest asks for the instruction at Addr.
type InstructionRequest struct {
	Valid bool
	Addr  uint32
	Mode  ExecMode
}

// InstructionResponse returns an instruction word.
type InstructionResponse struct {
	Valid       bool
	Error       bool
	Instruction uint32
}

// DataRequest is a data access. BE is a 4-bit byte enable mask where bit i
// selects the byte at Addr+i.
type DataRequest struct {
	Valid bool
	Addr  uint32
	WData uint32
	Type  DataOperationType
	BE    uint8
	Mode  ExecMode
}

// DataResponse answers a DataRequest.
type DataResponse struct {
	Valid bool
	Error bool
	RData uint32
}

// Errors reported by Validate.
var (
	ErrMisaligned     = errors.New("address is not word aligned")
	ErrBadByteEnable  = errors.New("invalid byte enable")
	ErrUnknownXTN     = errors.New("unknown extended opcode")
	ErrUnknownOpType  = errors.New("unknown data operation type")
	ErrInvalidRequest = errors.New("request is not valid")
)

var contiguousMasks = map[uint8]bool{
	0x1: true, 0x2: true, 0x4: true, 0x8: true,
	0x3: true, 0x6: true, 0xc: true,
	0x7: true, 0xe: true,
	0xf: true,
}

// Validate checks the alignment and byte enable rules of the request.
func (r DataRequest) Validate() error {
	if !r.Valid {
		return ErrInvalidRequest
	}

	if r.Addr%4 != 0 {
		return fmt.Errorf("%w: 0x%x", ErrMisaligned, r.Addr)
	}

	switch r.Type {
	case DataRead, DataWrite:
		if !contiguousMasks[r.BE] {
			return fmt.Errorf("%w: 0x%x", ErrBadByteEnable, r.BE)
		}
	case DataLL, DataSC:
		if r.BE != 0xf {
			return fmt.Errorf("%w: 0x%x", ErrBadByteEnable, r.BE)
		}
	case XTNRead, XTNWrite:
		if XTNOpcode(r.Addr) >= numXTNOpcodes {
			return fmt.Errorf("%w: %d", ErrUnknownXTN, XTNOpcode(r.Addr))
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownOpType, int(r.Type))
	}

	return nil
}

// Validate checks the alignment of the instruction address.
func (r InstructionRequest) Validate() error {
	if !r.Valid {
		return ErrInvalidRequest
	}

	if r.Addr%4 != 0 {
		return fmt.Errorf("%w: 0x%x", ErrMisaligned, r.Addr)
	}

	return nil
}

// ByteMask expands a 4-bit byte enable into a 32-bit mask.
func ByteMask(be uint8) uint32 {
	mask := uint32(0)

	for i := 0; i < 4; i++ {
		if be&(1<<i) != 0 {
			mask |= 0xff << (8 * i)
		}
	}

	return mask
}

// InstructionSetSimulator is what a processor model provides to the cache
// wrapper. GetRequests reports the pending requests; ExecuteNCycles advances
// the processor by at most n cycles with the responses available this cycle
// and returns the number of cycles actually executed.
type InstructionSetSimulator interface {
	Reset()
	GetRequests() (InstructionRequest, DataRequest)
	ExecuteNCycles(
		n uint32,
		irsp InstructionResponse,
		drsp DataResponse,
		irq uint32,
	) uint32
}
