package iss2

import (
	"fmt"
	"log"
)

// SplitState is the state of an UnalignedSplitter.
type SplitState int

// Splitter states.
const (
	SplitIdle SplitState = iota
	SplitAwaitSecondHalf
)

func (s SplitState) String() string {
	switch s {
	case SplitIdle:
		return "Idle"
	case SplitAwaitSecondHalf:
		return "AwaitSecondHalf"
	}

	return fmt.Sprintf("SplitState(%d)", int(s))
}

// UnalignedSplitter turns a 1, 2 or 4 byte little-endian access at any
// address into one or two word-aligned data requests.
type UnalignedSplitter struct {
	state  SplitState
	active bool

	addr      uint32
	size      int
	write     bool
	wdata     uint32
	mode      ExecMode
	firstSize int
	firstData uint32
	err       bool
}

// State returns the current state.
func (s *UnalignedSplitter) State() SplitState {
	return s.state
}

// Busy tells if an access is in progress.
func (s *UnalignedSplitter) Busy() bool {
	return s.active
}

// Start begins a new access.
func (s *UnalignedSplitter) Start(
	addr uint32,
	size int,
	write bool,
	wdata uint32,
	mode ExecMode,
) {
	if s.active {
		log.Panic("unaligned splitter is busy")
	}

	if size != 1 && size != 2 && size != 4 {
		log.Panicf("unsupported access size %d", size)
	}

	s.active = true
	s.state = SplitIdle
	s.addr = addr
	s.size = size
	s.write = write
	s.wdata = wdata
	s.mode = mode
	s.err = false

	offset := int(addr % 4)
	s.firstSize = size
	if offset+size > 4 {
		s.firstSize = 4 - offset
	}
}

// Request returns the aligned request for the current half.
func (s *UnalignedSplitter) Request() DataRequest {
	if !s.active {
		return DataRequest{}
	}

	req := DataRequest{
		Valid: true,
		Type:  DataRead,
		Mode:  s.mode,
	}

	if s.write {
		req.Type = DataWrite
	}

	if s.state == SplitIdle {
		offset := s.addr % 4
		req.Addr = s.addr - offset
		req.BE = lowMask(s.firstSize) << offset
		req.WData = s.wdata << (8 * offset)

		return req
	}

	req.Addr = s.addr - s.addr%4 + 4
	req.BE = lowMask(s.size - s.firstSize)
	req.WData = s.wdata >> (8 * s.firstSize)

	return req
}

// Complete consumes the response of the current half. It returns true with
// the assembled read value once the whole access is done.
func (s *UnalignedSplitter) Complete(rsp DataResponse) (
	done bool,
	rdata uint32,
	isErr bool,
) {
	if !s.active {
		log.Panic("no access in progress")
	}

	s.err = s.err || rsp.Error

	if s.state == SplitIdle {
		offset := s.addr % 4
		s.firstData = (rsp.RData >> (8 * offset)) & ByteMask(lowMask(s.firstSize))

		if s.firstSize == s.size {
			s.active = false
			return true, s.firstData, s.err
		}

		s.state = SplitAwaitSecondHalf

		return false, 0, false
	}

	second := rsp.RData & ByteMask(lowMask(s.size-s.firstSize))
	s.state = SplitIdle
	s.active = false

	return true, s.firstData | second<<(8*s.firstSize), s.err
}

func lowMask(n int) uint8 {
	return uint8(1<<n) - 1
}
