package iss2

import "math/bits"

// EndianSwapper presents a big-endian processor as a little-endian one, and
// the other way around. Data words and byte enables are swapped on the way
// out; read data and instructions are swapped on the way back.
type EndianSwapper struct {
	InstructionSetSimulator
}

// NewEndianSwapper wraps the given simulator.
func NewEndianSwapper(inner InstructionSetSimulator) *EndianSwapper {
	return &EndianSwapper{InstructionSetSimulator: inner}
}

// GetRequests returns the requests of the wrapped simulator in the swapped
// byte order.
func (s *EndianSwapper) GetRequests() (InstructionRequest, DataRequest) {
	ireq, dreq := s.InstructionSetSimulator.GetRequests()

	if dreq.Valid && swapsData(dreq.Type) {
		dreq.WData = bits.ReverseBytes32(dreq.WData)
		dreq.BE = reverseBE(dreq.BE)
	}

	return ireq, dreq
}

// ExecuteNCycles swaps the responses before handing them to the wrapped
// simulator.
func (s *EndianSwapper) ExecuteNCycles(
	n uint32,
	irsp InstructionResponse,
	drsp DataResponse,
	irq uint32,
) uint32 {
	_, dreq := s.InstructionSetSimulator.GetRequests()

	if irsp.Valid {
		irsp.Instruction = bits.ReverseBytes32(irsp.Instruction)
	}

	if drsp.Valid && dreq.Valid && swapsData(dreq.Type) && dreq.Type != DataSC {
		drsp.RData = bits.ReverseBytes32(drsp.RData)
	}

	return s.InstructionSetSimulator.ExecuteNCycles(n, irsp, drsp, irq)
}

func swapsData(t DataOperationType) bool {
	switch t {
	case DataRead, DataWrite, DataLL, DataSC:
		return true
	}

	return false
}

func reverseBE(be uint8) uint8 {
	return bits.Reverse8(be) >> 4
}
