package iss2

import "fmt"

// OpKind is the kind of a scripted operation.
type OpKind int

// Scripted operation kinds.
const (
	OpRead OpKind = iota
	OpWrite
	OpLL
	OpSC
	OpFetch
	OpXTNRead
	OpXTNWrite
)

func (k OpKind) String() string {
	names := []string{"Read", "Write", "LL", "SC", "Fetch", "XTNRead", "XTNWrite"}
	if int(k) < len(names) {
		return names[k]
	}

	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one step of a script. Size is the access size in bytes for reads and
// writes; zero means a full word. For extended accesses Addr is the opcode.
// Delay is the number of idle cycles before the operation is issued.
type Op struct {
	Kind  OpKind
	Addr  uint32
	Data  uint32
	Size  int
	Delay int
}

// Result records how an operation completed.
type Result struct {
	Op    Op
	RData uint32
	Error bool
	Cycle uint64
}

// ScriptedISS issues a fixed sequence of operations, one at a time, and
// records the responses.
type ScriptedISS struct {
	ops      []Op
	next     int
	delay    int
	cycle    uint64
	results  []Result
	splitter UnalignedSplitter
	Mode     ExecMode
}

// NewScriptedISS creates a simulator that runs the given operations.
func NewScriptedISS(ops ...Op) *ScriptedISS {
	s := &ScriptedISS{ops: ops, Mode: ModeUser}
	s.Reset()

	return s
}

// Reset restarts the script.
func (s *ScriptedISS) Reset() {
	s.next = 0
	s.cycle = 0
	s.results = nil
	s.splitter = UnalignedSplitter{}
	s.enterOp()
}

// Done tells if every operation has completed.
func (s *ScriptedISS) Done() bool {
	return s.next >= len(s.ops)
}

// Results returns the completed operations in order.
func (s *ScriptedISS) Results() []Result {
	return s.results
}

// GetRequests returns the request of the current operation.
func (s *ScriptedISS) GetRequests() (InstructionRequest, DataRequest) {
	if s.Done() || s.delay > 0 {
		return InstructionRequest{}, DataRequest{}
	}

	op := s.ops[s.next]

	switch op.Kind {
	case OpFetch:
		return InstructionRequest{Valid: true, Addr: op.Addr, Mode: s.Mode},
			DataRequest{}
	case OpRead, OpWrite:
		if usesSplitter(op) {
			return InstructionRequest{}, s.splitter.Request()
		}

		t := DataRead
		if op.Kind == OpWrite {
			t = DataWrite
		}

		return InstructionRequest{}, DataRequest{
			Valid: true, Addr: op.Addr, WData: op.Data, Type: t, BE: 0xf,
			Mode: s.Mode,
		}
	case OpLL, OpSC:
		t := DataLL
		if op.Kind == OpSC {
			t = DataSC
		}

		return InstructionRequest{}, DataRequest{
			Valid: true, Addr: op.Addr, WData: op.Data, Type: t, BE: 0xf,
			Mode: s.Mode,
		}
	case OpXTNRead, OpXTNWrite:
		t := XTNRead
		if op.Kind == OpXTNWrite {
			t = XTNWrite
		}

		return InstructionRequest{}, DataRequest{
			Valid: true, Addr: XTNAddress(op.Addr), WData: op.Data, Type: t,
			BE: 0xf, Mode: ModeKernel,
		}
	}

	return InstructionRequest{}, DataRequest{}
}

// ExecuteNCycles consumes the responses for the current operation.
func (s *ScriptedISS) ExecuteNCycles(
	n uint32,
	irsp InstructionResponse,
	drsp DataResponse,
	_ uint32,
) uint32 {
	s.cycle += uint64(n)

	if s.Done() {
		return n
	}

	if s.delay > 0 {
		s.delay -= int(n)
		if s.delay < 0 {
			s.delay = 0
		}

		return n
	}

	op := s.ops[s.next]

	if op.Kind == OpFetch {
		if irsp.Valid {
			s.finish(op, irsp.Instruction, irsp.Error)
		}

		return n
	}

	if !drsp.Valid {
		return n
	}

	if usesSplitter(op) {
		done, rdata, isErr := s.splitter.Complete(drsp)
		if done {
			s.finish(op, rdata, isErr)
		}

		return n
	}

	s.finish(op, drsp.RData, drsp.Error)

	return n
}

func (s *ScriptedISS) finish(op Op, rdata uint32, isErr bool) {
	s.results = append(s.results, Result{
		Op:    op,
		RData: rdata,
		Error: isErr,
		Cycle: s.cycle,
	})

	s.next++
	s.enterOp()
}

func (s *ScriptedISS) enterOp() {
	if s.Done() {
		return
	}

	op := s.ops[s.next]
	s.delay = op.Delay

	if usesSplitter(op) {
		size := op.Size
		if size == 0 {
			size = 4
		}

		s.splitter.Start(op.Addr, size, op.Kind == OpWrite, op.Data, s.Mode)
	}
}

func usesSplitter(op Op) bool {
	if op.Kind != OpRead && op.Kind != OpWrite {
		return false
	}

	return (op.Size != 0 && op.Size != 4) || op.Addr%4 != 0
}
