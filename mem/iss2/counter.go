package iss2

// CounterISS atomically increments a shared word a fixed number of times with
// LL/SC loops. A failed SC restarts the loop with a new LL.
type CounterISS struct {
	addr  uint32
	total int

	remaining int
	sc        bool
	loaded    uint32
	failures  int
}

// NewCounterISS creates a simulator that adds n to the word at addr.
func NewCounterISS(addr uint32, n int) *CounterISS {
	s := &CounterISS{addr: addr, total: n}
	s.Reset()

	return s
}

// Reset restarts the increments.
func (s *CounterISS) Reset() {
	s.remaining = s.total
	s.sc = false
	s.failures = 0
}

// Done tells if every increment has been committed.
func (s *CounterISS) Done() bool {
	return s.remaining == 0
}

// SCFailures returns how many store-conditionals failed.
func (s *CounterISS) SCFailures() int {
	return s.failures
}

// GetRequests returns the LL or SC of the current loop.
func (s *CounterISS) GetRequests() (InstructionRequest, DataRequest) {
	if s.Done() {
		return InstructionRequest{}, DataRequest{}
	}

	req := DataRequest{Valid: true, Addr: s.addr, BE: 0xf, Type: DataLL}
	if s.sc {
		req.Type = DataSC
		req.WData = s.loaded + 1
	}

	return InstructionRequest{}, req
}

// ExecuteNCycles consumes the data response, if any.
func (s *CounterISS) ExecuteNCycles(
	n uint32,
	_ InstructionResponse,
	drsp DataResponse,
	_ uint32,
) uint32 {
	if s.Done() || !drsp.Valid {
		return n
	}

	if !s.sc {
		s.loaded = drsp.RData
		s.sc = true

		return n
	}

	s.sc = false
	if drsp.RData == SCSuccess {
		s.remaining--
	} else {
		s.failures++
	}

	return n
}
