package iss2

import "math/rand"

// RandomStats counts what a RandomISS did.
type RandomStats struct {
	Reads, Writes, LLs, SCs int
	SCSucceeded            int
	Errors                 int
}

// RandomISS issues a reproducible random mix of reads, writes and LL/SC pairs
// over a pool of word addresses.
type RandomISS struct {
	seed  int64
	total int
	addrs []uint32
	tag   uint32

	rng       *rand.Rand
	remaining int
	cur       DataRequest
	lastLL    uint32
	haveLL    bool
	stats     RandomStats
}

// NewRandomISS creates a random traffic generator. The tag is mixed into the
// written values so that writers can be told apart.
func NewRandomISS(
	seed int64,
	numOps int,
	addrs []uint32,
	tag uint32,
) *RandomISS {
	s := &RandomISS{
		seed:  seed,
		total: numOps,
		addrs: addrs,
		tag:   tag,
	}
	s.Reset()

	return s
}

// Reset restarts the sequence from the seed.
func (s *RandomISS) Reset() {
	s.rng = rand.New(rand.NewSource(s.seed))
	s.remaining = s.total
	s.stats = RandomStats{}
	s.haveLL = false
	s.pick()
}

// Done tells if every operation has completed.
func (s *RandomISS) Done() bool {
	return s.remaining <= 0
}

// Stats returns the counters.
func (s *RandomISS) Stats() RandomStats {
	return s.stats
}

func (s *RandomISS) pick() {
	if s.Done() || len(s.addrs) == 0 {
		s.cur = DataRequest{}
		return
	}

	addr := s.addrs[s.rng.Intn(len(s.addrs))]
	req := DataRequest{Valid: true, Addr: addr, BE: 0xf, Mode: ModeUser}

	roll := s.rng.Intn(100)

	switch {
	case s.haveLL && roll < 80:
		req.Type = DataSC
		req.Addr = s.lastLL
		req.WData = s.tag<<16 | uint32(s.remaining)&0xffff
	case roll < 50:
		req.Type = DataRead
	case roll < 85:
		req.Type = DataWrite
		req.WData = s.tag<<16 | uint32(s.remaining)&0xffff
		req.BE = []uint8{0xf, 0x3, 0xc, 0x1}[s.rng.Intn(4)]
	default:
		req.Type = DataLL
	}

	s.cur = req
}

// GetRequests returns the current random request.
func (s *RandomISS) GetRequests() (InstructionRequest, DataRequest) {
	return InstructionRequest{}, s.cur
}

// ExecuteNCycles moves to the next request when the current one completes.
func (s *RandomISS) ExecuteNCycles(
	n uint32,
	_ InstructionResponse,
	drsp DataResponse,
	_ uint32,
) uint32 {
	if s.Done() || !drsp.Valid {
		return n
	}

	if drsp.Error {
		s.stats.Errors++
	}

	switch s.cur.Type {
	case DataRead:
		s.stats.Reads++
	case DataWrite:
		s.stats.Writes++
	case DataLL:
		s.stats.LLs++
		s.haveLL = true
		s.lastLL = s.cur.Addr
	case DataSC:
		s.stats.SCs++
		s.haveLL = false
		if drsp.RData == SCSuccess {
			s.stats.SCSucceeded++
		}
	}

	s.remaining--
	s.pick()

	return n
}
