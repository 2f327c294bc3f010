package memcache

import (
	"log"

	"github.com/sarchlab/soclib/mem/memcache/internal/arbiter"
	"github.com/sarchlab/soclib/mem/memcache/internal/atomictab"
	"github.com/sarchlab/soclib/mem/memcache/internal/copyset"
	"github.com/sarchlab/soclib/mem/memcache/internal/datastore"
	"github.com/sarchlab/soclib/mem/memcache/internal/directory"
	"github.com/sarchlab/soclib/mem/memcache/internal/trt"
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/sim"
)

// VictimPolicy selects how the directory picks the line to replace.
type VictimPolicy int

// Victim policies.
const (
	VictimRoundRobin VictimPolicy = iota
	VictimLRU
)

// A Builder can build memory caches.
type Builder struct {
	engine           sim.Engine
	freq             sim.Freq
	numSets          int
	numWays          int
	wordsPerLine     int
	copiesLimit      int
	trtDepth         int
	uptDepth         int
	fifoDepth        int
	numRequesters    int
	portBufSize      int
	xramPort         sim.RemotePort
	coherenceTargets []sim.RemotePort
	errorPolicy      ProtocolErrorPolicy
	victimPolicy     VictimPolicy
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:          1 * sim.GHz,
		numSets:       64,
		numWays:       4,
		wordsPerLine:  8,
		copiesLimit:   4,
		trtDepth:      4,
		uptDepth:      4,
		fifoDepth:     4,
		numRequesters: 4,
		portBufSize:   16,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNumSets sets the number of sets.
func (b Builder) WithNumSets(n int) Builder {
	b.numSets = n
	return b
}

// WithNumWays sets the associativity.
func (b Builder) WithNumWays(n int) Builder {
	b.numWays = n
	return b
}

// WithWordsPerLine sets the number of 32-bit words in a line.
func (b Builder) WithWordsPerLine(n int) Builder {
	b.wordsPerLine = n
	return b
}

// WithCopiesLimit sets the number of sharers a line can track individually
// before it falls back to counter mode.
func (b Builder) WithCopiesLimit(n int) Builder {
	b.copiesLimit = n
	return b
}

// WithTRTDepth sets the number of transaction table entries.
func (b Builder) WithTRTDepth(n int) Builder {
	b.trtDepth = n
	return b
}

// WithUPTDepth sets the number of update table entries.
func (b Builder) WithUPTDepth(n int) Builder {
	b.uptDepth = n
	return b
}

// WithFIFODepth sets the depth of the read, write and LL/SC request FIFOs.
func (b Builder) WithFIFODepth(n int) Builder {
	b.fifoDepth = n
	return b
}

// WithNumRequesters sets the number of processors that can send requests.
func (b Builder) WithNumRequesters(n int) Builder {
	b.numRequesters = n
	return b
}

// WithPortBufSize sets the size of the port buffers.
func (b Builder) WithPortBufSize(n int) Builder {
	b.portBufSize = n
	return b
}

// WithXRAMPort sets the destination of the external memory requests.
func (b Builder) WithXRAMPort(p sim.RemotePort) Builder {
	b.xramPort = p
	return b
}

// WithCoherenceTargets sets the port that receives the coherence commands of
// each requester, indexed by requester ID.
func (b Builder) WithCoherenceTargets(ports []sim.RemotePort) Builder {
	b.coherenceTargets = ports
	return b
}

// WithProtocolErrorPolicy sets what happens on a protocol error.
func (b Builder) WithProtocolErrorPolicy(p ProtocolErrorPolicy) Builder {
	b.errorPolicy = p
	return b
}

// WithVictimPolicy sets the replacement policy.
func (b Builder) WithVictimPolicy(p VictimPolicy) Builder {
	b.victimPolicy = p
	return b
}

func (b Builder) mustBeValid() {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if b.numRequesters <= 0 || 2*b.numRequesters > copyset.MaxMembers {
		log.Panicf("number of requesters must be in [1, %d], got %d",
			copyset.MaxMembers/2, b.numRequesters)
	}

	if b.copiesLimit <= 0 {
		log.Panicf("copies limit must be positive, got %d", b.copiesLimit)
	}

	if len(b.coherenceTargets) > b.numRequesters {
		log.Panicf("%d coherence targets for %d requesters",
			len(b.coherenceTargets), b.numRequesters)
	}
}

// Build creates a memory cache.
func (b Builder) Build(name string) *Comp {
	b.mustBeValid()

	c := &Comp{
		numRequesters: b.numRequesters,
		copiesLimit:   b.copiesLimit,
		errorPolicy:   b.errorPolicy,
		xramPort:      b.xramPort,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.coherenceTargets = make([]sim.RemotePort, b.numRequesters)
	copy(c.coherenceTargets, b.coherenceTargets)

	var vf directory.VictimFinder
	switch b.victimPolicy {
	case VictimLRU:
		vf = directory.NewLRUVictimFinder(b.numSets, b.numWays)
	default:
		vf = directory.NewRoundRobinVictimFinder(b.numSets)
	}

	c.dir = directory.New(b.numSets, b.numWays, b.wordsPerLine, vf)
	c.store = datastore.New(b.numSets, b.numWays, b.wordsPerLine)
	c.trt = trt.New(b.trtDepth, b.wordsPerLine)
	c.upt = upt.New(b.uptDepth)
	c.atomic = atomictab.New(b.numRequesters, c.dir.LineBytes())
	c.rspOK = make([]bool, b.trtDepth)

	c.dirArb = arbiter.New(
		fsmRead, fsmWrite, fsmLLSC, fsmCleanup, fsmXRAMRsp, fsmInitRsp)
	c.trtArb = arbiter.New(
		fsmRead, fsmWrite, fsmLLSC, fsmXRAMRsp, fsmIXRRsp)
	c.uptArb = arbiter.New(
		fsmWrite, fsmLLSC, fsmXRAMRsp, fsmInitRsp, fsmCleanup)
	c.xramCmdArb = arbiter.New(fsmRead, fsmWrite, fsmLLSC, fsmXRAMRsp)
	c.initCmdArb = arbiter.New(fsmWrite, fsmXRAMRsp, fsmLLSC)
	c.tgtRspArb = arbiter.New(
		fsmRead, fsmWrite, fsmLLSC, fsmCleanup, fsmInitRsp, fsmXRAMRsp)

	c.readFIFO = sim.NewBuffer(name+".ReadFIFO", b.fifoDepth)
	c.writeFIFO = sim.NewBuffer(name+".WriteFIFO", b.fifoDepth)
	c.llscFIFO = sim.NewBuffer(name+".LLSCFIFO", b.fifoDepth)

	c.topPort = sim.NewPort(c, b.portBufSize, b.portBufSize, name+".Top")
	c.cleanupPort = sim.NewPort(
		c, b.portBufSize, b.portBufSize, name+".Cleanup")
	c.bottomPort = sim.NewPort(c, b.portBufSize, b.portBufSize, name+".Bottom")
	c.coherencePort = sim.NewPort(
		c, b.portBufSize, b.portBufSize, name+".Coherence")
	c.AddPort("Top", c.topPort)
	c.AddPort("Cleanup", c.cleanupPort)
	c.AddPort("Bottom", c.bottomPort)
	c.AddPort("Coherence", c.coherencePort)

	c.fsms[fsmTgtCmd] = &tgtCmdFSM{c: c}
	c.fsms[fsmRead] = &readFSM{c: c}
	c.fsms[fsmWrite] = &writeFSM{c: c}
	c.fsms[fsmLLSC] = &llscFSM{c: c}
	c.fsms[fsmCleanup] = &cleanupFSM{c: c}
	c.fsms[fsmXRAMCmd] = &xramCmdFSM{c: c}
	c.fsms[fsmIXRRsp] = &ixrRspFSM{c: c}
	c.fsms[fsmXRAMRsp] = &xramRspFSM{c: c}
	c.fsms[fsmInitCmd] = &initCmdFSM{c: c}
	c.fsms[fsmInitRsp] = &initRspFSM{c: c}
	c.fsms[fsmTgtRsp] = &tgtRspFSM{c: c}

	return c
}
