package ccagent

import (
	"log"

	"github.com/sarchlab/soclib/mem/iss2"
	"github.com/sarchlab/soclib/sim"
)

// A Builder can build agents.
type Builder struct {
	engine       sim.Engine
	freq         sim.Freq
	srcID        int
	wordsPerLine int
	numLines     int
	bufSize      int
	iss          iss2.InstructionSetSimulator
	memPort      sim.RemotePort
	cleanupPort  sim.RemotePort
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		wordsPerLine: 8,
		numLines:     4,
		bufSize:      4,
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

// WithSrcID sets the requester identifier used in every request.
func (b Builder) WithSrcID(id int) Builder {
	b.srcID = id
	return b
}

// WithWordsPerLine sets the line size. It must match the memory cache.
func (b Builder) WithWordsPerLine(n int) Builder {
	b.wordsPerLine = n
	return b
}

// WithNumLines sets the capacity of each private cache, in lines.
func (b Builder) WithNumLines(n int) Builder {
	b.numLines = n
	return b
}

// WithBufSize sets the size of the port buffers.
func (b Builder) WithBufSize(n int) Builder {
	b.bufSize = n
	return b
}

// WithISS sets the processor model that drives the agent.
func (b Builder) WithISS(iss iss2.InstructionSetSimulator) Builder {
	b.iss = iss
	return b
}

// WithMemPort sets the memory cache port that serves the requests.
func (b Builder) WithMemPort(p sim.RemotePort) Builder {
	b.memPort = p
	return b
}

// WithCleanupPort sets the memory cache port that receives the cleanups.
func (b Builder) WithCleanupPort(p sim.RemotePort) Builder {
	b.cleanupPort = p
	return b
}

// Build creates an agent.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if b.iss == nil {
		log.Panic("instruction set simulator is not set")
	}

	if b.numLines <= 0 {
		log.Panicf("cache capacity must be positive, got %d", b.numLines)
	}

	c := &Comp{
		srcID:        b.srcID,
		iss:          b.iss,
		wordsPerLine: b.wordsPerLine,
		memPort:      b.memPort,
		cleanupDst:   b.cleanupPort,
		dcache:       newLineCache(b.numLines),
		icache:       newLineCache(b.numLines),
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.toMem = sim.NewPort(c, b.bufSize, b.bufSize, name+".ToMem")
	c.cleanup = sim.NewPort(c, b.bufSize, b.bufSize, name+".Cleanup")
	c.coherence = sim.NewPort(c, b.bufSize, b.bufSize, name+".Coherence")
	c.AddPort("ToMem", c.toMem)
	c.AddPort("Cleanup", c.cleanup)
	c.AddPort("Coherence", c.coherence)

	return c
}
