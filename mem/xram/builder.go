package xram

import (
	"log"

	"github.com/sarchlab/soclib/sim"
)

// A Builder can build external memories.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	latency    int
	width      int
	topBufSize int
	storage    *Storage
	errRanges  []AddrRange
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:       1 * sim.GHz,
		latency:    100,
		width:      1,
		topBufSize: 16,
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

// WithLatency sets the number of cycles between a request and its response.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithWidth sets the number of requests accepted per cycle.
func (b Builder) WithWidth(width int) Builder {
	b.width = width
	return b
}

// WithTopBufSize sets the size of the port buffers.
func (b Builder) WithTopBufSize(n int) Builder {
	b.topBufSize = n
	return b
}

// WithStorage shares an existing storage.
func (b Builder) WithStorage(storage *Storage) Builder {
	b.storage = storage
	return b
}

// WithBusErrorRange makes every access overlapping [lo, hi) fail.
func (b Builder) WithBusErrorRange(lo, hi uint64) Builder {
	b.errRanges = append(append([]AddrRange(nil), b.errRanges...),
		AddrRange{Lo: lo, Hi: hi})
	return b
}

// Build creates an external memory.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if b.latency < 1 {
		log.Panicf("latency must be at least one cycle, got %d", b.latency)
	}

	c := &Comp{
		Latency:        b.latency,
		width:          b.width,
		BusErrorRanges: b.errRanges,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.Storage = b.storage
	if c.Storage == nil {
		c.Storage = NewStorage()
	}

	c.topPort = sim.NewPort(c, b.topBufSize, b.topBufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)

	return c
}
