package main

import (
	"fmt"

	"github.com/sarchlab/soclib/mem/ccagent"
	"github.com/sarchlab/soclib/mem/iss2"
	"github.com/sarchlab/soclib/mem/memcache"
	"github.com/sarchlab/soclib/mem/xram"
	"github.com/sarchlab/soclib/sim"
)

const counterAddr = 0x40

type platform struct {
	engine *sim.SerialEngine
	mc     *memcache.Comp
	mem    *xram.Comp
	agents []*ccagent.Comp

	randoms  []*iss2.RandomISS
	counters []*iss2.CounterISS
	addrs    []uint32
}

// sharedAddrs returns the first two words of each shared line.
func sharedAddrs(c config) []uint32 {
	lineBytes := uint32(c.wordsPerLine * 4)
	addrs := make([]uint32, 0, 2*c.sharedLines)

	for line := uint32(0); line < uint32(c.sharedLines); line++ {
		addrs = append(addrs, line*lineBytes, line*lineBytes+4)
	}

	return addrs
}

func (p *platform) buildISSes(c config) []iss2.InstructionSetSimulator {
	isses := make([]iss2.InstructionSetSimulator, c.agents)

	for i := range isses {
		switch c.workload {
		case "counter":
			s := iss2.NewCounterISS(counterAddr, c.ops)
			p.counters = append(p.counters, s)
			isses[i] = s
		default:
			s := iss2.NewRandomISS(c.seed+int64(i), c.ops, p.addrs, uint32(i+1))
			p.randoms = append(p.randoms, s)
			isses[i] = s
		}
	}

	return isses
}

func buildPlatform(c config) (*platform, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	victim, _ := c.victimPolicy()

	engine := sim.NewSerialEngine()
	p := &platform{engine: engine, addrs: sharedAddrs(c)}
	isses := p.buildISSes(c)

	p.mem = xram.MakeBuilder().
		WithEngine(engine).
		WithLatency(c.xramLatency).
		Build("XRAM")

	targets := make([]sim.RemotePort, len(isses))
	for i, iss := range isses {
		agent := ccagent.MakeBuilder().
			WithEngine(engine).
			WithSrcID(i).
			WithWordsPerLine(c.wordsPerLine).
			WithNumLines(c.agentLines).
			WithISS(iss).
			Build(fmt.Sprintf("Agent%d", i))
		p.agents = append(p.agents, agent)
		targets[i] = agent.CoherencePort().AsRemote()
	}

	p.mc = memcache.MakeBuilder().
		WithEngine(engine).
		WithNumSets(c.sets).
		WithNumWays(c.ways).
		WithWordsPerLine(c.wordsPerLine).
		WithCopiesLimit(c.copiesLimit).
		WithTRTDepth(c.trtDepth).
		WithUPTDepth(c.uptDepth).
		WithVictimPolicy(victim).
		WithNumRequesters(len(isses)).
		WithXRAMPort(p.mem.TopPort().AsRemote()).
		WithCoherenceTargets(targets).
		Build("MemCache")

	conn := sim.NewDirectConnection("Conn", engine, 1*sim.GHz)
	conn.PlugIn(p.mem.TopPort())
	conn.PlugIn(p.mc.TopPort())
	conn.PlugIn(p.mc.CleanupPort())
	conn.PlugIn(p.mc.BottomPort())
	conn.PlugIn(p.mc.CoherencePort())

	for _, agent := range p.agents {
		agent.SetMemPort(p.mc.TopPort().AsRemote())
		agent.SetCleanupPort(p.mc.CleanupPort().AsRemote())
		conn.PlugIn(agent.ToMemPort())
		conn.PlugIn(agent.CleanupPort())
		conn.PlugIn(agent.CoherencePort())
	}

	return p, nil
}

func (p *platform) components() []sim.Component {
	comps := []sim.Component{p.mc, p.mem}
	for _, a := range p.agents {
		comps = append(comps, a)
	}

	return comps
}

func (p *platform) numDone() int {
	n := 0

	for _, a := range p.agents {
		if a.Done() {
			n++
		}
	}

	return n
}

// word returns the current value of a word, from the cache if the line is
// there, else from the external memory.
func (p *platform) word(addr uint64) uint32 {
	if info, hit := p.mc.LineInfo(addr); hit {
		return info.Data[int(addr%p.mc.LineBytes())/4]
	}

	return p.mem.Storage.Read(addr)
}

// check verifies that the run ended cleanly and that every cached copy
// matches the memory cache.
func (p *platform) check(c config) error {
	if done := p.numDone(); done != len(p.agents) {
		return fmt.Errorf("%d of %d processors did not finish",
			len(p.agents)-done, len(p.agents))
	}

	if n := p.mc.NumPendingTransactions(); n != 0 {
		return fmt.Errorf("%d transactions still pending", n)
	}

	if n := p.mc.NumPendingCoherence(); n != 0 {
		return fmt.Errorf("%d coherence transactions still pending", n)
	}

	if err := p.mc.CheckDirectory(); err != nil {
		return err
	}

	for _, agent := range p.agents {
		for _, a := range p.addrs {
			w, held := agent.CachedWord(uint64(a))
			if !held {
				continue
			}

			if expected := p.word(uint64(a)); w != expected {
				return fmt.Errorf("%s holds 0x%x at 0x%x, the cache has 0x%x",
					agent.Name(), w, a, expected)
			}
		}
	}

	if c.workload == "counter" {
		expected := uint32(c.agents * c.ops)
		if got := p.word(counterAddr); got != expected {
			return fmt.Errorf("counter is %d, want %d", got, expected)
		}
	}

	return nil
}
