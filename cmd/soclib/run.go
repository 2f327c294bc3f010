package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/profile"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/soclib/monitoring"
	"github.com/sarchlab/soclib/sim"
	"github.com/sarchlab/soclib/tracing"
)

// progressHook moves the progress bar as processors finish.
type progressHook struct {
	p        *platform
	bar      *monitoring.ProgressBar
	reported int
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	done := h.p.numDone()
	if done > h.reported {
		h.bar.MoveInProgressToFinished(uint64(done - h.reported))
		h.reported = done
	}
}

func run(c config) error {
	p, err := buildPlatform(c)
	if err != nil {
		return err
	}

	if c.profileDir != "" {
		prof := profile.Start(
			profile.CPUProfile,
			profile.ProfilePath(c.profileDir),
			profile.NoShutdownHook,
		)
		atexit.Register(prof.Stop)
	}

	if c.logEvents {
		p.engine.AcceptHook(sim.NewEventLogger(log.New(os.Stderr, "", 0)))
	}

	if c.trace {
		tracer := tracing.NewSQLiteTracer(p.engine, c.traceFile)
		if err := tracer.Init(); err != nil {
			return err
		}

		tracing.CollectTrace(p.mc, tracer)
		fmt.Fprintf(os.Stderr, "Tracing into %s\n", tracer.FileName())
	}

	if c.monitor {
		attachMonitor(p, c)
	}

	for _, agent := range p.agents {
		agent.TickLater()
	}

	if err := p.engine.Run(); err != nil {
		return err
	}

	p.engine.Finished()

	if err := p.check(c); err != nil {
		return err
	}

	report(p, c)

	return nil
}

func attachMonitor(p *platform, c config) {
	m := monitoring.NewMonitor().
		WithPortNumber(c.monitorPort).
		WithBrowser(c.openBrowser)
	m.RegisterEngine(p.engine)

	for _, comp := range p.components() {
		m.RegisterComponent(comp)
	}

	bar := m.CreateProgressBar("Processors", uint64(len(p.agents)))
	bar.IncrementInProgress(uint64(len(p.agents)))
	p.engine.AcceptHook(&progressHook{p: p, bar: bar})

	m.StartServer()
}

func report(p *platform, c config) {
	fmt.Printf("Simulated %.9f s\n", float64(p.engine.CurrentTime()))
	fmt.Printf("External memory: %d reads, %d writes\n",
		p.mem.NumReads(), p.mem.NumWrites())

	for _, agent := range p.agents {
		invals, updates := agent.NumCoherenceCommands()
		fmt.Printf("%s: %d invalidations, %d updates\n",
			agent.Name(), invals, updates)
	}

	switch c.workload {
	case "counter":
		failures := 0
		for _, s := range p.counters {
			failures += s.SCFailures()
		}

		fmt.Printf("Counter: %d, failed SC: %d\n", p.word(counterAddr), failures)
	default:
		total := 0
		for _, s := range p.randoms {
			st := s.Stats()
			total += st.Errors
			fmt.Printf("reads %d writes %d LL %d SC %d (%d succeeded)\n",
				st.Reads, st.Writes, st.LLs, st.SCs, st.SCSucceeded)
		}

		fmt.Printf("Errors: %d\n", total)
	}
}
