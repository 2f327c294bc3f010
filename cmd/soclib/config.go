package main

import (
	"fmt"

	"github.com/sarchlab/soclib/mem/memcache"
)

type config struct {
	workload    string
	agents      int
	ops         int
	seed        int64
	sharedLines int

	sets         int
	ways         int
	wordsPerLine int
	copiesLimit  int
	trtDepth     int
	uptDepth     int
	agentLines   int
	xramLatency  int
	victim       string

	trace       bool
	traceFile   string
	logEvents   bool
	monitor     bool
	monitorPort int
	openBrowser bool
	profileDir  string
}

func defaultConfig() config {
	return config{
		workload:     "random",
		agents:       4,
		ops:          1000,
		seed:         1,
		sharedLines:  8,
		sets:         16,
		ways:         4,
		wordsPerLine: 16,
		copiesLimit:  3,
		trtDepth:     4,
		uptDepth:     4,
		agentLines:   4,
		xramLatency:  20,
		victim:       "rr",
	}
}

// applyEnv overrides the defaults with SOCLIB_ variables.
func (c *config) applyEnv() {
	c.workload = envString("SOCLIB_WORKLOAD", c.workload)
	c.agents = envInt("SOCLIB_AGENTS", c.agents)
	c.ops = envInt("SOCLIB_OPS", c.ops)
	c.seed = int64(envInt("SOCLIB_SEED", int(c.seed)))
	c.sharedLines = envInt("SOCLIB_SHARED_LINES", c.sharedLines)
	c.sets = envInt("SOCLIB_SETS", c.sets)
	c.ways = envInt("SOCLIB_WAYS", c.ways)
	c.wordsPerLine = envInt("SOCLIB_WORDS_PER_LINE", c.wordsPerLine)
	c.copiesLimit = envInt("SOCLIB_COPIES_LIMIT", c.copiesLimit)
	c.trtDepth = envInt("SOCLIB_TRT_DEPTH", c.trtDepth)
	c.uptDepth = envInt("SOCLIB_UPT_DEPTH", c.uptDepth)
	c.agentLines = envInt("SOCLIB_AGENT_LINES", c.agentLines)
	c.xramLatency = envInt("SOCLIB_XRAM_LATENCY", c.xramLatency)
	c.victim = envString("SOCLIB_VICTIM", c.victim)
	c.trace = envBool("SOCLIB_TRACE", c.trace)
	c.traceFile = envString("SOCLIB_TRACE_FILE", c.traceFile)
	c.logEvents = envBool("SOCLIB_LOG_EVENTS", c.logEvents)
	c.monitor = envBool("SOCLIB_MONITOR", c.monitor)
	c.monitorPort = envInt("SOCLIB_MONITOR_PORT", c.monitorPort)
	c.openBrowser = envBool("SOCLIB_OPEN_BROWSER", c.openBrowser)
	c.profileDir = envString("SOCLIB_PROFILE_DIR", c.profileDir)
}

func (c config) validate() error {
	switch c.workload {
	case "random", "counter":
	default:
		return fmt.Errorf("unknown workload %q", c.workload)
	}

	if _, err := c.victimPolicy(); err != nil {
		return err
	}

	if c.agents < 1 {
		return fmt.Errorf("need at least one agent, got %d", c.agents)
	}

	if c.ops < 1 {
		return fmt.Errorf("need at least one operation, got %d", c.ops)
	}

	if c.sharedLines < 1 {
		return fmt.Errorf("need at least one shared line, got %d", c.sharedLines)
	}

	if c.wordsPerLine < 2 {
		return fmt.Errorf("need at least two words per line, got %d",
			c.wordsPerLine)
	}

	return nil
}

func (c config) victimPolicy() (memcache.VictimPolicy, error) {
	switch c.victim {
	case "rr":
		return memcache.VictimRoundRobin, nil
	case "lru":
		return memcache.VictimLRU, nil
	default:
		return 0, fmt.Errorf("unknown victim policy %q", c.victim)
	}
}
