package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var cfg = defaultConfig()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soclib",
	Short: "Simulate processors sharing a coherent memory cache.",
	Long: `soclib builds a platform made of one memory cache, one external ` +
		`memory and a coherent agent per processor, then runs a workload ` +
		`and checks that the caches stay coherent. Defaults can be given ` +
		`in a .env file with SOCLIB_ prefixed variables.`,
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(cfg)
	},
}

func init() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg.applyEnv()

	f := rootCmd.Flags()
	f.StringVar(&cfg.workload, "workload", cfg.workload,
		"traffic to run, `random` or `counter`")
	f.IntVar(&cfg.agents, "agents", cfg.agents, "number of processors")
	f.IntVar(&cfg.ops, "ops", cfg.ops, "operations per processor")
	f.Int64Var(&cfg.seed, "seed", cfg.seed, "seed of the random traffic")
	f.IntVar(&cfg.sharedLines, "shared-lines", cfg.sharedLines,
		"number of lines the random traffic touches")
	f.IntVar(&cfg.sets, "sets", cfg.sets, "number of sets of the memory cache")
	f.IntVar(&cfg.ways, "ways", cfg.ways, "number of ways of the memory cache")
	f.IntVar(&cfg.wordsPerLine, "words-per-line", cfg.wordsPerLine,
		"words in a cache line")
	f.IntVar(&cfg.copiesLimit, "copies-limit", cfg.copiesLimit,
		"sharers tracked one by one before counter mode")
	f.IntVar(&cfg.trtDepth, "trt-depth", cfg.trtDepth,
		"entries of the transaction table")
	f.IntVar(&cfg.uptDepth, "upt-depth", cfg.uptDepth,
		"entries of the update table")
	f.IntVar(&cfg.agentLines, "agent-lines", cfg.agentLines,
		"lines held by each processor cache")
	f.IntVar(&cfg.xramLatency, "xram-latency", cfg.xramLatency,
		"cycles of the external memory")
	f.StringVar(&cfg.victim, "victim", cfg.victim,
		"replacement policy, `rr` or `lru`")
	f.BoolVar(&cfg.trace, "trace", cfg.trace,
		"record the memory cache transactions into a SQLite file")
	f.StringVar(&cfg.traceFile, "trace-file", cfg.traceFile,
		"name of the trace file, without extension")
	f.BoolVar(&cfg.logEvents, "log-events", cfg.logEvents,
		"print every simulated event")
	f.BoolVar(&cfg.monitor, "monitor", cfg.monitor,
		"serve the monitoring page while the simulation runs")
	f.IntVar(&cfg.monitorPort, "monitor-port", cfg.monitorPort,
		"port of the monitoring server, 0 for a random one")
	f.BoolVar(&cfg.openBrowser, "open-browser", cfg.openBrowser,
		"open the monitoring page in a browser")
	f.StringVar(&cfg.profileDir, "profile-dir", cfg.profileDir,
		"write a CPU profile of the simulator into this directory")
}

// Execute runs the root command and exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func envInt(name string, def int) int {
	s, ok := os.LookupEnv(name)
	if !ok {
		return def
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", name, s, err)
		return def
	}

	return v
}

func envBool(name string, def bool) bool {
	s, ok := os.LookupEnv(name)
	if !ok {
		return def
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", name, s, err)
		return def
	}

	return v
}

func envString(name string, def string) string {
	if s, ok := os.LookupEnv(name); ok {
		return s
	}

	return def
}
