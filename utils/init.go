package utils

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

type options struct {
	maxSteps    uint
	maxRuns     uint
	parallel    uint
	oracle      string
	values      string
	scenarios   string
	output      string
	format      string
	task        string
	noColorize  bool
	verbose     bool
	traceSteps  bool
	showWitness bool
}

const (
	_RUN = iota
	_EXPLORE
	_REPLAY
	_VISUALIZE
)

// CanColorize wraps a colour function so that it degrades to plain
// formatting when colours are disabled.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%v", len(is)), is...)
		}
	}
	return col
}

var task = []struct{ flag, explanation string }{{
	"run",
	"Run the scenario once on goroutines; exits non-zero if a check fails",
}, {
	"explore",
	"Run the scenario under every schedule of the deterministic scheduler and report per-site verdicts",
}, {
	"replay",
	"Replay the named schedules of a scenario file and compare them with their expectations",
}, {
	"visualize",
	"Render the explored state graph",
}}

var opts = &options{}

type optInterface struct{}

type taskInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}
func (optInterface) MaxSteps() int {
	return int(opts.maxSteps)
}
func (optInterface) MaxRuns() int {
	return int(opts.maxRuns)
}
func (optInterface) Parallel() int {
	return int(opts.parallel)
}
func (optInterface) Values() string {
	return opts.values
}
func (optInterface) Scenarios() string {
	return opts.scenarios
}
func (optInterface) Output() string {
	return opts.output
}
func (optInterface) OutputFormat() string {
	return opts.format
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) ShowWitness() bool {
	return opts.showWitness
}

// Oracle returns the oracle description. An empty -oracle flag
// means a random oracle seeded from the clock.
func (optInterface) Oracle() string {
	if opts.oracle == "" {
		return fmt.Sprintf("random:%d", time.Now().UnixNano())
	}
	return opts.oracle
}

func (optInterface) Task() taskInterface {
	return taskInterface{}
}
func (taskInterface) IsRun() bool {
	return opts.task == task[_RUN].flag
}
func (taskInterface) IsExplore() bool {
	return opts.task == task[_EXPLORE].flag
}
func (taskInterface) IsReplay() bool {
	return opts.task == task[_REPLAY].flag
}
func (taskInterface) IsVisualize() bool {
	return opts.task == task[_VISUALIZE].flag
}

func init() {
	taskFlag := "\n"
	for _, task := range task {
		taskFlag += task.flag + " -- " + task.explanation + "\n"
	}
	taskFlag += "\n"

	flag.StringVar(&(opts.task), "task", task[_RUN].flag, "Set the task to do during execution. Options:"+taskFlag)
	flag.StringVar(&(opts.oracle), "oracle", "", "Oracle used by the run task [fixed:N | seq:N,M,... | random:SEED | adversarial].\n"+
		"Defaults to a random oracle seeded from the clock.")
	flag.StringVar(&(opts.values), "values", "1,2,7", "Comma separated oracle values to explore exhaustively")
	flag.StringVar(&(opts.scenarios), "scenarios", "explore/testdata/scenarios.yaml", "Scenario file used by the replay task")
	flag.StringVar(&(opts.output), "o", "", "Output file name without extension for the visualize task (defaults to a temporary file)")
	flag.StringVar(&(opts.format), "format", "svg", "output file format [svg | png | jpg | dot]")
	flag.UintVar(&(opts.maxSteps), "max-steps", 10000, "Upper bound on scheduled events per run")
	flag.UintVar(&(opts.maxRuns), "max-runs", 100000, "Upper bound on explored schedules per oracle value")
	flag.UintVar(&(opts.parallel), "parallel", 4, "Number of oracle values explored concurrently")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.traceSteps), "trace-steps", false, "log every scheduled event")
	flag.BoolVar(&(opts.showWitness), "witness", false, "Print the full trace of every witness schedule")

	// Set up logging
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	flag.Parse()

	validTask := false
	for _, task := range task {
		if task.flag == opts.task {
			validTask = true
			break
		}
	}

	if !validTask {
		log.Fatalf("Value \"%s\" is not valid for -task", opts.task)
	}

	switch {
	case opts.traceSteps:
		log.SetLevel(log.TraceLevel)
	case opts.verbose:
		log.SetLevel(log.DebugLevel)
	}

	if opts.noColorize {
		color.NoColor = true
		log.SetFormatter(&log.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	}
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}
