package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cs-au-dk/tracesmin/oracle"
	"github.com/cs-au-dk/tracesmin/scenario"
	"github.com/cs-au-dk/tracesmin/utils"

	log "github.com/sirupsen/logrus"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

func main() {
	utils.ParseArgs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case task.IsRun():
		runNative()
	case task.IsExplore(), task.IsVisualize():
		pl, err := makePipeline()
		if err != nil {
			log.Fatalln("Invalid configuration:", err)
		}
		pl.secondaryTask(ctx)
	case task.IsReplay():
		failed, err := replayAll(opts.Scenarios(), os.Stdout)
		if err != nil {
			log.Fatalln("Replay failed:", err)
		}
		if failed > 0 {
			log.Fatalf("%d scenarios did not meet their expectation", failed)
		}
	}
}

// runNative runs the scenario once on goroutines. A failed check exits
// the process with a non-zero status before runNative returns.
func runNative() {
	o, err := oracle.Parse(opts.Oracle())
	if err != nil {
		log.Fatalln(err)
	}

	sc := scenario.New(scenario.Native{}, o)
	sc.Main()

	log.WithField("oracle", o).Info(utils.Colorize.Good("All checks passed"))
}
