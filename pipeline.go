package main

import (
	"context"
	"fmt"

	"github.com/cs-au-dk/tracesmin/explore"
	"github.com/cs-au-dk/tracesmin/oracle"
	"github.com/cs-au-dk/tracesmin/sched"

	log "github.com/sirupsen/logrus"
)

// pipeline is a wrapper around the exploration pipeline.
type pipeline struct {
	cfg explore.Config
}

func makePipeline() (pipeline, error) {
	values, err := oracle.ParseValues(opts.Values())
	if err != nil {
		return pipeline{}, fmt.Errorf("-values: %w", err)
	}

	cfg := explore.Config{
		Values:   values,
		MaxSteps: opts.MaxSteps(),
		MaxRuns:  opts.MaxRuns(),
		Parallel: opts.Parallel(),
	}
	opts.OnVerbose(func() {
		cfg.OnRun = func(x int64, res sched.Result) {
			log.WithField("value", x).Debugf("%v: %s", res.Script(), res)
		}
	})
	return pipeline{cfg}, nil
}

// explore runs every schedule for the configured values.
func (p pipeline) explore(ctx context.Context) *explore.Report {
	log.WithField("values", p.cfg.Values).Info("Exploring schedules...")
	report, err := explore.Explore(ctx, p.cfg)
	if err != nil {
		log.Fatalln("Exploration failed:", err)
	}
	log.Println("Exploration done")
	fmt.Println()

	return report
}
