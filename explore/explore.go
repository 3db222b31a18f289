// Package explore enumerates the schedules of the scenario on the
// controlled runtime and summarises what every check site observed.
//
// Exploration is stateless: a schedule is identified by the threads picked
// at its choice points, and each one is obtained by re-running the scenario
// from scratch with a replayed prefix of choices.
package explore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/immutable"
	"github.com/cs-au-dk/tracesmin/oracle"
	"github.com/cs-au-dk/tracesmin/scenario"
	"github.com/cs-au-dk/tracesmin/sched"
	"github.com/cs-au-dk/tracesmin/utils"
	"github.com/cs-au-dk/tracesmin/utils/worklist"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// Values are the oracle values to explore. Each value is explored
	// exhaustively on its own.
	Values []int64
	// MaxSteps bounds every run. Zero means sched.DefaultMaxSteps.
	MaxSteps int
	// MaxRuns bounds the number of schedules per value. Zero means no bound.
	MaxRuns int
	// Parallel bounds the number of values explored at the same time.
	// Zero means all of them.
	Parallel int
	// OnRun, if set, is called after every run. Runs of different values
	// may call it concurrently.
	OnRun func(x int64, res sched.Result)
}

var ErrNoValues = errors.New("no oracle values to explore")

// Run executes the scenario once on a fresh controlled runtime and returns
// the result together with the checks performed, in execution order.
func Run(o oracle.Oracle, strategy sched.Strategy, maxSteps int) (sched.Result, []scenario.CheckResult) {
	rt := sched.New(strategy, sched.MaxSteps(maxSteps))
	sc := scenario.New(rt, o)

	var checks []scenario.CheckResult
	// Only one simulated thread runs at a time.
	sc.OnCheck = func(c scenario.CheckResult) {
		checks = append(checks, c)
	}

	res := rt.Run(sc.Main)
	return res, checks
}

// Explore runs every schedule of the scenario for every value in cfg.
func Explore(ctx context.Context, cfg Config) (*Report, error) {
	if len(cfg.Values) == 0 {
		return nil, ErrNoValues
	}
	defer utils.TimeTrack(time.Now(), "Exploration")

	parts := make([]*Report, len(cfg.Values))
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Parallel > 0 {
		g.SetLimit(cfg.Parallel)
	}
	for i, x := range cfg.Values {
		i, x := i, x
		g.Go(func() (err error) {
			parts[i], err = exploreValue(ctx, cfg, x)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := newReport()
	for _, part := range parts {
		report.merge(part)
	}
	return report, nil
}

type prefix = *immutable.List[sched.ThreadID]

func picks(p prefix) []sched.ThreadID {
	ids := make([]sched.ThreadID, 0, p.Len())
	for iter := p.Iterator(); !iter.Done(); {
		_, id := iter.Next()
		ids = append(ids, id)
	}
	return ids
}

func exploreValue(ctx context.Context, cfg Config, x int64) (*Report, error) {
	part := newReport()
	part.Values = []int64{x}
	part.Runs[x] = 0

	var err error
	worklist.Start(immutable.NewList[sched.ThreadID](), func(next prefix, add func(prefix)) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		if cfg.MaxRuns > 0 && part.Runs[x] >= cfg.MaxRuns {
			part.Truncated = true
			return false
		}

		res, checks := Run(oracle.Fixed(x), sched.Replay(picks(next)), cfg.MaxSteps)
		if res.Outcome == sched.OutcomeFault {
			err = fmt.Errorf("x=%d, schedule [%s]: %w", x, strings.Join(res.Script(), " "), res.Err)
			return false
		}
		part.record(x, res, checks)
		if cfg.OnRun != nil {
			cfg.OnRun(x, res)
		}

		// Every choice past the prefix was resolved by default. Each
		// alternative there starts a schedule not seen before.
		taken := next
		for i := next.Len(); i < len(res.Choices); i++ {
			c := res.Choices[i]
			for _, alt := range c.Enabled {
				if alt != c.Picked {
					add(taken.Append(alt))
				}
			}
			taken = taken.Append(c.Picked)
		}
		return true
	})

	entry := log.WithFields(log.Fields{
		"value": x,
		"runs":  part.Runs[x],
	})
	if part.Truncated {
		entry.Warn("Exploration truncated")
	} else {
		entry.Info("Explored")
	}
	return part, err
}
