package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cs-au-dk/tracesmin/explore"
	"github.com/cs-au-dk/tracesmin/utils"
	"github.com/cs-au-dk/tracesmin/utils/dot"

	log "github.com/sirupsen/logrus"
)

// secondaryTask executes the tasks that need a full exploration.
func (pl pipeline) secondaryTask(ctx context.Context) {
	report := pl.explore(ctx)

	switch {
	// explore : per-site verdicts, outcome counts and witnesses.
	case task.IsExplore():
		gatherMetrics(report)

	// visualize : renders the merged state graph of all explored schedules.
	case task.IsVisualize():
		values := make([]string, len(pl.cfg.Values))
		for i, x := range pl.cfg.Values {
			values[i] = fmt.Sprint(x)
		}
		title := fmt.Sprintf("Schedules for x in {%s}", strings.Join(values, ", "))

		log.Println("Constructing state graph...")
		img, err := dot.Render(report.Graph.ToDot(title), opts.Output(), opts.OutputFormat())
		if err != nil {
			log.Fatalln("Rendering failed:", err)
		}
		fmt.Println(img)
	}
}

// replayAll replays every scenario of the file at path, writes one line
// per scenario to w and returns how many missed their expectation.
func replayAll(path string, w io.Writer) (failed int, err error) {
	scs, err := explore.LoadScenarios(path)
	if err != nil {
		return 0, err
	}

	for i := range scs {
		rep, err := explore.Replay(&scs[i])
		if err != nil {
			return failed, err
		}

		status := utils.Colorize.Good("ok")
		if !rep.OK() {
			failed++
			status = utils.Colorize.Bad("FAIL")
		}
		fmt.Fprintf(w, "%-4s %s\n", status, rep)

		if !rep.OK() || opts.ShowWitness() {
			for _, line := range strings.Split(strings.TrimRight(rep.Result.FormatTrace(), "\n"), "\n") {
				fmt.Fprintln(w, "    "+utils.Colorize.Faint(line))
			}
		}
	}
	return failed, nil
}
