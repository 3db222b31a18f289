package explore

import (
	"fmt"
	"io"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cs-au-dk/tracesmin/scenario"
	"github.com/cs-au-dk/tracesmin/sched"
	"github.com/cs-au-dk/tracesmin/utils"
)

type Verdict int

const (
	// No explored schedule reached the site.
	Unreached Verdict = iota
	// The check passed in every schedule that reached it.
	Holds
	// The check passed in some schedules and failed in others.
	Unknown
	// The check failed in every schedule that reached it.
	Violated
)

func (v Verdict) String() string {
	switch v {
	case Unreached:
		return "unreached"
	case Holds:
		return "holds"
	case Unknown:
		return "unknown"
	case Violated:
		return "violated"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// SiteStats counts the runs in which a check passed or failed.
type SiteStats struct {
	Passed, Failed int
}

func (s SiteStats) Verdict() Verdict {
	switch {
	case s.Passed == 0 && s.Failed == 0:
		return Unreached
	case s.Failed == 0:
		return Holds
	case s.Passed == 0:
		return Violated
	}
	return Unknown
}

// Witness is the first explored schedule in which a check failed.
type Witness struct {
	Value  int64
	Script []string
	Result sched.Result
}

type siteComparer struct{}

func (siteComparer) Compare(a, b scenario.Site) int {
	return strings.Compare(string(a), string(b))
}

type Report struct {
	Values []int64
	// Runs counts the explored schedules per value.
	Runs      map[int64]int
	Outcomes  map[sched.Outcome]int
	Sites     *immutable.SortedMap[scenario.Site, SiteStats]
	Witnesses map[scenario.Site]Witness
	Graph     *StateGraph
	Access    *AccessGroups
	// Truncated is set when MaxRuns cut the exploration of some value short.
	Truncated bool
}

func newReport() *Report {
	sites := immutable.NewSortedMap[scenario.Site, SiteStats](siteComparer{})
	for _, site := range scenario.Sites {
		sites = sites.Set(site, SiteStats{})
	}
	return &Report{
		Runs:      map[int64]int{},
		Outcomes:  map[sched.Outcome]int{},
		Sites:     sites,
		Witnesses: map[scenario.Site]Witness{},
		Graph:     NewStateGraph(),
		Access:    NewAccessGroups(),
	}
}

func (r *Report) record(x int64, res sched.Result, checks []scenario.CheckResult) {
	r.Runs[x]++
	r.Outcomes[res.Outcome]++

	for _, c := range checks {
		st, _ := r.Sites.Get(c.Site)
		if c.OK {
			st.Passed++
		} else {
			st.Failed++
			if _, found := r.Witnesses[c.Site]; !found {
				r.Witnesses[c.Site] = Witness{Value: x, Script: res.Script(), Result: res}
			}
		}
		r.Sites = r.Sites.Set(c.Site, st)
	}

	r.Graph.AddRun(x, res)
	r.Access.AddRun(res)
}

// merge adds the observations of o. Witnesses already present win.
func (r *Report) merge(o *Report) {
	r.Values = append(r.Values, o.Values...)
	for x, n := range o.Runs {
		r.Runs[x] += n
	}
	for out, n := range o.Outcomes {
		r.Outcomes[out] += n
	}
	for iter := o.Sites.Iterator(); !iter.Done(); {
		site, st, _ := iter.Next()
		mine, _ := r.Sites.Get(site)
		mine.Passed += st.Passed
		mine.Failed += st.Failed
		r.Sites = r.Sites.Set(site, mine)
	}
	for site, w := range o.Witnesses {
		if _, found := r.Witnesses[site]; !found {
			r.Witnesses[site] = w
		}
	}
	r.Graph.Merge(o.Graph)
	r.Access.Merge(o.Access)
	r.Truncated = r.Truncated || o.Truncated
}

// TotalRuns is the number of schedules explored over all values.
func (r *Report) TotalRuns() (n int) {
	for _, runs := range r.Runs {
		n += runs
	}
	return
}

func (r *Report) Stats(site scenario.Site) SiteStats {
	st, _ := r.Sites.Get(site)
	return st
}

func (r *Report) Verdict(site scenario.Site) Verdict {
	return r.Stats(site).Verdict()
}

// WriteVerdicts writes one line per check site, ordered by site name.
func (r *Report) WriteVerdicts(w io.Writer) error {
	for iter := r.Sites.Iterator(); !iter.Done(); {
		site, st, _ := iter.Next()
		if _, err := fmt.Fprintf(w, "%-14s %s\n", site, st.Verdict()); err != nil {
			return err
		}
	}
	return nil
}

func colorVerdict(v Verdict) string {
	switch v {
	case Holds:
		return utils.Colorize.Good(v)
	case Unknown:
		return utils.Colorize.Warn(v)
	case Violated:
		return utils.Colorize.Bad(v)
	}
	return utils.Colorize.Faint(v)
}

// WriteReport writes the full summary. With traces set every witness
// schedule is printed step by step.
func (r *Report) WriteReport(w io.Writer, traces bool) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Explored %d schedules", r.TotalRuns())
	if r.Truncated {
		sb.WriteString(utils.Colorize.Warn(" (truncated)"))
	}
	sb.WriteString("\n")
	for _, x := range r.Values {
		fmt.Fprintf(&sb, "  x = %-20d %d schedules\n", x, r.Runs[x])
	}

	sb.WriteString("Outcomes:\n")
	for _, out := range sched.Outcomes {
		if n := r.Outcomes[out]; n > 0 {
			fmt.Fprintf(&sb, "  %-10s %d\n", out, n)
		}
	}

	sb.WriteString("Checks:\n")
	for iter := r.Sites.Iterator(); !iter.Done(); {
		site, st, _ := iter.Next()
		fmt.Fprintf(&sb, "  %s %s passed=%d failed=%d\n",
			utils.Colorize.Name(fmt.Sprintf("%-14s", site)),
			colorVerdict(st.Verdict()), st.Passed, st.Failed)
	}

	for iter := r.Sites.Iterator(); !iter.Done(); {
		site, _, _ := iter.Next()
		wit, found := r.Witnesses[site]
		if !found {
			continue
		}
		fmt.Fprintf(&sb, "Witness for %s: x = %d, schedule [%s]\n",
			utils.Colorize.Name(site), wit.Value, strings.Join(wit.Script, " "))
		fmt.Fprintf(&sb, "  %s\n", utils.Colorize.Bad(wit.Result.String()))
		if traces {
			for _, line := range strings.Split(strings.TrimRight(wit.Result.FormatTrace(), "\n"), "\n") {
				fmt.Fprintf(&sb, "  %s\n", line)
			}
		}
	}

	sb.WriteString("Access groups:\n")
	for _, line := range strings.Split(strings.TrimRight(r.Access.String(), "\n"), "\n") {
		fmt.Fprintf(&sb, "  %s\n", line)
	}
	fmt.Fprintf(&sb, "State graph: %d states, %d edges\n", r.Graph.Len(), r.Graph.Edges())

	_, err := io.WriteString(w, sb.String())
	return err
}
