package explore

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cs-au-dk/tracesmin/oracle"
	"github.com/cs-au-dk/tracesmin/scenario"
	"github.com/cs-au-dk/tracesmin/sched"

	"github.com/sebdah/goldie/v2"
)

func explore(t *testing.T, cfg Config) *Report {
	t.Helper()
	report, err := Explore(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func TestVerdicts(t *testing.T) {
	report := explore(t, Config{Values: []int64{1, 2, 7}, Parallel: 2})

	expected := map[scenario.Site]Verdict{
		scenario.SiteWorkerLocked: Holds,
		scenario.SiteMainUnlocked: Unknown,
		scenario.SiteMainLocked:   Holds,
	}
	for site, want := range expected {
		if got := report.Verdict(site); got != want {
			t.Errorf("%s: expected %s, got %s (%+v)", site, want, got, report.Stats(site))
		}
	}

	var out bytes.Buffer
	if err := report.WriteVerdicts(&out); err != nil {
		t.Fatal(err)
	}
	goldie.New(t).Assert(t, t.Name(), out.Bytes())
}

func TestInitialValueNeverFails(t *testing.T) {
	report := explore(t, Config{Values: []int64{scenario.InitialValue}})

	for _, site := range scenario.Sites {
		if v := report.Verdict(site); v != Holds {
			t.Errorf("%s: expected holds, got %s", site, v)
		}
	}
	if len(report.Witnesses) != 0 {
		t.Errorf("expected no witnesses, got %v", report.Witnesses)
	}
	if n := report.Outcomes[sched.OutcomeAborted]; n != 0 {
		t.Errorf("expected no aborted runs, got %d", n)
	}
}

func TestNoDeadlocks(t *testing.T) {
	report := explore(t, Config{Values: []int64{1, 7}})

	for _, out := range []sched.Outcome{sched.OutcomeDeadlocked, sched.OutcomeStepLimit, sched.OutcomeFault} {
		if n := report.Outcomes[out]; n != 0 {
			t.Errorf("expected no %s runs, got %d", out, n)
		}
	}
	if report.Outcomes[sched.OutcomeExited] == 0 || report.Outcomes[sched.OutcomeAborted] == 0 {
		t.Errorf("expected both exited and aborted runs, got %v", report.Outcomes)
	}
}

func TestWitnessReplays(t *testing.T) {
	report := explore(t, Config{Values: []int64{7}})

	wit, ok := report.Witnesses[scenario.SiteMainUnlocked]
	if !ok {
		t.Fatal("expected a witness for", scenario.SiteMainUnlocked)
	}
	if wit.Value != 7 {
		t.Errorf("expected witness value 7, got %d", wit.Value)
	}

	res, _ := Run(oracle.Fixed(wit.Value), sched.Script(wit.Script), 0)
	var iv *scenario.InvariantViolated
	if res.Outcome != sched.OutcomeAborted || !errors.As(res.Err, &iv) {
		t.Fatalf("expected replay to abort, got %s", res)
	}
	if iv.Site != scenario.SiteMainUnlocked {
		t.Errorf("expected violation at %s, got %s", scenario.SiteMainUnlocked, iv.Site)
	}
	if iv.G == iv.H {
		t.Errorf("violation with equal cells: %v", iv)
	}
	if res.FormatTrace() != wit.Result.FormatTrace() {
		t.Errorf("replayed trace differs:\n%s\nexpected:\n%s", res.FormatTrace(), wit.Result.FormatTrace())
	}

	for _, site := range []scenario.Site{scenario.SiteWorkerLocked, scenario.SiteMainLocked} {
		if _, ok := report.Witnesses[site]; ok {
			t.Errorf("unexpected witness for %s", site)
		}
	}
}

func TestEveryScheduleOnce(t *testing.T) {
	var mu sync.Mutex
	seen := map[int64]map[string]bool{}

	report := explore(t, Config{
		Values: []int64{1, 7},
		OnRun: func(x int64, res sched.Result) {
			mu.Lock()
			defer mu.Unlock()
			if seen[x] == nil {
				seen[x] = map[string]bool{}
			}
			key := strings.Join(res.Script(), " ")
			if seen[x][key] {
				t.Errorf("x=%d: schedule [%s] explored twice", x, key)
			}
			seen[x][key] = true
		},
	})

	for x, scripts := range seen {
		if len(scripts) != report.Runs[x] {
			t.Errorf("x=%d: %d distinct schedules, %d runs", x, len(scripts), report.Runs[x])
		}
		if len(scripts) < 2 {
			t.Errorf("x=%d: expected several schedules, got %d", x, len(scripts))
		}
	}
}

// The worker's second critical section is empty, so the pair must look the
// same when it is entered and when it is left.
func TestEmptyCriticalSectionKeepsPair(t *testing.T) {
	var mu sync.Mutex
	sections := 0

	explore(t, Config{
		Values: []int64{2, 7},
		OnRun: func(x int64, res sched.Result) {
			mu.Lock()
			defer mu.Unlock()

			state := initialState(x)
			locks := 0
			var entered State
			for _, step := range res.Trace {
				state = state.next(step)
				if res.Threads[step.Thread] != "worker" {
					continue
				}
				switch step.Event.Op {
				case scenario.OpLock:
					locks++
					entered = state
				case scenario.OpUnlock:
					if locks != 2 {
						continue
					}
					sections++
					if state.G != entered.G || state.H != entered.H {
						t.Errorf("x=%d [%s]: pair changed from (%d, %d) to (%d, %d)",
							x, strings.Join(res.Script(), " "), entered.G, entered.H, state.G, state.H)
					}
				case scenario.OpStore:
					if locks == 2 {
						t.Errorf("x=%d: store inside the empty critical section", x)
					}
				}
			}
		},
	})

	if sections == 0 {
		t.Error("no run completed the empty critical section")
	}
}

func TestMaxRunsTruncates(t *testing.T) {
	report := explore(t, Config{Values: []int64{7}, MaxRuns: 3})

	if report.Runs[7] != 3 {
		t.Errorf("expected 3 runs, got %d", report.Runs[7])
	}
	if !report.Truncated {
		t.Error("expected a truncated report")
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Explore(ctx, Config{Values: []int64{1, 2}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNoValues(t *testing.T) {
	if _, err := Explore(context.Background(), Config{}); !errors.Is(err, ErrNoValues) {
		t.Errorf("expected ErrNoValues, got %v", err)
	}
}

func TestAccessGroups(t *testing.T) {
	a := explore(t, Config{Values: []int64{7}}).Access

	if !a.SameGroup(scenario.CellG, scenario.CellH) {
		t.Errorf("expected g and h in one group:\n%s", a)
	}
	if groups := a.Groups(); len(groups) != 1 || len(groups[0]) != 2 {
		t.Errorf("expected a single group {g, h}, got %v", groups)
	}

	for _, c := range []scenario.Cell{scenario.CellG, scenario.CellH} {
		// Initialisation and the unprotected check.
		if a.Unprotected(c) == 0 {
			t.Errorf("%s: expected unprotected accesses", c)
		}
		if a.Protected(c) == 0 {
			t.Errorf("%s: expected protected accesses", c)
		}
		if gs := a.Guards(c); len(gs) != 1 || gs[0] != 0 {
			t.Errorf("%s: expected guard m0, got %v", c, gs)
		}
	}
}

func TestStateGraph(t *testing.T) {
	g := explore(t, Config{Values: []int64{1, 7}}).Graph

	for _, x := range []int64{1, 7} {
		succs := g.Successors(initialState(x))
		if len(succs) != 1 {
			t.Fatalf("x=%d: expected one successor of the initial state, got %v", x, succs)
		}
		if _, ok := succs["main: start"]; !ok {
			t.Errorf("x=%d: expected main to start first, got %v", x, succs)
		}
	}

	aborted := 0
	for _, s := range g.States() {
		if s.End != sched.OutcomeAborted.String() {
			continue
		}
		aborted++
		if s.Value == scenario.InitialValue {
			t.Errorf("aborted state with x=%d: %s", s.Value, s)
		}
	}
	if aborted == 0 {
		t.Error("expected aborted end states")
	}

	dg := g.ToDot("traces")
	if len(dg.Clusters) != 2 {
		t.Errorf("expected a cluster per value, got %d", len(dg.Clusters))
	}
	if len(dg.Edges) != g.Edges() {
		t.Errorf("expected %d edges, got %d", g.Edges(), len(dg.Edges))
	}
}

func TestWriteReport(t *testing.T) {
	report := explore(t, Config{Values: []int64{7}})

	var out bytes.Buffer
	if err := report.WriteReport(&out, true); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"main-unlocked",
		"Witness for",
		"invariant g == h violated at main-unlocked",
		"load h",
		"State graph:",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report does not mention %q:\n%s", want, out.String())
		}
	}
}
