package sched

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/tracesmin/scenario"
)

type Outcome int

const (
	// The main thread returned.
	OutcomeExited Outcome = iota
	// A thread called Abort.
	OutcomeAborted
	// The main thread had not returned and no thread was enabled.
	OutcomeDeadlocked
	// The run exceeded its step bound.
	OutcomeStepLimit
	// The strategy or the program misused the scheduler.
	OutcomeFault
)

var outcomeNames = [...]string{
	OutcomeExited:     "exited",
	OutcomeAborted:    "aborted",
	OutcomeDeadlocked: "deadlocked",
	OutcomeStepLimit:  "step-limit",
	OutcomeFault:      "fault",
}

// Outcomes lists all outcomes in declaration order.
var Outcomes = []Outcome{OutcomeExited, OutcomeAborted, OutcomeDeadlocked, OutcomeStepLimit, OutcomeFault}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for o, name := range outcomeNames {
		if name == s {
			return Outcome(o), nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// Thread is a schedulable thread as seen by a Strategy.
type Thread struct {
	ID   ThreadID
	Name string
}

// Step is one scheduled event. PC is the index of the event among the
// events of its thread.
type Step struct {
	Thread ThreadID
	PC     int
	Event  scenario.Event
}

// Choice is a scheduling decision between several enabled threads.
type Choice struct {
	Enabled []ThreadID
	Picked  ThreadID
}

type Result struct {
	Outcome Outcome
	// Err is the abort error for OutcomeAborted and the cause for OutcomeFault.
	Err error

	Trace   []Step
	Choices []Choice
	// Threads holds thread names indexed by ThreadID.
	Threads []string
	// Unfinished names the spawned threads that were still running when
	// the run ended.
	Unfinished []string
}

// Script returns the names of the threads picked at every choice point.
// Replaying it with the Script strategy reproduces the run.
func (r Result) Script() []string {
	names := make([]string, len(r.Choices))
	for i, c := range r.Choices {
		names[i] = r.Threads[c.Picked]
	}
	return names
}

// Picks returns the thread picked at every choice point.
func (r Result) Picks() []ThreadID {
	ids := make([]ThreadID, len(r.Choices))
	for i, c := range r.Choices {
		ids[i] = c.Picked
	}
	return ids
}

func (r Result) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s after %d steps", r.Outcome, len(r.Trace))
	if r.Err != nil {
		fmt.Fprintf(&sb, ": %v", r.Err)
	}
	return sb.String()
}

// FormatTrace writes one line per step.
func (r Result) FormatTrace() string {
	var sb strings.Builder
	for i, s := range r.Trace {
		fmt.Fprintf(&sb, "%3d %-8s %s\n", i, r.Threads[s.Thread], s.Event)
	}
	return sb.String()
}
