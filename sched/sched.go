// Package sched implements scenario.Runtime on a deterministic scheduler.
//
// Every simulated thread runs on its own goroutine, but only one of them
// makes progress at a time: a thread runs until it reaches its next
// preemption point (a shared access or a lock operation), parks there, and
// the scheduler decides which thread performs its pending event next.
// Whenever more than one thread is enabled the decision is delegated to a
// Strategy, which makes a run fully reproducible from its choices.
package sched

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cs-au-dk/tracesmin/scenario"

	log "github.com/sirupsen/logrus"
)

// ThreadID numbers threads in spawn order. The main thread is 0.
type ThreadID int

// MainThread is the thread that executes the function given to Run.
const MainThread ThreadID = 0

// DefaultMaxSteps bounds the length of a run.
const DefaultMaxSteps = 10000

type threadState int

const (
	runnable threadState = iota
	finished
	aborted
)

type thread struct {
	id      ThreadID
	name    string
	wake    chan struct{}
	pending scenario.Event
	steps   int
	state   threadState
}

type mutex struct {
	r      *Runtime
	id     int
	holder *thread
}

func (m *mutex) Lock() {
	m.r.Yield(scenario.Event{Op: scenario.OpLock, Mutex: m.id})
}

func (m *mutex) Unlock() {
	m.r.Yield(scenario.Event{Op: scenario.OpUnlock, Mutex: m.id})
}

// Runtime is a single-use controlled runtime.
type Runtime struct {
	strategy Strategy
	maxSteps int

	threads []*thread
	mutexes []*mutex
	current *thread
	parked  chan struct{}
	kill    chan struct{}
	started bool

	abortErr error
	result   Result
}

type Option func(*Runtime)

// MaxSteps bounds the number of scheduled events in a run.
func MaxSteps(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

func New(strategy Strategy, opts ...Option) *Runtime {
	if strategy == nil {
		strategy = Default()
	}
	r := &Runtime{
		strategy: strategy,
		maxSteps: DefaultMaxSteps,
		parked:   make(chan struct{}),
		kill:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Go registers a new thread. It becomes schedulable immediately, but does
// not run until the scheduler picks it.
func (r *Runtime) Go(name string, fun func()) {
	r.spawn(name, fun)
}

func (r *Runtime) NewMutex() sync.Locker {
	m := &mutex{r: r, id: len(r.mutexes)}
	r.mutexes = append(r.mutexes, m)
	return m
}

// Yield parks the running thread with ev as its pending event.
func (r *Runtime) Yield(ev scenario.Event) {
	t := r.current
	if t == nil {
		panic("sched: Yield outside of a scheduled thread")
	}
	t.pending = ev
	r.parked <- struct{}{}
	r.wait(t)
}

// Abort ends the run with err. The calling thread does not continue.
func (r *Runtime) Abort(err error) {
	t := r.current
	if t == nil {
		panic("sched: Abort outside of a scheduled thread")
	}
	t.state = aborted
	r.abortErr = err
	r.parked <- struct{}{}
	runtime.Goexit()
}

func (r *Runtime) wait(t *thread) {
	select {
	case <-t.wake:
	case <-r.kill:
		runtime.Goexit()
	}
}

func (r *Runtime) spawn(name string, fun func()) *thread {
	t := &thread{
		id:      ThreadID(len(r.threads)),
		name:    name,
		wake:    make(chan struct{}),
		pending: scenario.Event{Op: scenario.OpStart},
	}
	r.threads = append(r.threads, t)

	go func() {
		select {
		case <-t.wake:
		case <-r.kill:
			return
		}
		fun()
		t.state = finished
		r.parked <- struct{}{}
	}()

	return t
}

func (r *Runtime) enabled() (ts []Thread) {
	for _, t := range r.threads {
		if t.state != runnable {
			continue
		}
		if t.pending.Op == scenario.OpLock && r.mutexes[t.pending.Mutex].holder != nil {
			continue
		}
		ts = append(ts, Thread{t.id, t.name})
	}
	return
}

// apply performs the scheduler-side effect of t's pending event.
func (r *Runtime) apply(t *thread) error {
	ev := t.pending
	switch ev.Op {
	case scenario.OpLock:
		r.mutexes[ev.Mutex].holder = t
	case scenario.OpUnlock:
		m := r.mutexes[ev.Mutex]
		if m.holder == nil {
			return fmt.Errorf("%s: unlock of unlocked mutex m%d", t.name, ev.Mutex)
		}
		m.holder = nil
	}
	return nil
}

func (r *Runtime) pick(enabled []Thread) (*thread, error) {
	if len(enabled) == 1 {
		return r.threads[enabled[0].ID], nil
	}

	n := len(r.result.Choices)
	id, err := r.strategy.Pick(n, enabled)
	if err != nil {
		return nil, fmt.Errorf("choice %d: %w", n, err)
	}

	choice := Choice{Picked: id}
	found := false
	for _, t := range enabled {
		choice.Enabled = append(choice.Enabled, t.ID)
		found = found || t.ID == id
	}
	if !found {
		return nil, fmt.Errorf("choice %d: thread %d is not enabled", n, id)
	}

	r.result.Choices = append(r.result.Choices, choice)
	return r.threads[id], nil
}

func (r *Runtime) step() (stop bool) {
	root := r.threads[MainThread]

	switch {
	case r.abortErr != nil:
		r.result.Outcome, r.result.Err = OutcomeAborted, r.abortErr
		return true
	case root.state == finished:
		r.result.Outcome = OutcomeExited
		return true
	case len(r.result.Trace) >= r.maxSteps:
		r.result.Outcome = OutcomeStepLimit
		return true
	}

	enabled := r.enabled()
	if len(enabled) == 0 {
		r.result.Outcome = OutcomeDeadlocked
		return true
	}

	t, err := r.pick(enabled)
	if err == nil {
		err = r.apply(t)
	}
	if err != nil {
		r.result.Outcome, r.result.Err = OutcomeFault, err
		return true
	}

	s := Step{Thread: t.id, PC: t.steps, Event: t.pending}
	t.steps++
	r.result.Trace = append(r.result.Trace, s)

	log.WithFields(log.Fields{
		"step":   len(r.result.Trace) - 1,
		"thread": t.name,
	}).Trace(s.Event)

	r.current = t
	t.wake <- struct{}{}
	<-r.parked
	r.current = nil
	return false
}

// Run executes main as the main thread until it returns, a thread aborts,
// no thread is enabled, or the step bound is exceeded. Threads that have
// not finished when the run ends are discarded.
func (r *Runtime) Run(main func()) Result {
	if r.started {
		panic("sched: Runtime used for more than one run")
	}
	r.started = true

	r.spawn("main", main)
	for !r.step() {
	}
	close(r.kill)

	for _, t := range r.threads {
		r.result.Threads = append(r.result.Threads, t.name)
		if t.id != MainThread && t.state == runnable {
			r.result.Unfinished = append(r.result.Unfinished, t.name)
		}
	}
	return r.result
}

var _ scenario.Runtime = (*Runtime)(nil)
