package scenario

import (
	"errors"
	"io"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/cs-au-dk/tracesmin/oracle"

	log "github.com/sirupsen/logrus"
)

// seqRuntime runs spawned functions after the spawner's function returns
// and records every event.
type seqRuntime struct {
	events  []Event
	spawned []func()
}

func (r *seqRuntime) Go(_ string, fun func()) {
	r.spawned = append(r.spawned, fun)
}

func (r *seqRuntime) NewMutex() sync.Locker {
	return &sync.Mutex{}
}

func (r *seqRuntime) Yield(ev Event) {
	r.events = append(r.events, ev)
}

func (r *seqRuntime) Abort(err error) {
	panic(err)
}

func (r *seqRuntime) drain() {
	for len(r.spawned) > 0 {
		fun := r.spawned[0]
		r.spawned = r.spawned[1:]
		fun()
	}
}

func TestEventOrder(t *testing.T) {
	rt := &seqRuntime{}
	var checks []CheckResult
	s := New(rt, oracle.Fixed(7))
	s.OnCheck = func(c CheckResult) { checks = append(checks, c) }

	s.Main()
	rt.drain()

	expected := []Event{
		{Op: OpStore, Cell: CellG, Value: 1},
		{Op: OpStore, Cell: CellH, Value: 1},
		{Op: OpLoad, Cell: CellG},
		{Op: OpLoad, Cell: CellH},
		{Op: OpLoad, Cell: CellG},
		{Op: OpLoad, Cell: CellH},
		{Op: OpStore, Cell: CellG, Value: 7},
		{Op: OpStore, Cell: CellH, Value: 7},
		{Op: OpLoad, Cell: CellG},
		{Op: OpLoad, Cell: CellH},
	}
	if !reflect.DeepEqual(rt.events, expected) {
		t.Errorf("Events:\n%v\nexpected:\n%v", rt.events, expected)
	}

	expectedChecks := []CheckResult{
		{SiteMainUnlocked, 1, 1, true},
		{SiteMainLocked, 1, 1, true},
		{SiteWorkerLocked, 7, 7, true},
	}
	if !reflect.DeepEqual(checks, expectedChecks) {
		t.Errorf("Checks %+v, expected %+v", checks, expectedChecks)
	}
}

func TestFailedCheckAborts(t *testing.T) {
	rt := &seqRuntime{}
	p := NewPair(rt, InitialValue)
	p.WithLock(func(c Cells) { c.SetG(5) })

	defer func() {
		err, _ := recover().(error)
		var iv *InvariantViolated
		if !errors.As(err, &iv) {
			t.Fatalf("Expected InvariantViolated, recovered %v", err)
		}
		if iv.Site != SiteMainUnlocked || iv.G != 5 || iv.H != 1 {
			t.Errorf("Unexpected violation: %v", iv)
		}
		if iv.Error() != "invariant g == h violated at main-unlocked: g=5, h=1" {
			t.Errorf("Unexpected message %q", iv.Error())
		}
	}()

	s := New(rt, oracle.Fixed(0))
	g, h := p.Peek()
	s.check(SiteMainUnlocked, g, h)
	t.Fatal("check returned after a violation")
}

// goexitRuntime reports aborts and stops the aborting goroutine.
type goexitRuntime struct {
	Native
	mu     sync.Mutex
	aborts []error
}

func (r *goexitRuntime) Abort(err error) {
	r.mu.Lock()
	r.aborts = append(r.aborts, err)
	r.mu.Unlock()
	runtime.Goexit()
}

func TestNativeLockedChecksHold(t *testing.T) {
	rt := &goexitRuntime{}
	var wg sync.WaitGroup

	for i := 0; i < 500; i++ {
		s := New(rt, oracle.Sequence(7, -7, 1<<40))
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Main()
		}()
	}
	wg.Wait()

	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, err := range rt.aborts {
		var iv *InvariantViolated
		if !errors.As(err, &iv) {
			t.Fatalf("Unexpected abort %v", err)
		}
		if iv.Site != SiteMainUnlocked {
			t.Errorf("Protected check failed: %v", iv)
		}
	}
}

func TestNativeInitialValueNeverFails(t *testing.T) {
	rt := &goexitRuntime{}
	var mu sync.Mutex
	var checks []CheckResult

	for i := 0; i < 100; i++ {
		s := New(rt, oracle.Fixed(InitialValue))
		s.OnCheck = func(c CheckResult) {
			mu.Lock()
			checks = append(checks, c)
			mu.Unlock()
		}
		s.Main()
	}

	mu.Lock()
	defer mu.Unlock()
	for _, c := range checks {
		if !c.OK {
			t.Errorf("%+v failed", c)
		}
	}
	if len(rt.aborts) != 0 {
		t.Errorf("Unexpected aborts: %v", rt.aborts)
	}
}

func TestEmptyCriticalSectionKeepsPair(t *testing.T) {
	rt := &seqRuntime{}
	p := NewPair(rt, 3)
	p.WithLock(func(Cells) {})
	if g, h := p.Peek(); g != 3 || h != 3 {
		t.Errorf("Pair changed to (%d, %d)", g, h)
	}
}

func TestNativeAbortIsFatal(t *testing.T) {
	logger := log.New()
	logger.Out = io.Discard
	code := -1
	logger.ExitFunc = func(c int) { code = c }

	err := &InvariantViolated{Site: SiteMainUnlocked, G: 2, H: 1}
	defer func() {
		if r := recover(); r != err {
			t.Errorf("Recovered %v", r)
		}
		if code == 0 || code == -1 {
			t.Errorf("Exit code %d, expected non-zero", code)
		}
	}()

	Native{Logger: logger}.Abort(err)
}

func TestEventString(t *testing.T) {
	for _, test := range []struct {
		ev  Event
		str string
	}{
		{Event{Op: OpStart}, "start"},
		{Event{Op: OpLoad, Cell: CellH}, "load h"},
		{Event{Op: OpStore, Cell: CellG, Value: -3}, "store g=-3"},
		{Event{Op: OpLock, Mutex: 0}, "lock m0"},
		{Event{Op: OpUnlock, Mutex: 2}, "unlock m2"},
	} {
		if s := test.ev.String(); s != test.str {
			t.Errorf("%#v.String() = %q, expected %q", test.ev, s, test.str)
		}
	}
}
