package scenario

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Op is the kind of operation a thread is about to perform at a preemption point.
type Op int

const (
	OpStart Op = iota
	OpLoad
	OpStore
	OpLock
	OpUnlock
)

var opNames = [...]string{
	OpStart:  "start",
	OpLoad:   "load",
	OpStore:  "store",
	OpLock:   "lock",
	OpUnlock: "unlock",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Cell names one of the two shared integer cells.
type Cell int

const (
	CellG Cell = iota
	CellH
)

func (c Cell) String() string {
	switch c {
	case CellG:
		return "g"
	case CellH:
		return "h"
	}
	return fmt.Sprintf("cell(%d)", int(c))
}

// Event describes the pending operation of a thread.
// Cell and Value are meaningful for loads and stores, Mutex for lock operations.
type Event struct {
	Op    Op
	Cell  Cell
	Value int64
	Mutex int
}

func (e Event) String() string {
	switch e.Op {
	case OpLoad:
		return fmt.Sprintf("load %s", e.Cell)
	case OpStore:
		return fmt.Sprintf("store %s=%d", e.Cell, e.Value)
	case OpLock, OpUnlock:
		return fmt.Sprintf("%s m%d", e.Op, e.Mutex)
	}
	return e.Op.String()
}

// Runtime supplies the host primitives the scenario runs on: detached spawn,
// mutual exclusion, preemption points around shared accesses and the
// assertion abort.
type Runtime interface {
	// Go starts fun concurrently and returns without waiting for it.
	Go(name string, fun func())
	// NewMutex returns an unlocked mutual-exclusion lock.
	NewMutex() sync.Locker
	// Yield is called before every shared-memory access.
	Yield(ev Event)
	// Abort terminates the process. It does not return.
	Abort(err error)
}

// Native runs the scenario on goroutines and sync.Mutex.
// Aborting exits the process with a non-zero status.
type Native struct {
	// Logger receives the abort. The standard logrus logger is used when nil.
	Logger *log.Logger
}

func (Native) Go(name string, fun func()) {
	go fun()
}

func (Native) NewMutex() sync.Locker {
	return &sync.Mutex{}
}

func (Native) Yield(Event) {}

func (n Native) Abort(err error) {
	logger := n.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	entry := logger.WithError(err)
	if iv, ok := err.(*InvariantViolated); ok {
		entry = entry.WithFields(log.Fields{
			"site": iv.Site,
			"g":    iv.G,
			"h":    iv.H,
		})
	}
	entry.Fatal("Invariant violated")
	// Reached only when the logger's ExitFunc returns.
	panic(err)
}

var _ Runtime = Native{}
