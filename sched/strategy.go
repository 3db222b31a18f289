package sched

import (
	"fmt"
	"math/rand"
)

// Strategy resolves choice points. n counts the choice points of the run
// so far, enabled is sorted by ThreadID and holds at least two threads.
type Strategy interface {
	Pick(n int, enabled []Thread) (ThreadID, error)
}

type defaultStrategy struct{}

// Default always picks the enabled thread with the lowest ID, which keeps
// the main thread running for as long as it can.
func Default() Strategy { return defaultStrategy{} }

func (defaultStrategy) Pick(_ int, enabled []Thread) (ThreadID, error) {
	return enabled[0].ID, nil
}

type replay []ThreadID

// Replay picks prefix[n] at choice point n and behaves like Default
// once the prefix is exhausted.
func Replay(prefix []ThreadID) Strategy { return replay(prefix) }

func (p replay) Pick(n int, enabled []Thread) (ThreadID, error) {
	if n < len(p) {
		return p[n], nil
	}
	return enabled[0].ID, nil
}

type script []string

// Script picks threads by name at the first len(names) choice points and
// behaves like Default afterwards.
func Script(names []string) Strategy { return script(names) }

func (s script) Pick(n int, enabled []Thread) (ThreadID, error) {
	if n >= len(s) {
		return enabled[0].ID, nil
	}
	for _, t := range enabled {
		if t.Name == s[n] {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("thread %q is not enabled", s[n])
}

type randomStrategy struct {
	rnd *rand.Rand
}

// Random picks uniformly among enabled threads.
func Random(seed int64) Strategy {
	return randomStrategy{rand.New(rand.NewSource(seed))}
}

func (r randomStrategy) Pick(_ int, enabled []Thread) (ThreadID, error) {
	return enabled[r.rnd.Intn(len(enabled))].ID, nil
}
