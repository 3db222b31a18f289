// Package scenario contains the two-thread mutex scenario: a worker that
// writes the same unconstrained value into both cells of a shared pair under
// a lock, and a coordinator that compares the cells once without and once
// with the lock held.
//
// Check sites carry expectation notes that testutil reads back:
// holds means no interleaving can fail the check, unknown means some can.
package scenario

import (
	"fmt"

	"github.com/cs-au-dk/tracesmin/oracle"

	log "github.com/sirupsen/logrus"
)

// Site identifies an equality check.
type Site string

const (
	SiteWorkerLocked Site = "worker-locked"
	SiteMainUnlocked Site = "main-unlocked"
	SiteMainLocked   Site = "main-locked"
)

// Sites lists every check site in program order.
var Sites = []Site{SiteWorkerLocked, SiteMainUnlocked, SiteMainLocked}

// InitialValue is the value both cells start with.
const InitialValue = 1

// InvariantViolated is raised when a checked g == h does not hold.
type InvariantViolated struct {
	Site Site
	G, H int64
}

func (e *InvariantViolated) Error() string {
	return fmt.Sprintf("invariant g == h violated at %s: g=%d, h=%d", e.Site, e.G, e.H)
}

// CheckResult is the observation made at a check site.
type CheckResult struct {
	Site Site
	G, H int64
	OK   bool
}

type Scenario struct {
	rt     Runtime
	oracle oracle.Oracle

	// OnCheck, if set, is called with every check result before a
	// failing check aborts. Under the native runtime it is called
	// concurrently from both threads.
	OnCheck func(CheckResult)
}

func New(rt Runtime, o oracle.Oracle) *Scenario {
	return &Scenario{rt: rt, oracle: o}
}

func (s *Scenario) check(site Site, g, h int64) {
	res := CheckResult{Site: site, G: g, H: h, OK: g == h}
	log.WithFields(log.Fields{
		"site": site,
		"g":    g,
		"h":    h,
	}).Debug("Check")

	if s.OnCheck != nil {
		s.OnCheck(res)
	}
	if !res.OK {
		s.rt.Abort(&InvariantViolated{Site: site, G: g, H: h})
	}
}

// Worker is the detached task. It never signals completion.
func (s *Scenario) Worker(p *Pair) {
	x := s.oracle.Int()

	p.WithLock(func(c Cells) {
		c.SetG(x)
		c.SetH(x)
		s.check(SiteWorkerLocked, c.G(), c.H()) //@ holds("worker-locked")
	})

	// Empty critical section.
	p.WithLock(func(Cells) {})
}

// Main is the coordinator. It returns without waiting for the worker.
func (s *Scenario) Main() {
	p := NewPair(s.rt, InitialValue)

	s.rt.Go("worker", func() { s.Worker(p) })

	g, h := p.Peek()
	s.check(SiteMainUnlocked, g, h) //@ unknown("main-unlocked")

	p.WithLock(func(c Cells) {
		s.check(SiteMainLocked, c.G(), c.H()) //@ holds("main-locked")
	})
}
