package scenario

import (
	"sync"
	"sync/atomic"
)

// Pair holds the shared cells g and h together with the mutex that arbitrates
// access to them. Each cell access is atomic on its own, the pair is not.
type Pair struct {
	rt   Runtime
	mu   sync.Locker
	g, h int64
}

// NewPair creates both cells with value init and an unlocked mutex.
func NewPair(rt Runtime, init int64) *Pair {
	p := &Pair{
		rt: rt,
		mu: rt.NewMutex(),
	}
	p.store(CellG, init)
	p.store(CellH, init)
	return p
}

func (p *Pair) addr(c Cell) *int64 {
	if c == CellG {
		return &p.g
	}
	return &p.h
}

func (p *Pair) load(c Cell) int64 {
	p.rt.Yield(Event{Op: OpLoad, Cell: c})
	return atomic.LoadInt64(p.addr(c))
}

func (p *Pair) store(c Cell, v int64) {
	p.rt.Yield(Event{Op: OpStore, Cell: c, Value: v})
	atomic.StoreInt64(p.addr(c), v)
}

// WithLock runs fun while holding the mutex.
// The mutex is not released if fun does not return normally.
func (p *Pair) WithLock(fun func(c Cells)) {
	p.mu.Lock()
	fun(Cells{p})
	p.mu.Unlock()
}

// Peek reads g and then h without holding the mutex.
// No consistency is promised between the two values.
func (p *Pair) Peek() (g, h int64) {
	g = p.load(CellG)
	h = p.load(CellH)
	return
}

// Cells is the view of a Pair available inside a critical section.
type Cells struct {
	p *Pair
}

func (c Cells) G() int64     { return c.p.load(CellG) }
func (c Cells) H() int64     { return c.p.load(CellH) }
func (c Cells) SetG(v int64) { c.p.store(CellG, v) }
func (c Cells) SetH(v int64) { c.p.store(CellH, v) }
