package explore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cs-au-dk/tracesmin/sched"
	"github.com/cs-au-dk/tracesmin/scenario"

	uf "github.com/spakin/disjoint"
)

// AccessGroups partitions the shared cells by the critical sections they
// are accessed in: two cells end up in the same group when some thread
// touches both while holding a mutex. Accesses made without holding any
// mutex are counted per cell.
type AccessGroups struct {
	elems map[scenario.Cell]*uf.Element
	// Guards records the mutexes held during some access to the cell.
	guards      map[scenario.Cell]map[int]struct{}
	unprotected map[scenario.Cell]int
	protected   map[scenario.Cell]int
}

func NewAccessGroups() *AccessGroups {
	return &AccessGroups{
		elems:       map[scenario.Cell]*uf.Element{},
		guards:      map[scenario.Cell]map[int]struct{}{},
		unprotected: map[scenario.Cell]int{},
		protected:   map[scenario.Cell]int{},
	}
}

func (a *AccessGroups) elem(c scenario.Cell) *uf.Element {
	el, ok := a.elems[c]
	if !ok {
		el = uf.NewElement()
		el.Data = c
		a.elems[c] = el
	}
	return el
}

// AddRun records the accesses of one trace.
func (a *AccessGroups) AddRun(res sched.Result) {
	held := map[sched.ThreadID][]int{}
	section := map[sched.ThreadID][]scenario.Cell{}

	for _, step := range res.Trace {
		ev, t := step.Event, step.Thread
		switch ev.Op {
		case scenario.OpLock:
			held[t] = append(held[t], ev.Mutex)
		case scenario.OpUnlock:
			ms := held[t]
			for i := len(ms) - 1; i >= 0; i-- {
				if ms[i] == ev.Mutex {
					held[t] = append(ms[:i:i], ms[i+1:]...)
					break
				}
			}
			if len(held[t]) == 0 {
				a.closeSection(section[t])
				delete(section, t)
			}
		case scenario.OpLoad, scenario.OpStore:
			a.elem(ev.Cell)
			if len(held[t]) == 0 {
				a.unprotected[ev.Cell]++
				continue
			}
			a.protected[ev.Cell]++
			gs, ok := a.guards[ev.Cell]
			if !ok {
				gs = map[int]struct{}{}
				a.guards[ev.Cell] = gs
			}
			for _, m := range held[t] {
				gs[m] = struct{}{}
			}
			section[t] = append(section[t], ev.Cell)
		}
	}

	// Sections still open when the run ended.
	for _, cells := range section {
		a.closeSection(cells)
	}
}

func (a *AccessGroups) closeSection(cells []scenario.Cell) {
	for i := 1; i < len(cells); i++ {
		uf.Union(a.elem(cells[0]), a.elem(cells[i]))
	}
}

// Merge folds the observations of o into a.
func (a *AccessGroups) Merge(o *AccessGroups) {
	for c := range o.elems {
		a.elem(c)
	}
	for _, group := range o.Groups() {
		a.closeSection(group)
	}
	for c, n := range o.unprotected {
		a.unprotected[c] += n
	}
	for c, n := range o.protected {
		a.protected[c] += n
	}
	for c, gs := range o.guards {
		mine, ok := a.guards[c]
		if !ok {
			mine = map[int]struct{}{}
			a.guards[c] = mine
		}
		for m := range gs {
			mine[m] = struct{}{}
		}
	}
}

// Groups returns the partition of the accessed cells. Cells within a group
// and the groups themselves are ordered by cell.
func (a *AccessGroups) Groups() [][]scenario.Cell {
	byRep := map[*uf.Element][]scenario.Cell{}
	for c, el := range a.elems {
		rep := el.Find()
		byRep[rep] = append(byRep[rep], c)
	}

	groups := make([][]scenario.Cell, 0, len(byRep))
	for _, cells := range byRep {
		sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
		groups = append(groups, cells)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// SameGroup reports whether c1 and c2 were accessed in a common critical
// section, directly or transitively.
func (a *AccessGroups) SameGroup(c1, c2 scenario.Cell) bool {
	e1, ok1 := a.elems[c1]
	e2, ok2 := a.elems[c2]
	return ok1 && ok2 && e1.Find() == e2.Find()
}

func (a *AccessGroups) Unprotected(c scenario.Cell) int { return a.unprotected[c] }
func (a *AccessGroups) Protected(c scenario.Cell) int   { return a.protected[c] }

// Guards returns the mutexes held during protected accesses to c.
func (a *AccessGroups) Guards(c scenario.Cell) []int {
	ms := make([]int, 0, len(a.guards[c]))
	for m := range a.guards[c] {
		ms = append(ms, m)
	}
	sort.Ints(ms)
	return ms
}

func (a *AccessGroups) String() string {
	var sb strings.Builder
	for _, group := range a.Groups() {
		names := make([]string, len(group))
		for i, c := range group {
			names[i] = c.String()
		}
		fmt.Fprintf(&sb, "{%s}", strings.Join(names, ", "))
		for _, c := range group {
			guards := make([]string, 0)
			for _, m := range a.Guards(c) {
				guards = append(guards, fmt.Sprintf("m%d", m))
			}
			fmt.Fprintf(&sb, " %s: guarded by [%s], %d protected, %d unprotected",
				c, strings.Join(guards, " "), a.protected[c], a.unprotected[c])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
