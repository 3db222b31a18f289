package explore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cs-au-dk/tracesmin/sched"
	"github.com/cs-au-dk/tracesmin/scenario"
	"github.com/cs-au-dk/tracesmin/utils"
	"github.com/cs-au-dk/tracesmin/utils/dot"
	"github.com/cs-au-dk/tracesmin/utils/hmap"
)

// State is the scheduler-visible configuration between two steps of a run.
// PCs[i] counts the events executed by thread i, with trailing zeros
// trimmed. Holder is the thread holding the pair's mutex, or -1.
type State struct {
	Value  int64
	PCs    []int
	G, H   int64
	Holder int
	// End is empty for intermediate states and names the outcome of the
	// run for its last state.
	End string
}

func initialState(x int64) State {
	return State{Value: x, Holder: -1}
}

func (s State) Hash() uint32 {
	hs := []uint32{
		utils.HashInt64(s.Value),
		utils.HashInt64(s.G),
		utils.HashInt64(s.H),
		uint32(s.Holder + 1),
	}
	for _, pc := range s.PCs {
		hs = append(hs, uint32(pc))
	}
	for _, c := range []byte(s.End) {
		hs = append(hs, uint32(c))
	}
	return utils.HashCombine(hs...)
}

func (s State) Equal(o State) bool {
	if s.Value != o.Value || s.G != o.G || s.H != o.H ||
		s.Holder != o.Holder || s.End != o.End || len(s.PCs) != len(o.PCs) {
		return false
	}
	for i, pc := range s.PCs {
		if pc != o.PCs[i] {
			return false
		}
	}
	return true
}

func (s State) String() string {
	pcs := make([]string, len(s.PCs))
	for i, pc := range s.PCs {
		pcs[i] = fmt.Sprint(pc)
	}
	holder := "-"
	if s.Holder >= 0 {
		holder = fmt.Sprint(s.Holder)
	}
	str := fmt.Sprintf("x=%d pc=[%s] g=%d h=%d m0=%s", s.Value, strings.Join(pcs, " "), s.G, s.H, holder)
	if s.End != "" {
		str += " " + s.End
	}
	return str
}

// next returns the state after step.
func (s State) next(step sched.Step) State {
	n := s
	n.End = ""
	n.PCs = make([]int, len(s.PCs), len(s.PCs)+1)
	copy(n.PCs, s.PCs)
	for len(n.PCs) <= int(step.Thread) {
		n.PCs = append(n.PCs, 0)
	}
	n.PCs[step.Thread]++

	ev := step.Event
	switch ev.Op {
	case scenario.OpStore:
		if ev.Cell == scenario.CellG {
			n.G = ev.Value
		} else {
			n.H = ev.Value
		}
	case scenario.OpLock:
		if ev.Mutex == 0 {
			n.Holder = int(step.Thread)
		}
	case scenario.OpUnlock:
		if ev.Mutex == 0 {
			n.Holder = -1
		}
	}
	return n
}

// StateGraph merges the traces of many runs into a graph of distinct states.
type StateGraph struct {
	index *hmap.Map[State, int]
	nodes []State
	succs []map[string]int
	edges int
}

func NewStateGraph() *StateGraph {
	return &StateGraph{index: hmap.NewMap[int](utils.HashableHasher[State]())}
}

// add returns the node of s, creating it if s is new.
func (g *StateGraph) add(s State) int {
	if id, ok := g.index.GetOk(s); ok {
		return id
	}
	id := len(g.nodes)
	g.index.Set(s, id)
	g.nodes = append(g.nodes, s)
	g.succs = append(g.succs, map[string]int{})
	return id
}

func (g *StateGraph) link(from, to int, label string) {
	if _, ok := g.succs[from][label]; !ok {
		g.edges++
	}
	g.succs[from][label] = to
}

// AddRun adds the states visited by res, which ran with oracle value x.
func (g *StateGraph) AddRun(x int64, res sched.Result) {
	cur := initialState(x)
	from := g.add(cur)
	for i, step := range res.Trace {
		cur = cur.next(step)
		if i == len(res.Trace)-1 {
			cur.End = res.Outcome.String()
		}
		to := g.add(cur)
		g.link(from, to, fmt.Sprintf("%s: %s", res.Threads[step.Thread], step.Event))
		from = to
	}
}

// Merge adds every state and edge of o to g.
func (g *StateGraph) Merge(o *StateGraph) {
	for from, succs := range o.succs {
		f := g.add(o.nodes[from])
		for label, to := range succs {
			g.link(f, g.add(o.nodes[to]), label)
		}
	}
}

func (g *StateGraph) Len() int   { return len(g.nodes) }
func (g *StateGraph) Edges() int { return g.edges }

// States returns the states in insertion order.
func (g *StateGraph) States() []State {
	return g.nodes
}

// Successors returns the outgoing edges of s keyed by label.
func (g *StateGraph) Successors(s State) map[string]State {
	id, ok := g.index.GetOk(s)
	if !ok {
		return nil
	}
	res := make(map[string]State, len(g.succs[id]))
	for label, to := range g.succs[id] {
		res[label] = g.nodes[to]
	}
	return res
}

// ToDot draws one cluster per oracle value. Aborted end states are red,
// other end states green.
func (g *StateGraph) ToDot(title string) *dot.DotGraph {
	dg := &dot.DotGraph{
		Title:   title,
		Options: map[string]string{"nodesep": "0.2"},
	}

	clusters := map[int64]*dot.DotCluster{}
	nodes := make([]*dot.DotNode, len(g.nodes))
	for id, s := range g.nodes {
		cl, ok := clusters[s.Value]
		if !ok {
			cl = dot.NewDotCluster(fmt.Sprint(len(dg.Clusters)))
			cl.Attrs["label"] = fmt.Sprintf("x = %d", s.Value)
			clusters[s.Value] = cl
			dg.Clusters = append(dg.Clusters, cl)
		}

		n := &dot.DotNode{
			ID:    fmt.Sprintf("s%d", id),
			Attrs: dot.DotAttrs{"label": s.String()},
		}
		switch {
		case s.End == sched.OutcomeAborted.String():
			n.Attrs["fillcolor"] = "lightpink"
		case s.End != "":
			n.Attrs["fillcolor"] = "palegreen"
		}
		nodes[id] = n
		cl.Nodes = append(cl.Nodes, n)
	}

	for from, succs := range g.succs {
		labels := make([]string, 0, len(succs))
		for label := range succs {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			dg.Edges = append(dg.Edges, &dot.DotEdge{
				From:  nodes[from],
				To:    nodes[succs[label]],
				Attrs: dot.DotAttrs{"label": label},
			})
		}
	}
	return dg
}
