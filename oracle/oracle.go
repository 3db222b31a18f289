// Package oracle provides sources of unconstrained integers.
package oracle

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

// Oracle returns an arbitrary integer on every call.
// Implementations are safe for concurrent use.
type Oracle interface {
	Int() int64
}

type fixed int64

// Fixed always returns x.
func Fixed(x int64) Oracle { return fixed(x) }

func (f fixed) Int() int64 { return int64(f) }

func (f fixed) String() string { return fmt.Sprintf("fixed:%d", int64(f)) }

type sequence struct {
	mu   sync.Mutex
	xs   []int64
	next int
}

// Sequence returns xs in order, starting over after the last element.
func Sequence(xs ...int64) Oracle {
	if len(xs) == 0 {
		panic("oracle: empty sequence")
	}
	return &sequence{xs: append([]int64(nil), xs...)}
}

func (s *sequence) Int() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	x := s.xs[s.next]
	s.next = (s.next + 1) % len(s.xs)
	return x
}

func (s *sequence) String() string {
	strs := make([]string, len(s.xs))
	for i, x := range s.xs {
		strs[i] = strconv.FormatInt(x, 10)
	}
	return "seq:" + strings.Join(strs, ",")
}

type random struct {
	mu   sync.Mutex
	seed int64
	rnd  *rand.Rand
}

// Random draws uniformly from the full int64 range.
func Random(seed int64) Oracle {
	return &random{seed: seed, rnd: rand.New(rand.NewSource(seed))}
}

func (r *random) Int() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(r.rnd.Uint64())
}

func (r *random) String() string { return fmt.Sprintf("random:%d", r.seed) }

// AdversarialValues are the values cycled through by Adversarial.
var AdversarialValues = []int64{math.MinInt64, math.MaxInt64, 0, -1, 1, 2}

type adversarial struct {
	*sequence
}

// Adversarial cycles through boundary values, including the initial value
// of the shared cells and values adjacent to it.
func Adversarial() Oracle {
	return adversarial{Sequence(AdversarialValues...).(*sequence)}
}

func (adversarial) String() string { return "adversarial" }

// Parse builds an oracle from its textual form:
//
//	fixed:7
//	seq:1,2,7
//	random:42
//	adversarial
func Parse(desc string) (Oracle, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(desc), ":")
	switch kind {
	case "fixed":
		x, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("oracle %q: %w", desc, err)
		}
		return Fixed(x), nil
	case "seq":
		xs, err := ParseValues(arg)
		if err != nil {
			return nil, fmt.Errorf("oracle %q: %w", desc, err)
		}
		return Sequence(xs...), nil
	case "random":
		seed := int64(1)
		if arg != "" {
			var err error
			if seed, err = strconv.ParseInt(arg, 10, 64); err != nil {
				return nil, fmt.Errorf("oracle %q: %w", desc, err)
			}
		}
		return Random(seed), nil
	case "adversarial":
		return Adversarial(), nil
	}
	return nil, fmt.Errorf("oracle %q: unknown kind %q", desc, kind)
}

// ParseValues parses a non-empty comma separated list of integers.
func ParseValues(list string) ([]int64, error) {
	var xs []int64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		x, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, err
		}
		xs = append(xs, x)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("no values in %q", list)
	}
	return xs, nil
}
