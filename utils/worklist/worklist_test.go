package worklist

import "testing"

func TestDepthFirst(t *testing.T) {
	// Binary tree over 1..7, children of n are 2n and 2n+1.
	var order []int
	Start(1, func(n int, add func(int)) bool {
		order = append(order, n)
		if 2*n+1 <= 7 {
			add(2*n + 1)
			add(2 * n)
		}
		return true
	})

	expected := []int{1, 2, 4, 5, 3, 6, 7}
	if len(order) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, order)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, order)
		}
	}
}

func TestStop(t *testing.T) {
	visited := 0
	StartV([]int{1, 2, 3}, func(int, func(int)) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("expected processing to stop after 2 elements, got %d", visited)
	}

	W := Empty[string]()
	if !W.IsEmpty() || W.GetNext() != "" {
		t.Error("expected an empty worklist")
	}
	W.Add("a")
	W.Add("b")
	if W.Len() != 2 || W.GetNext() != "b" {
		t.Error("expected last-in first-out order")
	}
}
