package worklist

// Worklist is a last-in first-out worklist, so processing it explores
// depth-first.
type Worklist[T any] struct {
	list []T
}

// Start worklist execution with provided `starting` element and an iteration
// function. The iteration function exposes the next element and a function with
// which to add more elements to the worklist. Returning false from the
// iteration function stops processing.
func Start[T any](start T, do func(next T, add func(el T)) bool) {
	StartV([]T{start}, do)
}

// Start worklist execution with a preloaded stack.
func StartV[T any](start []T, do func(next T, add func(el T)) bool) {
	W := Empty[T]()
	for _, e := range start {
		W.Add(e)
	}

	W.Process(do)
}

func Empty[T any]() Worklist[T] {
	return Worklist[T]{}
}

func (w *Worklist[T]) GetNext() (ret T) {
	if len(w.list) == 0 {
		return
	}
	last := len(w.list) - 1
	next := w.list[last]
	w.list = w.list[:last]
	return next
}

func (w *Worklist[T]) IsEmpty() bool {
	return len(w.list) == 0
}

func (w *Worklist[T]) Len() int {
	return len(w.list)
}

func (w *Worklist[T]) Process(
	do func(
		next T,
		add func(element T)) bool) {
	for !w.IsEmpty() {
		if !do(w.GetNext(), w.Add) {
			return
		}
	}
}

func (w *Worklist[T]) Add(el T) {
	w.list = append(w.list, el)
}
