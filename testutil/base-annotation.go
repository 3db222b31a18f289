package testutil

import (
	"fmt"
	"strings"

	"golang.org/x/tools/go/expect"
)

type basicAnnotation struct {
	note *expect.Note
	mgr  NotesManager
}

func (a basicAnnotation) Note() *expect.Note {
	return a.note
}

func (a basicAnnotation) Name() string {
	return a.note.Name
}

func (a basicAnnotation) Manager() NotesManager {
	return a.mgr
}

type annList []Annotation

// Returns all annotations found on the same line as the given annotation.
func (a1 basicAnnotation) Related() annList {
	as := make([]Annotation, 0, len(a1.mgr.related[a1.note]))

	for n2 := range a1.mgr.related[a1.note] {
		as = append(as, a1.mgr.AnnotationOf(n2))
	}

	return as
}

func (a basicAnnotation) String() string {
	npos := a.mgr.fset.Position(a.note.Pos)
	args := make([]string, 0, len(a.note.Args))
	for _, arg := range a.note.Args {
		args = append(args, fmt.Sprintf("%v", arg))
	}
	return "//@ Basic annotation: " + a.note.Name + "(" +
		strings.Join(args, ", ") + ") at " + npos.String()
}

func (la annList) Filter(pred func(Annotation) bool) annList {
	res := make([]Annotation, 0, len(la))

	for _, a := range la {
		if pred(a) {
			res = append(res, a)
		}
	}

	return res
}

func (la annList) Find(pred func(Annotation) bool) (Annotation, bool) {
	for _, a := range la {
		if pred(a) {
			return a, true
		}
	}

	return nil, false
}

func (la annList) Exists(pred func(Annotation) bool) bool {
	_, found := la.Find(pred)
	return found
}
