package testutil

import (
	"golang.org/x/tools/go/expect"
)

type Annotation interface {
	// Returns related annotations (created from notes on the same line).
	Related() annList
	String() string

	Note() *expect.Note
	Name() string
	Manager() NotesManager
}

// AnnVerdict expects the check at Site to have the verdict named by the note.
type AnnVerdict struct {
	basicAnnotation
	site string
}

func (a AnnVerdict) Site() string {
	return a.site
}

// Verdict is one of holds, unknown, violated and unreached.
func (a AnnVerdict) Verdict() string {
	return a.note.Name
}

func (a AnnVerdict) String() string {
	npos := a.mgr.fset.Position(a.note.Pos)
	return At(a.note.Name+"("+a.site+")") + " at " + npos.String()
}
