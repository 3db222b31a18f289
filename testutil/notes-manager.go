package testutil

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"testing"

	"golang.org/x/tools/go/expect"
)

type NotesManager struct {
	fset  *token.FileSet
	anns  map[*expect.Note]Annotation
	notes []*expect.Note

	// Book-keeping of notes on the same line
	related map[*expect.Note]map[*expect.Note]struct{}
}

func MakeNotesManager(t *testing.T, fset *token.FileSet, files ...*ast.File) (n NotesManager) {
	t.Helper()
	n.fset = fset
	n.anns = make(map[*expect.Note]Annotation)

	for _, file := range files {
		notes, err := expect.ExtractGo(fset, file)
		if err != nil {
			t.Fatal(err)
		}

		n.notes = append(n.notes, notes...)
	}

	n.related = make(map[*expect.Note]map[*expect.Note]struct{})
	for _, note1 := range n.notes {
		if _, found := n.related[note1]; !found {
			n.related[note1] = make(map[*expect.Note]struct{})
		}

		npos1 := fset.Position(note1.Pos)

		for _, note2 := range n.notes {
			if note1 == note2 {
				continue
			}

			npos2 := fset.Position(note2.Pos)

			if npos1.Filename == npos2.Filename &&
				npos1.Line == npos2.Line {
				n.related[note1][note2] = struct{}{}
			}
		}
	}

	for _, note := range n.notes {
		ann, err := n.CreateAnnotation(note)
		if err != nil {
			t.Fatal(err)
		}
		n.anns[note] = ann
	}
	return
}

func (n NotesManager) ForEachAnnotation(do func(a Annotation)) {
	for _, note := range n.notes {
		do(n.anns[note])
	}
}

func (n NotesManager) AnnotationOf(note *expect.Note) Annotation {
	return n.anns[note]
}

func (n NotesManager) Notes() []*expect.Note {
	return n.notes
}

func (n NotesManager) FindAllAnnotations(pred func(Annotation) bool) annList {
	res := []Annotation{}

	for _, note := range n.notes {
		if ann := n.anns[note]; pred(ann) {
			res = append(res, ann)
		}
	}

	return res
}

// Verdicts maps every annotated site to its expected verdict.
func (n NotesManager) Verdicts() map[string]AnnVerdict {
	res := make(map[string]AnnVerdict)
	n.ForEachAnnotation(func(a Annotation) {
		if v, ok := a.(AnnVerdict); ok {
			res[v.Site()] = v
		}
	})
	return res
}

func (n NotesManager) String() (str string) {
	str = "Note manager found the following notes:\n\n"
	lines := make([]string, 0, len(n.notes))
	for _, note := range n.notes {
		lines = append(lines, n.anns[note].String())
	}
	sort.Strings(lines)
	for _, line := range lines {
		str += fmt.Sprintln(line)
	}
	return
}
