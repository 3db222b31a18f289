package testutil

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/tools/go/expect"
)

var (
	id_HOLDS     = "holds"
	id_UNKNOWN   = "unknown"
	id_VIOLATED  = "violated"
	id_UNREACHED = "unreached"
)

type annFactory struct{}

// Factory for creating annotation strings. Interpolate results with Go
// source code. Wrap multiple factory calls in the At function to
// concatenate multiple annotations on the same line and prefix with "//@ "
var Ann = annFactory{}

// The check at the site passes in every schedule.
func (annFactory) Holds(site string) string {
	return id_HOLDS + "(" + strconv.Quote(site) + ")"
}

// The check at the site passes in some schedules and fails in others.
func (annFactory) Unknown(site string) string {
	return id_UNKNOWN + "(" + strconv.Quote(site) + ")"
}

// The check at the site fails whenever it is reached.
func (annFactory) Violated(site string) string {
	return id_VIOLATED + "(" + strconv.Quote(site) + ")"
}

// No schedule reaches the site.
func (annFactory) Unreached(site string) string {
	return id_UNREACHED + "(" + strconv.Quote(site) + ")"
}

// At joins annotations into a single note comment.
func At(anns ...string) string {
	return "//@ " + strings.Join(anns, ", ")
}

func (n NotesManager) CreateAnnotation(note *expect.Note) (Annotation, error) {
	base := basicAnnotation{note: note, mgr: n}

	switch note.Name {
	case id_HOLDS, id_UNKNOWN, id_VIOLATED, id_UNREACHED:
		if len(note.Args) != 1 {
			return nil, fmt.Errorf("%s: %s expects one site, got %d arguments",
				n.fset.Position(note.Pos), note.Name, len(note.Args))
		}
		site, ok := note.Args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s: %s expects a string site, got %T",
				n.fset.Position(note.Pos), note.Name, note.Args[0])
		}
		return AnnVerdict{basicAnnotation: base, site: site}, nil
	}

	return nil, fmt.Errorf("%s: unknown note %q", n.fset.Position(note.Pos), note.Name)
}
