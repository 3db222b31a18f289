// Package testutil reads the expectation notes attached to check sites.
//
// A note is a comment of the form
//
//	s.check(site, g, h) //@ holds("site")
//
// recognised by golang.org/x/tools/go/expect.
package testutil

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"runtime"
	"testing"
)

// ParseFiles parses the given Go files with comments.
func ParseFiles(t *testing.T, paths ...string) (*token.FileSet, []*ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	files := make([]*ast.File, 0, len(paths))
	for _, path := range paths {
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			t.Fatal(err)
		}
		files = append(files, file)
	}
	return fset, files
}

// ParseSource parses src as the file name.
func ParseSource(t *testing.T, name, src string) (*token.FileSet, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name, src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	return fset, file
}

// ScenarioSource is the path of the file holding the scenario's check sites.
func ScenarioSource() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "scenario", "scenario.go")
}

// ScenarioNotes loads the notes of the scenario's check sites.
func ScenarioNotes(t *testing.T) NotesManager {
	t.Helper()
	fset, files := ParseFiles(t, ScenarioSource())
	return MakeNotesManager(t, fset, files...)
}
