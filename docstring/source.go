package docstring

import (
	"fmt"
	"go/ast"
	"go/doc"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source holds the doc comments of one Go package, so handlers can carry
// their directives in ordinary Go comments.
type Source struct {
	// Package is the package doc comment.
	Package string
	// Funcs maps function and method names to their doc comments.
	Funcs map[string]string
}

// Func returns the doc comment of the function or method called name.
func (s *Source) Func(name string) (string, bool) {
	d, ok := s.Funcs[name]
	return d, ok
}

// FromSource parses the non-test Go files of the package in dir.
func FromSource(dir string) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	byPkg := make(map[string][]*ast.File)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		byPkg[f.Name.Name] = append(byPkg[f.Name.Name], f)
	}
	if len(byPkg) == 0 {
		return nil, fmt.Errorf("no Go files in %s", dir)
	}
	if len(byPkg) > 1 {
		names := make([]string, 0, len(byPkg))
		for name := range byPkg {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("multiple packages in %s: %s", dir, strings.Join(names, ", "))
	}

	var files []*ast.File
	for _, fs := range byPkg {
		files = fs
	}
	pkg, err := doc.NewFromFiles(fset, files, dir, doc.AllDecls)
	if err != nil {
		return nil, err
	}

	src := &Source{Package: pkg.Doc, Funcs: make(map[string]string)}
	add := func(funcs []*doc.Func) {
		for _, f := range funcs {
			src.Funcs[f.Name] = f.Doc
		}
	}
	add(pkg.Funcs)
	for _, t := range pkg.Types {
		add(t.Funcs)
		add(t.Methods)
	}
	return src, nil
}
