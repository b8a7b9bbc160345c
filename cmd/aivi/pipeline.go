package main

import (
	"fmt"
	"os"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
	"github.com/mendrik/aivi/internal/hir"
	"github.com/mendrik/aivi/internal/parser"
	"github.com/mendrik/aivi/internal/target"
)

// loadModule resolves targetArg to a single file (directory/glob targets
// are flattened; callers that only support one file use the first
// match) and parses it, returning the parse diagnostics without printing
// them.
func loadModule(targetArg string) (*ast.Module, string, []diag.FileDiagnostic, error) {
	resolved, err := target.Resolve(targetArg)
	if err != nil {
		return nil, "", nil, err
	}
	var path string
	switch resolved.Kind {
	case target.File:
		path = resolved.Root
	case target.Directory:
		if len(resolved.Files) == 0 {
			return nil, "", nil, fmt.Errorf("no .aivi files found under %s", targetArg)
		}
		path = resolved.Files[0]
	default:
		return nil, "", nil, fmt.Errorf("embedded targets are not readable from disk: %s", targetArg)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", nil, err
	}
	p := parser.New(string(src), path)
	mod := p.ParseModule()
	fds := toFileDiags(path, p.Diagnostics())
	return mod, path, fds, nil
}

func toFileDiags(path string, diags []diag.Diagnostic) []diag.FileDiagnostic {
	out := make([]diag.FileDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = diag.FileDiagnostic{Path: path, Diag: d}
	}
	return out
}

// reportAndExit prints diagnostics (sorted, deterministic) and exits with
// status 1 if any of them is an error (§6.2); otherwise it returns.
func reportAndExit(fds []diag.FileDiagnostic) {
	if len(fds) == 0 {
		return
	}
	diag.SortBatch(fds)
	for _, fd := range fds {
		fmt.Fprintln(os.Stderr, diag.Render(fd))
	}
	if code := diag.ExitCode(fds); code != 0 {
		os.Exit(code)
	}
}

func desugarModule(mod *ast.Module) (*hir.Program, []diag.FileDiagnostic, string) {
	d := hir.NewDesugarer()
	prog := d.Desugar(mod)
	return prog, nil, mod.Name
}
