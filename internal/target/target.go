// Package target resolves the CLI's shared target argument (spec §6.1):
// either a single source file or a `/...` directory glob, with embedded
// stdlib modules addressed by a synthetic `<embedded:...>` prefix and
// excluded from user-visible diagnostics by default.
package target

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind distinguishes the two concrete target shapes plus the synthetic
// embedded-module shape.
type Kind int

const (
	File Kind = iota
	Directory
	Embedded
)

const embeddedPrefix = "<embedded:"

// Resolved is the file set a CLI command should operate over.
type Resolved struct {
	Kind  Kind
	Root  string   // directory root for Directory targets, "" otherwise
	Files []string // absolute paths, sorted; len 1 for File/Embedded
}

// Resolve accepts a single file path or a `dir/...` glob and returns the
// ordered set of `.aivi` source files it names. Embedded synthetic paths
// pass through unresolved (there is no filesystem entry to stat).
func Resolve(arg string) (*Resolved, error) {
	if strings.HasPrefix(arg, embeddedPrefix) {
		return &Resolved{Kind: Embedded, Files: []string{arg}}, nil
	}

	if strings.HasSuffix(arg, "/...") {
		root := strings.TrimSuffix(arg, "/...")
		return resolveDirectory(root)
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, fmt.Errorf("cannot access target %q: %w", arg, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("target %q is a directory; use %q to select a tree", arg, arg+"/...")
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		abs = arg
	}
	return &Resolved{Kind: File, Files: []string{abs}}, nil
}

func resolveDirectory(root string) (*Resolved, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access target root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target root %q is not a directory", root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**/*.aivi")
	if err != nil {
		return nil, fmt.Errorf("globbing %q: %w", root, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(filepath.Join(root, m))
		if err != nil {
			abs = filepath.Join(root, m)
		}
		files = append(files, abs)
	}
	sort.Strings(files)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	return &Resolved{Kind: Directory, Root: absRoot, Files: files}, nil
}

// IsEmbedded reports whether path carries the synthetic embedded-module
// prefix, used by diagnostic rendering to exclude it by default (spec §6.1).
func IsEmbedded(path string) bool {
	return strings.HasPrefix(path, embeddedPrefix)
}
