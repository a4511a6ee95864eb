// Package runfiles holds the manifest grammar and the desired-state
// model the reconciler diffs the output tree against.
package runfiles

import (
	"sort"
	"strings"

	"github.com/dslomov/bazel/internal/diag"
)

// FileKind is the logical kind of a desired-state entry. It is
// deliberately narrower than the physical link flavor a Reconciler
// eventually picks (symlink, hardlink, junction) — that choice is a
// platform/flag decision made later, not something the manifest
// encodes.
type FileKind int

const (
	Regular FileKind = iota
	Directory
	Symlink
)

func (k FileKind) String() string {
	switch k {
	case Regular:
		return "regular"
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Entry is what the manifest says should exist at a relative path.
type Entry struct {
	Kind   FileKind
	Target string // only meaningful when Kind == Symlink
}

// DesiredState is the parsed manifest: a path-to-Entry map plus the
// synthesized ancestor directories, kept sortable so the reconciler's
// create phase can process shorter paths before the children that
// live inside them.
type DesiredState struct {
	entries map[string]Entry
}

// NewDesiredState returns an empty DesiredState.
func NewDesiredState() *DesiredState {
	return &DesiredState{entries: make(map[string]Entry)}
}

// Get returns the entry at path and whether it exists.
func (d *DesiredState) Get(path string) (Entry, bool) {
	e, ok := d.entries[path]
	return e, ok
}

// Len reports the number of entries, including synthesized ancestors.
func (d *DesiredState) Len() int { return len(d.entries) }

// Paths returns every relative path in the desired state, sorted so
// that a directory always precedes anything nested under it — the
// order CreateFiles must walk in.
func (d *DesiredState) Paths() []string {
	paths := make([]string, 0, len(d.entries))
	for p := range d.entries {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		return shallowerFirst(paths[i], paths[j])
	})
	return paths
}

func shallowerFirst(a, b string) bool {
	da, db := strings.Count(a, "/"), strings.Count(b, "/")
	if da != db {
		return da < db
	}
	return a < b
}

// Set records a leaf entry (Regular or Symlink) for path, and
// synthesizes Directory entries for every ancestor of path that is
// not already present, stopping at the first ancestor already known —
// matching the original manifest reader's parent-walk termination.
//
// It returns a ParseError if an ancestor of path is already present
// as a non-Directory entry: the manifest demoted a file to a
// directory, which the reconciler has no sound way to act on.
func (d *DesiredState) Set(path string, entry Entry) error {
	if existing, ok := d.entries[path]; ok && existing.Kind == Directory && entry.Kind != Directory {
		return diag.Newf(diag.ParseError,
			"path %q was already synthesized as a directory ancestor, cannot also be a %s", path, entry.Kind)
	}
	d.entries[path] = entry

	child := path
	for {
		idx := strings.LastIndexByte(child, '/')
		if idx < 0 {
			break
		}
		parent := child[:idx]
		existing, ok := d.entries[parent]
		if ok {
			if existing.Kind != Directory {
				return diag.Newf(diag.ParseError,
					"path %q must be a directory because %q is nested inside it, but it was already declared as %s",
					parent, path, existing.Kind)
			}
			break
		}
		d.entries[parent] = Entry{Kind: Directory}
		child = parent
	}
	return nil
}
