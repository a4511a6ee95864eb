// Package reconcile implements the two-phase diff that brings an
// on-disk runfiles tree into exact agreement with a DesiredState: scan
// and prune whatever doesn't belong (Phase A), then create whatever is
// still missing (Phase B).
package reconcile

import (
	"fmt"
	"os"
	"path"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dslomov/bazel/internal/diag"
	"github.com/dslomov/bazel/internal/pathops"
	"github.com/dslomov/bazel/internal/runfiles"
)

// HardlinkEquivalenceMode resolves the open question of how strictly
// to decide an existing hardlink still points at the right target.
type HardlinkEquivalenceMode int

const (
	// Strict requires the existing path's physical file identity to
	// match a fresh stat of the desired target — the only mode that
	// can't be fooled by a stale hardlink that happens to still have
	// Nlink > 1 pointing at some other now-unrelated file.
	Strict HardlinkEquivalenceMode = iota
	// Lenient accepts any existing regular file with Nlink > 1,
	// regardless of which file it's actually linked to. Cheaper, but
	// can't detect a hardlink that drifted to the wrong source.
	Lenient
)

// Options configures a Reconciler's link-flavor and platform policy.
type Options struct {
	// WindowsCompatible makes Phase B realize symlink entries as
	// hardlinks (file targets) or junctions (directory targets)
	// instead of POSIX symlinks, for trees consumed on Windows.
	WindowsCompatible bool
	HardlinkEquivalence HardlinkEquivalenceMode
	Logger            zerolog.Logger
}

// Reconciler drives the scan-and-prune / create-files algorithm
// against a PathOps-backed filesystem.
type Reconciler struct {
	ops     pathops.Ops
	desired *runfiles.DesiredState
	opts    Options
}

// New builds a Reconciler for desired, operating through ops.
func New(ops pathops.Ops, desired *runfiles.DesiredState, opts Options) *Reconciler {
	return &Reconciler{ops: ops, desired: desired, opts: opts}
}

// ScanAndPrune walks root depth-first. Every entry that already
// matches the desired state is left alone (and, if it's a directory,
// recursed into); everything else is deleted wholesale with DelTree so
// CreateFiles starts from a tree that is a pure subset of desired.
func (r *Reconciler) ScanAndPrune(root string) error {
	return r.scanDir(root, "")
}

// scanDir walks the directory at root+"/"+relpath (relpath == "" at
// the top). relpath is the DesiredState key space; root is the real
// filesystem path.
func (r *Reconciler) scanDir(root, relpath string) error {
	dirPath := joinRoot(root, relpath)
	if err := r.ops.EnsureMode(dirPath, 0700); err != nil {
		return diag.Wrapf(err, diag.FilesystemError, "ensuring mode of %q", dirPath)
	}

	names, err := r.ops.IterDir(dirPath)
	if err != nil {
		return diag.Wrapf(err, diag.FilesystemError, "listing %q", dirPath)
	}
	sort.Strings(names)

	for _, name := range names {
		childRel := joinRel(relpath, name)
		childPath := joinRoot(root, childRel)

		actual, err := r.ops.Lstat(childPath)
		if err != nil {
			return diag.Wrapf(err, diag.FilesystemError, "stat %q", childPath)
		}
		desired, wanted := r.desired.Get(childRel)

		if wanted && r.alreadyCorrect(childPath, actual, desired) {
			r.opts.Logger.Debug().Str("path", childRel).Msg("kept")
			if desired.Kind == runfiles.Directory {
				if err := r.scanDir(root, childRel); err != nil {
					return err
				}
			}
			continue
		}

		r.opts.Logger.Debug().Str("path", childRel).Msg("deleted")
		if err := r.delTree(childPath, actual.Kind); err != nil {
			return diag.Wrapf(err, diag.FilesystemError, "removing stale entry %q", childPath)
		}
	}
	return nil
}

// alreadyCorrect reports whether the actual on-disk entry at path
// already satisfies desired, without performing any mutation.
func (r *Reconciler) alreadyCorrect(path string, actual pathops.Info, desired runfiles.Entry) bool {
	switch desired.Kind {
	case runfiles.Directory:
		return actual.Kind == pathops.DirectoryKind
	case runfiles.Regular:
		return actual.Kind == pathops.RegularKind
	case runfiles.Symlink:
		return r.symlinkAlreadyCorrect(path, actual, desired)
	}
	return false
}

func (r *Reconciler) symlinkAlreadyCorrect(path string, actual pathops.Info, desired runfiles.Entry) bool {
	if !r.opts.WindowsCompatible {
		return actual.Kind == pathops.SymlinkKind && actual.LinkTarget == desired.Target
	}

	// WindowsCompatible: desired.Target was realized as a hardlink
	// (file) or junction (directory); decide which by checking what
	// the target currently is.
	targetInfo, err := r.ops.Stat(desired.Target)
	if err != nil || targetInfo.Kind == pathops.NotExist {
		return false
	}
	if targetInfo.Kind == pathops.DirectoryKind {
		return actual.Kind == pathops.SymlinkKind && actual.LinkTarget == desired.Target
	}

	if actual.Kind != pathops.RegularKind {
		return false
	}
	switch r.opts.HardlinkEquivalence {
	case Strict:
		same, err := r.ops.SameFile(path, desired.Target)
		return err == nil && same
	default: // Lenient
		return actual.NumLinks > 1
	}
}

// delTree removes path, recursing first if it is a directory.
func (r *Reconciler) delTree(p string, kind pathops.Kind) error {
	if kind != pathops.DirectoryKind {
		return r.remove(p, r.ops.Unlink)
	}
	names, err := r.ops.IterDir(p)
	if err != nil {
		return err
	}
	for _, name := range names {
		child := p + "/" + name
		info, err := r.ops.Lstat(child)
		if err != nil {
			return err
		}
		if err := r.delTree(child, info.Kind); err != nil {
			return err
		}
	}
	return r.remove(p, r.ops.Rmdir)
}

var trashCounter atomic.Uint64

// remove calls removeFn and, when that fails in windows_compatible
// mode, falls back to moving the entry aside into bazel-trash instead
// of propagating the error — a busy handle on one stale entry (an
// editor, an antivirus scanner holding it open) shouldn't fail an
// entire reconciliation run.
func (r *Reconciler) remove(p string, removeFn func(string) error) error {
	err := removeFn(p)
	if err == nil || !r.opts.WindowsCompatible {
		return err
	}
	tag := fmt.Sprintf("%d-%d-%d", time.Now().UnixNano(), os.Getpid(), trashCounter.Add(1))
	if trashErr := pathops.Trash(r.ops, p, tag); trashErr != nil {
		return err
	}
	r.opts.Logger.Debug().Str("path", p).Msg("moved busy entry to bazel-trash")
	return nil
}

func joinRoot(root, relpath string) string {
	if relpath == "" {
		return root
	}
	return root + "/" + relpath
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return path.Join(parent, name)
}
