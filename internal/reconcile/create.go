package reconcile

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"

	"github.com/dslomov/bazel/internal/diag"
	"github.com/dslomov/bazel/internal/pathops"
	"github.com/dslomov/bazel/internal/runfiles"
)

// CreateFiles realizes every DesiredState entry not already present
// after ScanAndPrune, visiting shallower paths first so a directory
// always exists before anything synthfs or pathops tries to create
// inside it.
//
// Directories, empty regular files, and POSIX symlinks go through a
// synthfs pipeline — the batch-creation tool the rest of this stack
// already uses. Hardlinks and junctions have no synthfs operation
// type, so windows_compatible entries are realized directly through
// pathops instead.
func (r *Reconciler) CreateFiles(root string) error {
	pipeline := synthfs.NewMemPipeline()
	fsys := filesystem.NewOSFileSystem(root)

	var directOps, pipelined []string
	for _, relpath := range r.desired.Paths() {
		entry, _ := r.desired.Get(relpath)

		actual, err := r.ops.Lstat(joinRoot(root, relpath))
		if err != nil {
			return diag.Wrapf(err, diag.FilesystemError, "stat %q before create", relpath)
		}
		if actual.Kind != pathops.NotExist {
			continue // ScanAndPrune already confirmed this one matches
		}

		op, needsDirectOp, err := r.convertEntry(relpath, entry)
		if err != nil {
			return err
		}
		if needsDirectOp {
			directOps = append(directOps, relpath)
			continue
		}
		if op != nil {
			if err := pipeline.Add(op); err != nil {
				return diag.Wrapf(err, diag.FilesystemError, "queueing creation of %q", relpath)
			}
			pipelined = append(pipelined, relpath)
		}
	}

	executor := synthfs.NewExecutor()
	result := executor.Run(context.Background(), pipeline, fsys)
	if result.GetError() != nil {
		return diag.Wrapf(result.GetError(), diag.FilesystemError, "executing creation pipeline")
	}
	for _, relpath := range pipelined {
		r.opts.Logger.Debug().Str("path", relpath).Msg("created")
	}

	for _, relpath := range directOps {
		entry, _ := r.desired.Get(relpath)
		if err := r.createDirect(root, relpath, entry); err != nil {
			return err
		}
		r.opts.Logger.Debug().Str("path", relpath).Msg("created")
	}
	return nil
}

// convertEntry builds the synthfs operation for a path, or reports
// that it needs direct pathops handling (hardlink/junction cases that
// synthfs has no operation type for).
func (r *Reconciler) convertEntry(relpath string, entry runfiles.Entry) (synthfs.Operation, bool, error) {
	switch entry.Kind {
	case runfiles.Directory:
		opID := core.OperationID(fmt.Sprintf("mkdir-%s", relpath))
		op := operations.NewCreateDirectoryOperation(opID, relpath)
		op.SetItem(&dirItem{path: relpath, mode: 0777})
		return synthfs.NewOperationsPackageAdapter(op), false, nil

	case runfiles.Regular:
		opID := core.OperationID(fmt.Sprintf("touch-%s", relpath))
		op := operations.NewCreateFileOperation(opID, relpath)
		op.SetItem(&fileItem{path: relpath, mode: 0555})
		return synthfs.NewOperationsPackageAdapter(op), false, nil

	case runfiles.Symlink:
		if r.opts.WindowsCompatible {
			return nil, true, nil
		}
		opID := core.OperationID(fmt.Sprintf("symlink-%s", relpath))
		op := operations.NewCreateSymlinkOperation(opID, relpath)
		op.SetDescriptionDetail("target", entry.Target)
		op.SetItem(&symlinkItem{path: relpath, target: entry.Target})
		return synthfs.NewOperationsPackageAdapter(op), false, nil
	}
	return nil, false, diag.Newf(diag.LinkAlgorithmError, "unsupported entry kind for %q", relpath)
}

// createDirect realizes a windows_compatible symlink entry as a
// hardlink (file target) or junction (directory target), picking the
// physical algorithm from what the target currently is, exactly as
// the Reconciler's already_correct check does in reverse.
func (r *Reconciler) createDirect(root, relpath string, entry runfiles.Entry) error {
	targetInfo, err := r.ops.Stat(entry.Target)
	if err != nil {
		return diag.Wrapf(err, diag.FilesystemError, "stat target %q for %q", entry.Target, relpath)
	}
	linkPath := joinRoot(root, relpath)

	if targetInfo.Kind == pathops.DirectoryKind {
		if err := r.ops.MakeJunction(linkPath, entry.Target); err != nil {
			return diag.Wrapf(err, diag.LinkAlgorithmError, "creating junction %q -> %q", relpath, entry.Target)
		}
		return nil
	}
	if err := r.ops.MakeHardlink(linkPath, entry.Target); err != nil {
		return diag.Wrapf(err, diag.LinkAlgorithmError, "creating hardlink %q -> %q", relpath, entry.Target)
	}
	return nil
}

// Item types satisfying the interface synthfs operations require via
// SetItem — mirrors the fileItem/directoryItem/symlinkItem trio the
// rest of this stack already defines for its own synthfs pipeline,
// narrowed to what a runfiles entry actually carries (no content, no
// arbitrary mode beyond the two defaults used here).

type fileItem struct {
	path string
	mode fs.FileMode
}

func (f *fileItem) Path() string       { return f.path }
func (f *fileItem) Type() string       { return "file" }
func (f *fileItem) Content() []byte    { return nil }
func (f *fileItem) Mode() fs.FileMode  { return f.mode }
func (f *fileItem) IsDir() bool        { return false }
func (f *fileItem) ModTime() time.Time { return time.Now() }
func (f *fileItem) Size() int64        { return 0 }

type dirItem struct {
	path string
	mode fs.FileMode
}

func (d *dirItem) Path() string       { return d.path }
func (d *dirItem) Type() string       { return "directory" }
func (d *dirItem) Mode() fs.FileMode  { return d.mode }
func (d *dirItem) IsDir() bool        { return true }
func (d *dirItem) ModTime() time.Time { return time.Now() }
func (d *dirItem) Size() int64        { return 0 }

type symlinkItem struct {
	path   string
	target string
}

func (s *symlinkItem) Path() string   { return s.path }
func (s *symlinkItem) Type() string   { return "symlink" }
func (s *symlinkItem) Target() string { return s.target }
