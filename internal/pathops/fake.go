package pathops

import (
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/dslomov/bazel/internal/diag"
)

// node is one entry in the fake in-memory filesystem.
type node struct {
	kind       Kind
	mode       fs.FileMode
	linkTarget string
	// hardlinkGroup identifies files created via MakeHardlink that
	// should report NumLinks > 1 and share a SameFileTag, the way real
	// inodes do.
	hardlinkGroup uint64
}

// Fake is an in-memory Ops implementation, letting reconciler tests
// exercise every already_correct branch — including the Windows
// junction/hardlink paths — without touching a real filesystem or a
// real OS, the same role dodot's testutil.MockFS plays for types.FS,
// generalized to cover link flavors afero and fstest.MapFS can't model.
type Fake struct {
	nodes     map[string]*node
	nextHLTag uint64
	Windows   bool // when true, MakeJunction succeeds instead of erroring
	// Busy marks paths whose Unlink/Rmdir should fail once, as if held
	// open by another process, to exercise the Trash fallback.
	Busy map[string]bool
}

// NewFake returns an empty Fake rooted at "".
func NewFake() *Fake {
	return &Fake{nodes: map[string]*node{"": {kind: DirectoryKind, mode: 0755}}}
}

func clean(path string) string {
	path = strings.Trim(path, "/")
	if path == "." {
		return ""
	}
	return path
}

func (f *Fake) parent(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func (f *Fake) Lstat(path string) (Info, error) {
	path = clean(path)
	n, ok := f.nodes[path]
	if !ok {
		return Info{Kind: NotExist}, nil
	}
	info := Info{Kind: n.kind, Mode: n.mode, LinkTarget: n.linkTarget, ModTime: time.Unix(0, 0)}
	if n.hardlinkGroup != 0 {
		info.SameFileTag = n.hardlinkGroup
		info.NumLinks = f.countHardlinks(n.hardlinkGroup)
	}
	return info, nil
}

func (f *Fake) Stat(path string) (Info, error) {
	path = clean(path)
	n, ok := f.nodes[path]
	if !ok {
		return Info{Kind: NotExist}, nil
	}
	if n.kind == SymlinkKind {
		return f.Stat(n.linkTarget)
	}
	return f.Lstat(path)
}

func (f *Fake) countHardlinks(group uint64) uint64 {
	var n uint64
	for _, node := range f.nodes {
		if node.hardlinkGroup == group {
			n++
		}
	}
	return n
}

func (f *Fake) ReadLink(path string) (string, error) {
	n, ok := f.nodes[clean(path)]
	if !ok || n.kind != SymlinkKind {
		return "", &fs.PathError{Op: "readlink", Path: path, Err: fs.ErrInvalid}
	}
	return n.linkTarget, nil
}

func (f *Fake) EnsureDir(path string, mode fs.FileMode) error {
	path = clean(path)
	if path == "" {
		return nil
	}
	for _, prefix := range ancestorsOf(path) {
		if _, ok := f.nodes[prefix]; !ok {
			f.nodes[prefix] = &node{kind: DirectoryKind, mode: mode}
		}
	}
	return nil
}

func ancestorsOf(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], "/"))
	}
	return out
}

// EnsureMode adds the bits in required to the node's mode if they are
// missing, preserving every other bit already set, matching the real
// Ops implementations' bit-preserving chmod policy.
func (f *Fake) EnsureMode(path string, required fs.FileMode) error {
	n, ok := f.nodes[clean(path)]
	if !ok {
		return &fs.PathError{Op: "chmod", Path: path, Err: fs.ErrNotExist}
	}
	n.mode |= required & 0777
	return nil
}

// Touch creates a plain regular-file node directly, without going
// through a link operation. It exists for tests that need a hardlink
// source that is unambiguously a file rather than a symlink.
func (f *Fake) Touch(path string) {
	f.nodes[clean(path)] = &node{kind: RegularKind, mode: 0644}
}

func (f *Fake) MakeSymlink(path, target string) error {
	path = clean(path)
	f.nodes[path] = &node{kind: SymlinkKind, linkTarget: target, mode: fs.ModeSymlink | 0777}
	return nil
}

func (f *Fake) MakeHardlink(path, target string) error {
	targetNode, ok := f.nodes[clean(target)]
	if !ok {
		return &fs.PathError{Op: "link", Path: target, Err: fs.ErrNotExist}
	}
	if targetNode.hardlinkGroup == 0 {
		f.nextHLTag++
		targetNode.hardlinkGroup = f.nextHLTag
	}
	f.nodes[clean(path)] = &node{kind: RegularKind, mode: targetNode.mode, hardlinkGroup: targetNode.hardlinkGroup}
	return nil
}

func (f *Fake) MakeJunction(path, target string) error {
	if !f.Windows {
		return diag.New(diag.LinkAlgorithmError, "junctions are only available in windows-family mode")
	}
	path = clean(path)
	f.nodes[path] = &node{kind: SymlinkKind, linkTarget: target, mode: fs.ModeDir | fs.ModeSymlink | 0777}
	return nil
}

func (f *Fake) Unlink(path string) error {
	path = clean(path)
	if f.Busy[path] {
		delete(f.Busy, path)
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrPermission}
	}
	if _, ok := f.nodes[path]; !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	delete(f.nodes, path)
	return nil
}

func (f *Fake) Rmdir(path string) error { return f.Unlink(path) }

func (f *Fake) Rename(oldpath, newpath string) error {
	oldpath, newpath = clean(oldpath), clean(newpath)
	n, ok := f.nodes[oldpath]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	delete(f.nodes, oldpath)
	f.nodes[newpath] = n
	return nil
}

func (f *Fake) IterDir(path string) ([]string, error) {
	path = clean(path)
	prefix := path
	if prefix != "" {
		prefix += "/"
	}
	seen := map[string]bool{}
	var names []string
	for p := range f.nodes {
		if p == path || !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name := strings.SplitN(rest, "/", 2)[0]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *Fake) SameFile(a, b string) (bool, error) {
	ia, err := f.Stat(a)
	if err != nil {
		return false, err
	}
	ib, err := f.Stat(b)
	if err != nil {
		return false, err
	}
	if ia.Kind == NotExist || ib.Kind == NotExist {
		return false, nil
	}
	return ia.SameFileTag != 0 && ia.SameFileTag == ib.SameFileTag || a == b, nil
}
