//go:build !windows

package pathops

import (
	"io/fs"
	"os"
	"syscall"
)

// posixOps implements Ops using the real OS filesystem, the way
// dodot's osFS wraps os.* calls behind types.FS — extended here with
// the link/stat primitives a symlink-flavor materializer needs beyond
// plain file I/O.
type posixOps struct{}

// NewOS returns the real-filesystem Ops implementation for this
// platform.
func NewOS() Ops { return &posixOps{} }

func (posixOps) Lstat(path string) (Info, error) {
	info, err := statInfo(os.Lstat(path))
	if err == nil && info.Kind == SymlinkKind {
		info.LinkTarget, err = os.Readlink(path)
	}
	return info, err
}

func (posixOps) Stat(path string) (Info, error) { return statInfo(os.Stat(path)) }

func statInfo(fi os.FileInfo, err error) (Info, error) {
	if os.IsNotExist(err) {
		return Info{Kind: NotExist}, nil
	}
	if err != nil {
		return Info{}, err
	}
	info := Info{Mode: fi.Mode(), Size: fi.Size(), ModTime: fi.ModTime()}
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		info.Kind = SymlinkKind
	case fi.IsDir():
		info.Kind = DirectoryKind
	default:
		info.Kind = RegularKind
	}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		info.NumLinks = uint64(st.Nlink)
		info.SameFileTag = uint64(st.Ino)
	}
	return info, nil
}

func (posixOps) ReadLink(path string) (string, error) { return os.Readlink(path) }

func (posixOps) EnsureDir(path string, mode fs.FileMode) error {
	return os.MkdirAll(path, mode)
}

// EnsureMode adds the bits in required to path's mode if they are
// missing, preserving every other bit already set — the original
// tool's EnsureDirReadAndWritePerms chmods in the missing bits rather
// than overwriting the mode outright, so a directory that was already
// wider than required (group- or world-readable, setgid) stays that
// way.
func (posixOps) EnsureMode(path string, required fs.FileMode) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	current := fi.Mode().Perm()
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		current = fs.FileMode(st.Mode) & 07777
	}
	want := current | (required & 07777)
	if want == current {
		return nil
	}
	return os.Chmod(path, want)
}

func (posixOps) MakeSymlink(path, target string) error { return os.Symlink(target, path) }
func (posixOps) MakeHardlink(path, target string) error { return os.Link(target, path) }

func (posixOps) MakeJunction(path, target string) error {
	return &fs.PathError{Op: "junction", Path: path, Err: fs.ErrInvalid}
}

func (posixOps) Unlink(path string) error { return os.Remove(path) }
func (posixOps) Rmdir(path string) error  { return os.Remove(path) }
func (posixOps) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (posixOps) IterDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (posixOps) SameFile(a, b string) (bool, error) {
	fa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(fa, fb), nil
}
