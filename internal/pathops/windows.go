//go:build windows

package pathops

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// windowsOps implements Ops on Windows. Junction creation shells out
// to "mklink /J" rather than issuing the DeviceIoControl reparse-point
// call directly — the same approach Bazel's own Windows filesystem
// layer takes, and one this tool can verify end to end without
// hand-rolling reparse-buffer encoding.
type windowsOps struct{}

// NewOS returns the real-filesystem Ops implementation for this
// platform.
func NewOS() Ops { return &windowsOps{} }

func (windowsOps) Lstat(path string) (Info, error) {
	info, err := statInfo(os.Lstat(path))
	if err == nil && info.Kind == SymlinkKind {
		info.LinkTarget, err = os.Readlink(path)
	}
	return info, err
}

func (windowsOps) Stat(path string) (Info, error) { return statInfo(os.Stat(path)) }

func statInfo(fi os.FileInfo, err error) (Info, error) {
	if os.IsNotExist(err) {
		return Info{Kind: NotExist}, nil
	}
	if err != nil {
		return Info{}, err
	}
	info := Info{Mode: fi.Mode(), Size: fi.Size(), ModTime: fi.ModTime()}
	switch {
	case isReparsePoint(fi):
		info.Kind = SymlinkKind
	case fi.IsDir():
		info.Kind = DirectoryKind
	default:
		info.Kind = RegularKind
	}
	return info, nil
}

// isReparsePoint reports whether fi names a symlink or directory
// junction, by checking the reparse-point attribute bit Go's os
// package surfaces through FILE_ATTRIBUTE_REPARSE_POINT.
func isReparsePoint(fi os.FileInfo) bool {
	if fi.Mode()&os.ModeSymlink != 0 {
		return true
	}
	if sys, ok := fi.Sys().(*syscall.Win32FileAttributeData); ok {
		return sys.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0
	}
	return false
}

func (windowsOps) ReadLink(path string) (string, error) { return os.Readlink(path) }

func (windowsOps) EnsureDir(path string, mode fs.FileMode) error {
	return os.MkdirAll(path, mode)
}

// EnsureMode adds the bits in required to path's mode if they are
// missing, preserving every other bit already set, the same policy
// posix.go applies — os.Chmod on Windows only round-trips the
// read-only attribute, but the bit-preserving contract still holds.
func (windowsOps) EnsureMode(path string, required fs.FileMode) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	current := fi.Mode().Perm()
	want := current | (required & 0777)
	if want == current {
		return nil
	}
	return os.Chmod(path, want)
}

func (windowsOps) MakeSymlink(path, target string) error { return os.Symlink(target, path) }
func (windowsOps) MakeHardlink(path, target string) error { return os.Link(target, path) }

func (windowsOps) MakeJunction(path, target string) error {
	cmd := exec.Command("cmd", "/c", "mklink", "/J", path, target)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mklink /J %s %s: %w: %s", path, target, err, out)
	}
	return nil
}

func (windowsOps) Unlink(path string) error { return os.Remove(path) }
func (windowsOps) Rmdir(path string) error  { return os.Remove(path) }
func (windowsOps) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (windowsOps) IterDir(path string) ([]string, error) {
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

func (windowsOps) SameFile(a, b string) (bool, error) {
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
