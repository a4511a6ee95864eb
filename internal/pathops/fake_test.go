package pathops_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslomov/bazel/internal/pathops"
)

func TestFakeEnsureDirAndLstat(t *testing.T) {
	f := pathops.NewFake()
	require.NoError(t, f.EnsureDir("a/b/c", 0755))

	info, err := f.Lstat("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, pathops.DirectoryKind, info.Kind)

	info, err = f.Lstat("a/b")
	require.NoError(t, err)
	assert.Equal(t, pathops.DirectoryKind, info.Kind)
}

func TestFakeSymlinkRoundTrip(t *testing.T) {
	f := pathops.NewFake()
	require.NoError(t, f.MakeSymlink("link", "/abs/target"))

	info, err := f.Lstat("link")
	require.NoError(t, err)
	assert.Equal(t, pathops.SymlinkKind, info.Kind)

	target, err := f.ReadLink("link")
	require.NoError(t, err)
	assert.Equal(t, "/abs/target", target)
}

func TestFakeHardlinkSameFile(t *testing.T) {
	f := pathops.NewFake()
	f.Touch("orig")
	require.NoError(t, f.MakeHardlink("copy", "orig"))

	same, err := f.SameFile("orig", "copy")
	require.NoError(t, err)
	assert.True(t, same)
}

func TestFakeJunctionRequiresWindowsMode(t *testing.T) {
	f := pathops.NewFake()
	err := f.MakeJunction("j", "target")
	require.Error(t, err)

	f.Windows = true
	require.NoError(t, f.MakeJunction("j", "target"))
}

func TestFakeEnsureModeAddsBitsWithoutClobbering(t *testing.T) {
	f := pathops.NewFake()
	require.NoError(t, f.EnsureDir("pkg", 0751))

	require.NoError(t, f.EnsureMode("pkg", 0700))

	info, err := f.Lstat("pkg")
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0751), info.Mode.Perm(), "existing wider bits must survive an EnsureMode that only requires a subset")
}

func TestFakeIterDirListsImmediateChildren(t *testing.T) {
	f := pathops.NewFake()
	require.NoError(t, f.EnsureDir("a/b", 0755))
	require.NoError(t, f.MakeSymlink("a/file", "/x"))

	names, err := f.IterDir("a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "file"}, names)
}
