package runfiles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslomov/bazel/internal/runfiles"
)

func TestSetSynthesizesAncestors(t *testing.T) {
	d := runfiles.NewDesiredState()
	require.NoError(t, d.Set("a/b/c", runfiles.Entry{Kind: runfiles.Regular}))

	for _, parent := range []string{"a", "a/b"} {
		e, ok := d.Get(parent)
		require.True(t, ok, "expected synthesized ancestor %q", parent)
		assert.Equal(t, runfiles.Directory, e.Kind)
	}
}

func TestSetStopsAtExistingAncestor(t *testing.T) {
	d := runfiles.NewDesiredState()
	require.NoError(t, d.Set("a/b", runfiles.Entry{Kind: runfiles.Directory}))
	require.NoError(t, d.Set("a/b/c/d", runfiles.Entry{Kind: runfiles.Regular}))

	_, ok := d.Get("a")
	assert.True(t, ok)
	_, ok = d.Get("a/b/c")
	assert.True(t, ok)
}

func TestSetRejectsAncestorDemotion(t *testing.T) {
	d := runfiles.NewDesiredState()
	require.NoError(t, d.Set("a/b", runfiles.Entry{Kind: runfiles.Regular}))

	err := d.Set("a/b/c", runfiles.Entry{Kind: runfiles.Regular})
	require.Error(t, err)
}

func TestSetRejectsDemotingSynthesizedDirectory(t *testing.T) {
	d := runfiles.NewDesiredState()
	require.NoError(t, d.Set("a/b/c", runfiles.Entry{Kind: runfiles.Regular}))

	err := d.Set("a/b", runfiles.Entry{Kind: runfiles.Regular})
	require.Error(t, err)
}

func TestPathsOrdersShallowerFirst(t *testing.T) {
	d := runfiles.NewDesiredState()
	require.NoError(t, d.Set("a/b/c", runfiles.Entry{Kind: runfiles.Regular}))

	paths := d.Paths()
	require.Equal(t, []string{"a", "a/b", "a/b/c"}, paths)
}
