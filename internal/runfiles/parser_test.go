package runfiles_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslomov/bazel/internal/runfiles"
)

func TestParseBasicManifest(t *testing.T) {
	input := "pkg/foo.txt /abs/src/foo.txt\npkg/empty.txt \n"
	var archive bytes.Buffer

	state, err := runfiles.Parser{}.Parse(strings.NewReader(input), &archive)
	require.NoError(t, err)

	foo, ok := state.Get("pkg/foo.txt")
	require.True(t, ok)
	assert.Equal(t, runfiles.Symlink, foo.Kind)
	assert.Equal(t, "/abs/src/foo.txt", foo.Target)

	empty, ok := state.Get("pkg/empty.txt")
	require.True(t, ok)
	assert.Equal(t, runfiles.Regular, empty.Kind)

	pkgDir, ok := state.Get("pkg")
	require.True(t, ok)
	assert.Equal(t, runfiles.Directory, pkgDir.Kind)

	assert.Equal(t, input, archive.String())
}

func TestParseRejectsAbsolutePath(t *testing.T) {
	var archive bytes.Buffer
	_, err := runfiles.Parser{}.Parse(strings.NewReader("/abs/path /tgt\n"), &archive)
	require.Error(t, err)
}

func TestParseRejectsRelativeTargetByDefault(t *testing.T) {
	var archive bytes.Buffer
	_, err := runfiles.Parser{}.Parse(strings.NewReader("pkg/foo relative/target\n"), &archive)
	require.Error(t, err)
}

func TestParseAllowsRelativeTargetWhenEnabled(t *testing.T) {
	var archive bytes.Buffer
	p := runfiles.Parser{Options: runfiles.Options{AllowRelative: true}}
	state, err := p.Parse(strings.NewReader("pkg/foo relative/target\n"), &archive)
	require.NoError(t, err)

	e, ok := state.Get("pkg/foo")
	require.True(t, ok)
	assert.Equal(t, "relative/target", e.Target)
}

func TestParseAcceptsWindowsDriveLetterTarget(t *testing.T) {
	var archive bytes.Buffer
	state, err := runfiles.Parser{}.Parse(strings.NewReader(`pkg/foo C:\abs\target`+"\n"), &archive)
	require.NoError(t, err)

	e, ok := state.Get("pkg/foo")
	require.True(t, ok)
	assert.Equal(t, `C:\abs\target`, e.Target)
}

func TestParseSkipsMetadataLines(t *testing.T) {
	input := "pkg/foo /abs/target\nopaque metadata payload\n"
	var archive bytes.Buffer
	p := runfiles.Parser{Options: runfiles.Options{UseMetadata: true}}
	state, err := p.Parse(strings.NewReader(input), &archive)
	require.NoError(t, err)

	assert.Equal(t, 2, state.Len()) // pkg/foo + synthesized "pkg" ancestor
	assert.Equal(t, input, archive.String())
}

func TestParseRejectsMissingDelimiter(t *testing.T) {
	var archive bytes.Buffer
	_, err := runfiles.Parser{}.Parse(strings.NewReader("nodelimiterhere\n"), &archive)
	require.Error(t, err)
}

func TestParseRejectsExtraSpaceInTarget(t *testing.T) {
	var archive bytes.Buffer
	_, err := runfiles.Parser{}.Parse(strings.NewReader("pkg/foo /abs/has space/target\n"), &archive)
	require.Error(t, err)
}
