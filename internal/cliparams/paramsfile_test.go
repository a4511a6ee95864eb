package cliparams_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslomov/bazel/internal/cliparams"
)

func TestResolvePassesThroughPlainInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	got, err := cliparams.Resolve(fs, "MANIFEST")
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST", got)
}

func TestResolveReadsParamsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "params.txt", []byte("/abs/real/MANIFEST\n"), 0644))

	got, err := cliparams.Resolve(fs, "@params.txt")
	require.NoError(t, err)
	assert.Equal(t, "/abs/real/MANIFEST", got)
}

func TestResolveRejectsEmptyParamsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "params.txt", []byte("   \n"), 0644))

	_, err := cliparams.Resolve(fs, "@params.txt")
	require.Error(t, err)
}

func TestResolveRejectsMissingParamsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := cliparams.Resolve(fs, "@missing.txt")
	require.Error(t, err)
}
