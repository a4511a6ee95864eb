package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEndToEnd(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "foo.txt"), []byte("hi"), 0644))

	inputPath := filepath.Join(tmp, "MANIFEST.in")
	require.NoError(t, os.WriteFile(inputPath, []byte("pkg/foo.txt "+filepath.Join(srcDir, "foo.txt")+"\n"), 0644))

	outDir := filepath.Join(tmp, "out")

	code := run([]string{"build-runfiles", inputPath, outDir})
	assert.Equal(t, 0, code)

	target, err := os.Readlink(filepath.Join(outDir, "pkg", "foo.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(srcDir, "foo.txt"), target)
}

func TestRunRejectsWrongArgCount(t *testing.T) {
	code := run([]string{"build-runfiles", "only-one-arg"})
	assert.Equal(t, 1, code)
}
