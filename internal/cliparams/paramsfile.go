// Package cliparams resolves the optional "@paramsfile" convention on
// the INPUT argument: when INPUT starts with "@", the remainder names
// a file whose single line is the real manifest path. This lets a
// build system hand build-runfiles a stable, short params-file path
// without the caller needing to know the real manifest location ahead
// of time, the way Bazel's own param-file actions work.
//
// The read goes through an afero.Fs so tests can swap in a MemMapFs
// instead of touching a real params file on disk.
package cliparams

import (
	"strings"

	"github.com/spf13/afero"

	"github.com/dslomov/bazel/internal/diag"
)

// Resolve returns the manifest path that rawInput names: rawInput
// itself, unless it starts with "@", in which case the file it names
// is read and its trimmed contents become the manifest path.
func Resolve(fs afero.Fs, rawInput string) (string, error) {
	if !strings.HasPrefix(rawInput, "@") {
		return rawInput, nil
	}
	paramsPath := rawInput[1:]
	data, err := afero.ReadFile(fs, paramsPath)
	if err != nil {
		return "", diag.Wrapf(err, diag.MissingInput, "reading params file %q", paramsPath)
	}
	manifestPath := strings.TrimSpace(string(data))
	if manifestPath == "" {
		return "", diag.Newf(diag.MissingInput, "params file %q did not name a manifest path", paramsPath)
	}
	return manifestPath, nil
}
