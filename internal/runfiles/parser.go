package runfiles

import (
	"bufio"
	"io"
	"strings"

	"github.com/dslomov/bazel/internal/diag"
)

// Options controls how Parse interprets the manifest grammar.
type Options struct {
	// AllowRelative permits symlink targets that are not absolute
	// paths. Off by default, matching the original tool's strict mode.
	AllowRelative bool
	// UseMetadata treats every even input line (1-indexed) as an
	// opaque dependency-checking line to be copied to the archive
	// verbatim but never parsed as a manifest entry.
	UseMetadata bool
}

// Parser turns a manifest stream into a DesiredState, copying every
// input line verbatim into an archive writer as it goes.
type Parser struct {
	Options Options
}

// Parse reads every line of r. Each line is first copied to archive
// unmodified — this is the side effect that builds the eventual
// MANIFEST.tmp regardless of parse outcome — and then, unless it's a
// skipped metadata line, parsed into a DesiredState entry.
func (p Parser) Parse(r io.Reader, archive io.Writer) (*DesiredState, error) {
	state := NewDesiredState()
	reader := bufio.NewReader(r)

	lineno := 0
	for {
		raw, readErr := reader.ReadString('\n')
		if readErr == io.EOF && raw == "" {
			break
		}
		if readErr != nil && readErr != io.EOF {
			return nil, diag.Wrapf(readErr, diag.FilesystemError, "reading manifest")
		}
		lineno++

		if _, err := io.WriteString(archive, raw); err != nil {
			return nil, diag.Wrapf(err, diag.FilesystemError, "writing line %d to archive manifest", lineno)
		}
		if readErr == io.EOF {
			return nil, diag.Newf(diag.ParseError, "missing terminator at line %d: %q", lineno, raw)
		}

		if p.Options.UseMetadata && lineno%2 == 0 {
			continue
		}

		if err := p.parseLine(state, lineno, strings.TrimSuffix(raw, "\n")); err != nil {
			return nil, err
		}
	}

	return state, nil
}

func (p Parser) parseLine(state *DesiredState, lineno int, line string) error {
	if strings.HasPrefix(line, "/") {
		return diag.Newf(diag.ParseError, "paths must not be absolute: line %d: %q", lineno, line)
	}

	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return diag.Newf(diag.ParseError, "missing field delimiter at line %d: %q", lineno, line)
	}
	relpath, target := line[:idx], line[idx+1:]
	if strings.IndexByte(target, ' ') >= 0 {
		return diag.Newf(diag.ParseError, "link or target filename contains space on line %d: %q", lineno, line)
	}

	if target != "" && !p.Options.AllowRelative && !isAbsoluteTarget(target) {
		return diag.Newf(diag.ParseError, "expected absolute path at line %d: %q", lineno, line)
	}

	var entry Entry
	if target == "" {
		entry = Entry{Kind: Regular}
	} else {
		entry = Entry{Kind: Symlink, Target: target}
	}

	return state.Set(relpath, entry)
}

// isAbsoluteTarget accepts POSIX absolute paths and Windows drive-letter
// paths (C:\foo, C:/foo), matching the grammar's original platform
// reach: the manifest format predates any single-OS assumption, so a
// leading-slash-only check would reject valid Windows targets.
func isAbsoluteTarget(target string) bool {
	if strings.HasPrefix(target, "/") {
		return true
	}
	if len(target) >= 3 && isDriveLetter(target[0]) && target[1] == ':' && (target[2] == '\\' || target[2] == '/') {
		return true
	}
	return false
}

func isDriveLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
