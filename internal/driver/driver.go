// Package driver wires the parser, reconciler and pathops layers
// together into the eight-step sequence spec'd for a single
// build-runfiles invocation, as a function that returns an error
// rather than exiting the process — main is the only place this
// program calls os.Exit.
package driver

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dslomov/bazel/internal/diag"
	"github.com/dslomov/bazel/internal/logging"
	"github.com/dslomov/bazel/internal/pathops"
	"github.com/dslomov/bazel/internal/reconcile"
	"github.com/dslomov/bazel/internal/runfiles"
)

const (
	manifestName    = "MANIFEST"
	tempManifestName = manifestName + ".tmp"
)

// Options is the fully-resolved set of inputs a Driver run needs,
// mirroring the CLI flag surface one to one.
type Options struct {
	Input             string
	Output            string
	AllowRelative     bool
	UseMetadata       bool
	WindowsCompatible bool
	HardlinkEquivalence reconcile.HardlinkEquivalenceMode
}

// Driver runs one reconciliation against a PathOps-backed filesystem.
type Driver struct {
	Ops    pathops.Ops
	Logger zerolog.Logger
}

// Run executes the manifest-to-tree reconciliation described by opts.
// All returned errors are *diag.Error so the caller can render the
// mandated diagnostic line.
func (drv Driver) Run(opts Options) error {
	absInput, err := filepath.Abs(opts.Input)
	if err != nil {
		return diag.Wrapf(err, diag.MissingInput, "resolving input manifest path %q", opts.Input)
	}

	outputInfo, err := drv.Ops.Lstat(opts.Output)
	if err != nil {
		return diag.Wrapf(err, diag.FilesystemError, "stat output directory %q", opts.Output)
	}
	if outputInfo.Kind == pathops.NotExist {
		if err := drv.Ops.EnsureDir(opts.Output, 0777); err != nil {
			return diag.Wrapf(err, diag.FilesystemError, "creating output directory %q", opts.Output)
		}
	} else if err := drv.Ops.EnsureMode(opts.Output, 0700); err != nil {
		return diag.Wrapf(err, diag.FilesystemError, "setting mode of output directory %q", opts.Output)
	}

	tempManifestPath := filepath.Join(opts.Output, tempManifestName)
	manifestPath := filepath.Join(opts.Output, manifestName)

	donePhase := logging.Phase(drv.Logger, "parse_manifest")
	desired, err := drv.parseManifest(absInput, tempManifestPath, opts)
	donePhase()
	if err != nil {
		return err
	}
	// The temp manifest itself must survive Phase A's prune, exactly
	// as the original reader protects it before scanning.
	if err := desired.Set(tempManifestName, runfiles.Entry{Kind: runfiles.Regular}); err != nil {
		return diag.Wrap(err, diag.ParseError, "reserving temp manifest path")
	}

	if err := drv.Ops.Unlink(manifestPath); err != nil && !os.IsNotExist(err) {
		return diag.Wrapf(err, diag.FilesystemError, "removing previous manifest %q", manifestPath)
	}

	rec := reconcile.New(drv.Ops, desired, reconcile.Options{
		WindowsCompatible:   opts.WindowsCompatible,
		HardlinkEquivalence: opts.HardlinkEquivalence,
		Logger:              drv.Logger,
	})

	doneScan := logging.Phase(drv.Logger, "scan_and_prune")
	err = rec.ScanAndPrune(opts.Output)
	doneScan()
	if err != nil {
		return err
	}

	doneCreate := logging.Phase(drv.Logger, "create_files")
	err = rec.CreateFiles(opts.Output)
	doneCreate()
	if err != nil {
		return err
	}

	if err := drv.Ops.Rename(tempManifestPath, manifestPath); err != nil {
		return diag.Wrapf(err, diag.FilesystemError, "renaming %q to %q", tempManifestPath, manifestPath)
	}
	return nil
}

func (drv Driver) parseManifest(inputPath, tempManifestPath string, opts Options) (*runfiles.DesiredState, error) {
	infile, err := os.Open(inputPath)
	if err != nil {
		return nil, diag.Wrapf(err, diag.MissingInput, "opening input manifest %q", inputPath)
	}
	defer infile.Close()

	outfile, err := os.Create(tempManifestPath)
	if err != nil {
		return nil, diag.Wrapf(err, diag.FilesystemError, "opening %q for writing", tempManifestPath)
	}
	defer outfile.Close()

	parser := runfiles.Parser{Options: runfiles.Options{
		AllowRelative: opts.AllowRelative,
		UseMetadata:   opts.UseMetadata,
	}}
	desired, err := parser.Parse(infile, outfile)
	if err != nil {
		return nil, err
	}
	if err := outfile.Close(); err != nil {
		return nil, diag.Wrapf(err, diag.FilesystemError, "writing %q", tempManifestPath)
	}
	return desired, nil
}
