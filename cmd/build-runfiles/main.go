// Command build-runfiles reconciles an output directory to exactly
// match a runfiles manifest.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dslomov/bazel/internal/cliparams"
	"github.com/dslomov/bazel/internal/diag"
	"github.com/dslomov/bazel/internal/driver"
	"github.com/dslomov/bazel/internal/logging"
	"github.com/dslomov/bazel/internal/pathops"
	"github.com/dslomov/bazel/internal/reconcile"
)

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	logging.Setup()

	var opts driver.Options
	var lenient bool

	cmd := &cobra.Command{
		Use:           argv[0] + " [--allow_relative] [--use_metadata] [--windows_compatible] INPUT RUNFILES",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rawInput := args[0]
			opts.Output = args[1]
			opts.HardlinkEquivalence = reconcile.Strict
			if lenient {
				opts.HardlinkEquivalence = reconcile.Lenient
			}

			resolvedInput, err := cliparams.Resolve(afero.NewOsFs(), rawInput)
			if err != nil {
				return err
			}
			opts.Input = resolvedInput

			drv := driver.Driver{
				Ops:    pathops.NewOS(),
				Logger: logging.Get("driver"),
			}
			return drv.Run(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.AllowRelative, "allow_relative", false,
		"permit non-absolute symlink targets in the manifest")
	cmd.Flags().BoolVar(&opts.UseMetadata, "use_metadata", false,
		"treat every second manifest line as an opaque dependency-checking record")
	cmd.Flags().BoolVar(&opts.WindowsCompatible, "windows_compatible", false,
		"realize symlink entries as hardlinks or junctions instead of POSIX symlinks")
	cmd.Flags().BoolVar(&lenient, "lenient_hardlinks", false,
		"accept any existing multiply-linked file as equivalent, instead of verifying it names the same physical file")
	cmd.SetArgs(argv[1:])

	if err := cmd.Execute(); err != nil {
		printDiagnostic(diag.Context{Argv0: argv[0], Input: opts.Input, Output: opts.Output}, err)
		return 1
	}
	return 0
}

func printDiagnostic(ctx diag.Context, err error) {
	var derr *diag.Error
	if errors.As(err, &derr) {
		fmt.Fprintln(os.Stderr, derr.Diagnostic(ctx))
		return
	}
	fmt.Fprintf(os.Stderr, "%s (args %s %s): %v\n", ctx.Argv0, ctx.Input, ctx.Output, err)
}
