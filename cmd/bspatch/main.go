// Command bspatch is the CLI wrapper around pkg/driver.Patch: given an old
// file and a patch, it reconstructs the new file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dstrick/go-bsdiff/pkg/driver"
	"github.com/dstrick/go-bsdiff/pkg/patchfmt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bspatch:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		format string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "bspatch <old> <patch> [new]",
		Short: "Apply a binary diff patch, reconstructing new from old",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := driver.PatchOptions{
				Want:  patchfmt.Name(format),
				Quiet: quiet,
			}

			newPath := args[0] + ".new"
			if len(args) == 3 {
				newPath = args[2]
			}

			return driver.PatchFiles(args[0], args[1], newPath, opts)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(patchfmt.Auto), "expected patch format: auto, classic, or endsley")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "silence structured logging")

	return cmd
}
