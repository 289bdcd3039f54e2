// Command bsdiff is the CLI wrapper around pkg/driver.Diff: given an old
// file and a new file, it writes a patch that reconstructs new from old.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dstrick/go-bsdiff/pkg/driver"
	"github.com/dstrick/go-bsdiff/pkg/patchfmt"
	"github.com/dstrick/go-bsdiff/pkg/suffixarray"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bsdiff:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		format       string
		lowMemFlag   bool
		showProgress bool
		quiet        bool
		indexPath    string
	)

	cmd := &cobra.Command{
		Use:   "bsdiff <old> <new> [patch]",
		Short: "Generate a binary diff patch between two files",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := driver.DiffOptions{
				Format:       patchfmt.Name(format),
				ShowProgress: showProgress,
				Quiet:        quiet,
			}
			if cmd.Flags().Changed("lowmem") {
				opts.LowMem = &lowMemFlag
			}

			if indexPath != "" {
				oldBytes, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				f, err := os.Open(indexPath)
				if err != nil {
					return err
				}
				idx, err := suffixarray.LoadIndex(f, len(oldBytes))
				f.Close()
				if err != nil {
					return err
				}
				opts.Index = idx
			}

			patchPath := args[0] + ".patch"
			if len(args) == 3 {
				patchPath = args[2]
			}

			return driver.DiffFiles(args[0], args[1], patchPath, opts)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(patchfmt.Classic), "patch format: classic or endsley")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar while scanning")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "silence structured logging")
	cmd.Flags().BoolVar(&lowMemFlag, "lowmem", false, "use low-memory bzip2 block size (overrides BSDIFF_LOWMEM)")
	cmd.Flags().StringVar(&indexPath, "index", "", "precomputed suffix array (from bsindex) to use instead of building one")

	return cmd
}
