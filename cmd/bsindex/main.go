// Command bsindex is the CLI wrapper around pkg/driver.Index: it
// precomputes and serializes the suffix array of a file, for later reuse
// as a bsdiff --index input.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dstrick/go-bsdiff/pkg/driver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bsindex:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bsindex <old> [index]",
		Short: "Precompute and serialize the suffix array of a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexPath := args[0] + ".idx"
			if len(args) == 2 {
				indexPath = args[1]
			}
			return driver.IndexFiles(args[0], indexPath, driver.IndexOptions{})
		},
	}
	return cmd
}
