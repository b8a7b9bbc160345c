package main

import (
	"fmt"
	"os"

	"github.com/mendrik/aivi/internal/fmtengine"
	"github.com/spf13/cobra"
)

func newFmtCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "reformat a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out, diags := fmtengine.Format(string(src), path, fmtengine.DefaultOptions)
			for _, d := range diags {
				fmt.Fprintln(cmd.ErrOrStderr(), d)
			}
			if write {
				return os.WriteFile(path, []byte(out), 0o644)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result back to the file instead of stdout")
	return cmd
}
