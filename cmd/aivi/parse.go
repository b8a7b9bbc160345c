package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <target>",
		Short: "parse a file and report syntax diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, path, fds, err := loadModule(args[0])
			if err != nil {
				return err
			}
			reportAndExit(fds)
			fmt.Fprintf(cmd.OutOrStdout(), "parsed %s: module %q, %d items\n", path, mod.Name, len(mod.Items))
			return nil
		},
	}
}
