package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDesugarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "desugar <target>",
		Short: "parse and desugar to HIR, printing the def count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, path, fds, err := loadModule(args[0])
			if err != nil {
				return err
			}
			reportAndExit(fds)
			prog, _, name := desugarModule(mod)
			fmt.Fprintf(cmd.OutOrStdout(), "desugared %s: module %q, %d defs\n", path, name, len(prog.Defs))
			return nil
		},
	}
}
