package main

import (
	"fmt"

	"github.com/mendrik/aivi/internal/kernel"
	"github.com/spf13/cobra"
)

func newKernelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kernel <target>",
		Short: "lower a module to Kernel IR, printing the def count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, path, fds, err := loadModule(args[0])
			if err != nil {
				return err
			}
			reportAndExit(fds)
			prog, _, _ := desugarModule(mod)
			lowerer := kernel.NewLowerer(prog)
			kprog := lowerer.Lower(prog)
			reportAndExit(toFileDiags(path, lowerer.Diagnostics()))
			fmt.Fprintf(cmd.OutOrStdout(), "lowered %s: module %q, %d defs\n", path, kprog.ModuleName, len(kprog.Defs))
			return nil
		},
	}
}
