package main

import (
	"fmt"

	"github.com/mendrik/aivi/internal/kernel"
	"github.com/mendrik/aivi/internal/rustir"
	"github.com/mendrik/aivi/internal/runtime"
	"github.com/spf13/cobra"
)

func newRustIRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rust-ir <target>",
		Short: "lower a module all the way to RustIR, printing the def count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, path, fds, err := loadModule(args[0])
			if err != nil {
				return err
			}
			reportAndExit(fds)
			prog, _, _ := desugarModule(mod)
			klowerer := kernel.NewLowerer(prog)
			kprog := klowerer.Lower(prog)
			reportAndExit(toFileDiags(path, klowerer.Diagnostics()))

			globals := runtime.NewBuiltinRegistry().BuiltinNames()
			rlowerer := rustir.NewLowerer(globals)
			rprog := rlowerer.Lower(kprog)
			reportAndExit(toFileDiags(path, rlowerer.Diagnostics()))
			fmt.Fprintf(cmd.OutOrStdout(), "lowered %s: module %q, %d defs\n", path, rprog.ModuleName, len(rprog.Defs))
			return nil
		},
	}
}
