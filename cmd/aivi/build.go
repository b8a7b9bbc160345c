package main

import (
	"fmt"
	"os/exec"

	"github.com/mendrik/aivi/internal/kernel"
	"github.com/mendrik/aivi/internal/rustir"
	"github.com/mendrik/aivi/internal/runtime"
	"github.com/spf13/cobra"
)

// buildTargets are the external toolchain backends spec §6.4 names. All
// three lower to RustIR the same way; the command does not invoke rustc
// for any of them.
var buildTargets = map[string]bool{"rust": true, "rust-native": true, "rustc": true}

func newBuildCmd() *cobra.Command {
	var targetKind string
	cmd := &cobra.Command{
		Use:   "build <target>",
		Short: "lower a module to RustIR and report whether rustc is on PATH (rustc is not invoked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !buildTargets[targetKind] {
				return fmt.Errorf("unknown --target %q (want rust, rust-native, or rustc)", targetKind)
			}
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

			if _, err := exec.LookPath("rustc"); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "lowered %q to RustIR (%d defs); rustc not found on PATH, skipping native compile\n", rprog.ModuleName, len(rprog.Defs))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lowered %q to RustIR (%d defs); rustc found on PATH, native compile not run (--target=%s)\n", rprog.ModuleName, len(rprog.Defs), targetKind)
			return nil
		},
	}
	cmd.Flags().StringVar(&targetKind, "target", "rust", "backend: rust, rust-native, or rustc")
	return cmd
}
