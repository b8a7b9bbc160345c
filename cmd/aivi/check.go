package main

import (
	"fmt"

	"github.com/mendrik/aivi/internal/diag"
	"github.com/mendrik/aivi/internal/hir"
	"github.com/mendrik/aivi/internal/resolver"
	"github.com/mendrik/aivi/internal/target"
	"github.com/mendrik/aivi/internal/types"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var checkStdlib bool
	cmd := &cobra.Command{
		Use:   "check <target>",
		Short: "resolve imports and desugar, reporting diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := target.Resolve(args[0])
			if err != nil {
				return err
			}
			files := resolved.Files
			if resolved.Kind == target.File {
				files = []string{resolved.Root}
			}

			loader := resolver.NewLoader(nil)
			var fds []diag.FileDiagnostic
			ok := true
			for _, f := range files {
				mods, err := loader.LoadFile(f)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f, err)
					ok = false
					continue
				}
				for _, d := range loader.Diagnostics() {
					if !checkStdlib && target.IsEmbedded(f) {
						continue
					}
					fds = append(fds, diag.FileDiagnostic{Path: f, Diag: d})
				}
				for _, mod := range mods {
					desugarer := hir.NewDesugarer()
					prog := desugarer.Desugar(mod.AST)
					for _, d := range desugarer.Diagnostics() {
						fds = append(fds, diag.FileDiagnostic{Path: f, Diag: d})
					}
					for _, d := range types.CheckProgram(mod.AST, prog) {
						if !checkStdlib && target.IsEmbedded(f) {
							continue
						}
						fds = append(fds, diag.FileDiagnostic{Path: f, Diag: d})
					}
				}
			}
			reportAndExit(fds)
			if !ok {
				return fmt.Errorf("check failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d file(s) checked\n", len(files))
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkStdlib, "check-stdlib", false, "include diagnostics from embedded stdlib modules")
	return cmd
}
