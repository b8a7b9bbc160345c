// Command aivi is the CLI surface described informatively in spec §6.4:
// parse/check/fmt/desugar/kernel/rust-ir/run/build/mcp-serve/i18n-gen
// over a target resolved by internal/target, rendering diagnostics with
// internal/diag and exiting 0 on success, 1 on any reported error.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	red  = color.New(color.FgRed).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aivi",
		Short:         bold("aivi") + " — compiler frontend and runtime for the aivi language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newParseCmd(),
		newCheckCmd(),
		newFmtCmd(),
		newDesugarCmd(),
		newKernelCmd(),
		newRustIRCmd(),
		newRunCmd(),
		newBuildCmd(),
		newMCPCmd(),
		newI18nCmd(),
	)
	return root
}
