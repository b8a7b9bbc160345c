package main

import (
	"fmt"
	"path/filepath"

	"github.com/mendrik/aivi/internal/runtime"
	"github.com/mendrik/aivi/internal/target"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <target>",
		Short: "evaluate a module's main export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := target.Resolve(args[0])
			if err != nil {
				return err
			}
			var entry string
			switch resolved.Kind {
			case target.File:
				entry = resolved.Root
			case target.Directory:
				if len(resolved.Files) == 0 {
					return fmt.Errorf("no .aivi files found under %s", args[0])
				}
				entry = resolved.Files[0]
			default:
				return fmt.Errorf("embedded targets are not runnable directly: %s", args[0])
			}

			rt := runtime.NewModuleRuntime([]string{filepath.Dir(entry)})
			inst, err := rt.LoadAndEvaluate(entry)
			if err != nil {
				return err
			}
			main, err := inst.GetExport("main")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), main)
			return nil
		},
	}
}
