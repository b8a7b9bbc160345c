package main

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

// newI18nCmd wires the `i18n gen` slot spec §6.4 names. The generator
// itself is an explicit non-goal (an external collaborator per spec §1),
// so this delegates to an external `aivi-i18n-gen` binary on PATH rather
// than reimplementing it here.
func newI18nCmd() *cobra.Command {
	i18n := &cobra.Command{Use: "i18n", Short: "internationalization code generation (external collaborator)"}
	i18n.AddCommand(&cobra.Command{
		Use:   "gen <target>",
		Short: "invoke the external aivi-i18n-gen tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := exec.LookPath("aivi-i18n-gen")
			if err != nil {
				return fmt.Errorf("i18n gen requires the external aivi-i18n-gen tool, which was not found on PATH")
			}
			out, err := exec.Command(bin, args[0]).CombinedOutput()
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return err
		},
	})
	return i18n
}
