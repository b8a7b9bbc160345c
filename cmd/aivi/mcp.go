package main

import (
	"encoding/json"
	"fmt"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/mcpmanifest"
	"github.com/mendrik/aivi/internal/resolver"
	"github.com/mendrik/aivi/internal/target"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	mcp := &cobra.Command{Use: "mcp", Short: "MCP tool/resource manifest operations"}
	mcp.AddCommand(newMCPServeCmd())
	return mcp
}

// newMCPServeCmd derives and prints the tool/resource manifest as JSON.
// The JSON-RPC transport that would actually serve this over stdio is an
// external collaborator (spec §1); this command produces the exact
// payload such a server would hand to `tools/list`.
func newMCPServeCmd() *cobra.Command {
	var allowEffects bool
	var policyFile string
	cmd := &cobra.Command{
		Use:   "serve <target>",
		Short: "derive the MCP manifest for a target and print it as JSON",
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
			modules := map[string]*ast.Module{}
			for _, f := range files {
				mods, err := loader.LoadFile(f)
				if err != nil {
					return err
				}
				for identity, mod := range mods {
					modules[identity] = mod.AST
				}
			}

			policy := mcpmanifest.Policy{AllowEffectfulTools: allowEffects}
			if policyFile != "" {
				policy, err = mcpmanifest.LoadPolicy(policyFile)
				if err != nil {
					return fmt.Errorf("loading policy file: %w", err)
				}
			}

			manifest := mcpmanifest.Collect(modules)
			visible := manifest.VisibleTools(policy)
			out, err := json.MarshalIndent(struct {
				Tools     []mcpmanifest.Tool     `json:"tools"`
				Resources []mcpmanifest.Resource `json:"resources"`
			}{Tools: visible, Resources: manifest.Resources}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowEffects, "allow-effects", false, "include effectful tools in the manifest")
	cmd.Flags().StringVar(&policyFile, "policy-file", "", "load the manifest policy from a TOML file instead of --allow-effects")
	return cmd
}
