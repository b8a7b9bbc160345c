package mcpmanifest

import "github.com/BurntSushi/toml"

// policyFile is the on-disk shape of a manifest policy file: which
// tools `tools/list` is permitted to surface, and a per-tool deny list for
// callers that want to hide specific bindings rather than gating
// all-or-nothing.
type policyFile struct {
	AllowEffectfulTools bool     `toml:"allow_effectful_tools"`
	DeniedTools         []string `toml:"denied_tools"`
}

// LoadPolicy reads a manifest policy file (TOML) from path.
func LoadPolicy(path string) (Policy, error) {
	var pf policyFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return Policy{}, err
	}
	denied := make(map[string]bool, len(pf.DeniedTools))
	for _, name := range pf.DeniedTools {
		denied[name] = true
	}
	return Policy{AllowEffectfulTools: pf.AllowEffectfulTools, DeniedTools: denied}, nil
}
