package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in "." and $HOME/.adinsights.
const FileName = "adinsights.yaml"

// defaultHeader precedes the generated default config file.
const defaultHeader = `# adinsights configuration
# Every key can be overridden with an ADINSIGHTS_* environment variable,
# e.g. ADINSIGHTS_GRAPH_ACCESS_TOKEN. Keep the access token out of this file
# when it is shared.
`

// DefaultYAML renders the default settings as a commented YAML file.
func DefaultYAML() ([]byte, error) {
	body, err := yaml.Marshal(Defaults())
	if err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}
	return append([]byte(defaultHeader+"\n"), body...), nil
}

// WriteDefault writes the default config to path. An existing file is kept
// unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
