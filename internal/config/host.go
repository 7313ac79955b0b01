package config

import (
	"fmt"
	"os"

	"github.com/massimosiani/prophet/internal/types"
	"gopkg.in/yaml.v3"
)

// LoadHost resolves one host configuration file. A file that cannot be read
// or validated yields an error; the caller treats such a source as "not yet
// configured" rather than a hard failure.
func LoadHost(path string) (types.HostConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.HostConfig{}, fmt.Errorf("reading host config %s: %w", path, err)
	}

	var cfg types.HostConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.HostConfig{}, fmt.Errorf("parsing host config %s: %w", path, err)
	}

	if err := validateHost(&cfg); err != nil {
		return types.HostConfig{}, fmt.Errorf("validating host config %s: %w", path, err)
	}

	return cfg, nil
}

// validateHost ensures required host fields are present and applies defaults.
func validateHost(cfg *types.HostConfig) error {
	if cfg.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if cfg.RootPath == "" {
		return fmt.Errorf("root_path is required")
	}
	if cfg.WorkingFolder == "" {
		cfg.WorkingFolder = cfg.RootPath
	}
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = "1.1"
	}
	return nil
}
