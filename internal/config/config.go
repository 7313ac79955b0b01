// Package config loads application and per-host configuration and exposes
// the host configuration directory as a dynamic stream of sources.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/massimosiani/prophet/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	defaultHostsRoot     = "~/.prophet/hosts.d"
	defaultArchivePrefix = "prophet/"
)

// Load reads and validates application configuration from the specified path.
// Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*types.Config, error) {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", expandedPath, err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional config fields.
func applyDefaults(cfg *types.Config) error {
	if cfg.Hosts.Root == "" {
		cfg.Hosts.Root = defaultHostsRoot
	}

	expandedRoot, err := expandTilde(cfg.Hosts.Root)
	if err != nil {
		return fmt.Errorf("expanding hosts root: %w", err)
	}
	cfg.Hosts.Root = expandedRoot

	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = defaultArchivePrefix
	}

	// Ensure prefix has trailing slash for consistent key building
	if !strings.HasSuffix(cfg.Archive.Prefix, "/") {
		cfg.Archive.Prefix = cfg.Archive.Prefix + "/"
	}

	return nil
}

// ValidateArchive ensures the fields required for archival are present.
// Archive settings are optional for all other commands.
func ValidateArchive(cfg *types.Config) error {
	if cfg.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required")
	}
	if cfg.Archive.Region == "" {
		return fmt.Errorf("archive.region is required")
	}
	return nil
}

// CreateStarterConfig writes a commented starter configuration to path,
// creating parent directories as needed.
func CreateStarterConfig(path string) error {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	starter := `# prophet configuration
hosts:
  # Directory of per-host configuration files (one YAML file per host).
  root: ` + defaultHostsRoot + `

# Optional: archive fetched logs to S3-compatible storage.
archive:
  bucket: ""
  region: ""
  prefix: ` + defaultArchivePrefix + `
  # endpoint: https://s3.example.com
  # force_path_style: true

auth:
  # profile: default
  # access_key_id: ""
  # secret_access_key: ""
`

	if err := os.WriteFile(expandedPath, []byte(starter), 0o600); err != nil {
		return fmt.Errorf("writing starter config: %w", err)
	}
	return nil
}

// expandTilde replaces ~ at the start of a path with the user's home directory.
func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	if path == "~" {
		return homeDir, nil
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:]), nil
	}

	return path, nil
}
