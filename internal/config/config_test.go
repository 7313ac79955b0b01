package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "archive:\n  bucket: logs\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Hosts.Root == "" || strings.HasPrefix(cfg.Hosts.Root, "~") {
		t.Errorf("Hosts.Root = %q, want expanded default", cfg.Hosts.Root)
	}
	if cfg.Archive.Prefix != "prophet/" {
		t.Errorf("Archive.Prefix = %q, want default %q", cfg.Archive.Prefix, "prophet/")
	}
}

func TestLoadNormalizesPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "archive:\n  prefix: custom\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Archive.Prefix != "custom/" {
		t.Errorf("Archive.Prefix = %q, want %q", cfg.Archive.Prefix, "custom/")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load = %v, want os.ErrNotExist", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "hosts: [not: valid")

	if _, err := Load(path); err == nil {
		t.Error("Load accepted invalid YAML")
	}
}

func TestValidateArchive(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{name: "complete", yaml: "archive:\n  bucket: b\n  region: us-east-1\n", wantErr: false},
		{name: "missing bucket", yaml: "archive:\n  region: us-east-1\n", wantErr: true},
		{name: "missing region", yaml: "archive:\n  bucket: b\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.yaml)

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			err = ValidateArchive(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArchive = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := CreateStarterConfig(path); err != nil {
		t.Fatalf("CreateStarterConfig: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("starter config does not load: %v", err)
	}
	if cfg.Hosts.Root == "" {
		t.Error("starter config has empty hosts root")
	}
}

func TestLoadHost(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "host.yaml")
		writeFile(t, path, "hostname: logs1.example.com\nroot_path: /Sites/Logs\nworking_folder: /Sites/Logs/app\nprotocol_version: \"2.0\"\n")

		cfg, err := LoadHost(path)
		if err != nil {
			t.Fatalf("LoadHost: %v", err)
		}
		if cfg.Hostname != "logs1.example.com" {
			t.Errorf("Hostname = %q", cfg.Hostname)
		}
		if cfg.WorkingFolder != "/Sites/Logs/app" {
			t.Errorf("WorkingFolder = %q", cfg.WorkingFolder)
		}
		if cfg.ProtocolVersion != "2.0" {
			t.Errorf("ProtocolVersion = %q", cfg.ProtocolVersion)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "host.yaml")
		writeFile(t, path, "hostname: logs1.example.com\nroot_path: /Sites/Logs\n")

		cfg, err := LoadHost(path)
		if err != nil {
			t.Fatalf("LoadHost: %v", err)
		}
		if cfg.WorkingFolder != "/Sites/Logs" {
			t.Errorf("WorkingFolder = %q, want root path default", cfg.WorkingFolder)
		}
		if cfg.ProtocolVersion != "1.1" {
			t.Errorf("ProtocolVersion = %q, want default 1.1", cfg.ProtocolVersion)
		}
	})

	t.Run("missing hostname", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "host.yaml")
		writeFile(t, path, "root_path: /Sites/Logs\n")

		if _, err := LoadHost(path); err == nil {
			t.Error("LoadHost accepted config without hostname")
		}
	})

	t.Run("missing root path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "host.yaml")
		writeFile(t, path, "hostname: logs1.example.com\n")

		if _, err := LoadHost(path); err == nil {
			t.Error("LoadHost accepted config without root_path")
		}
	})

	t.Run("unreadable file", func(t *testing.T) {
		if _, err := LoadHost(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("LoadHost accepted missing file")
		}
	})
}

func TestScanHosts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "hostname: b\n")
	writeFile(t, filepath.Join(dir, "a.yml"), "hostname: a\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a host\n")
	if err := os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := ScanHosts(dir)
	if err != nil {
		t.Fatalf("ScanHosts: %v", err)
	}

	want := []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}
	if len(paths) != len(want) {
		t.Fatalf("ScanHosts returned %d paths (%v), want %d", len(paths), paths, len(want))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestScanHostsMissingRoot(t *testing.T) {
	if _, err := ScanHosts(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ScanHosts accepted missing directory")
	}
}
