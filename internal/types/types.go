// Package types defines the core data structures used throughout prophet.
// This includes configuration structs, log file descriptors, and tree nodes.
package types

import "time"

// Config represents the complete application configuration.
type Config struct {
	Hosts   HostsConfig   `yaml:"hosts"`
	Archive ArchiveConfig `yaml:"archive"`
	Auth    AuthConfig    `yaml:"auth"`
}

// HostsConfig holds the location of per-host configuration sources.
type HostsConfig struct {
	Root string `yaml:"root"`
}

// ArchiveConfig holds S3-compatible storage settings for log archival.
type ArchiveConfig struct {
	Bucket         string `yaml:"bucket"`
	Prefix         string `yaml:"prefix"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// AuthConfig holds S3 authentication credentials.
type AuthConfig struct {
	Profile         string `yaml:"profile"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// HostConfig describes one remote application server. It is resolved from a
// single host configuration file and is immutable once resolved.
// Hostname is the natural key across the whole system.
type HostConfig struct {
	Hostname        string `yaml:"hostname"`
	RootPath        string `yaml:"root_path"`
	ProtocolVersion string `yaml:"protocol_version"`
	WorkingFolder   string `yaml:"working_folder"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
}

// LogFile describes one remote log file derived from a directory listing.
// Filename has per-instance qualifiers stripped so that logically identical
// files from different backend nodes compare equal by name.
type LogFile struct {
	Filename   string
	Modified   time.Time
	RemotePath string
	SizeBytes  int64
	Hostname   string
}

// NodeKind discriminates the tree node variants.
type NodeKind int

const (
	KindHost NodeKind = iota
	KindFile
)

// HostNode is a collapsible tree node keyed by hostname.
type HostNode struct {
	Hostname string
	Label    string
}

// FileNode is a leaf tree node keyed by (hostname, filename).
type FileNode struct {
	File LogFile
	Icon string
}

// Node is a closed sum over host and file tree nodes. Exactly one of Host
// and File is non-nil, matching Kind.
type Node struct {
	Kind NodeKind
	Host *HostNode
	File *FileNode
}
