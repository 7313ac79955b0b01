package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/massimosiani/prophet/internal/types"
)

// HostsJSON represents the hosts command's JSON output structure.
type HostsJSON struct {
	GeneratedAt string     `json:"generatedAt"`
	Hosts       []HostInfo `json:"hosts"`
}

// HostInfo represents one registered host in JSON output.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	RootPath        string `json:"rootPath"`
	WorkingFolder   string `json:"workingFolder"`
	ProtocolVersion string `json:"protocolVersion"`
}

// LogsJSON represents the logs command's JSON output structure.
type LogsJSON struct {
	GeneratedAt string    `json:"generatedAt"`
	Hostname    string    `json:"hostname"`
	Filter      string    `json:"filter,omitempty"`
	Files       []LogInfo `json:"files"`
}

// LogInfo represents one log file in JSON output.
type LogInfo struct {
	Filename   string `json:"filename"`
	Modified   string `json:"modified,omitempty"`
	SizeBytes  int64  `json:"sizeBytes"`
	RemotePath string `json:"remotePath"`
	Icon       string `json:"icon"`
}

// PrintHostsJSON prints registered hosts as JSON to stdout.
func PrintHostsJSON(hosts []types.HostConfig) error {
	out := HostsJSON{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hosts:       make([]HostInfo, 0, len(hosts)),
	}
	for _, h := range hosts {
		out.Hosts = append(out.Hosts, HostInfo{
			Hostname:        h.Hostname,
			RootPath:        h.RootPath,
			WorkingFolder:   h.WorkingFolder,
			ProtocolVersion: h.ProtocolVersion,
		})
	}
	return printJSON(out)
}

// PrintLogsJSON prints a host's log files as JSON to stdout.
func PrintLogsJSON(hostname, filter string, files []types.Node) error {
	out := LogsJSON{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:    hostname,
		Filter:      filter,
		Files:       make([]LogInfo, 0, len(files)),
	}
	for _, n := range files {
		if n.Kind != types.KindFile || n.File == nil {
			continue
		}
		f := n.File
		info := LogInfo{
			Filename:   f.File.Filename,
			SizeBytes:  f.File.SizeBytes,
			RemotePath: f.File.RemotePath,
			Icon:       f.Icon,
		}
		if !f.File.Modified.IsZero() {
			info.Modified = f.File.Modified.UTC().Format(time.RFC3339)
		}
		out.Files = append(out.Files, info)
	}
	return printJSON(out)
}

// printJSON marshals v with indentation and prints it to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}

	fmt.Println(string(data))
	return nil
}
