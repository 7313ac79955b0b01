// Package output renders hosts and log files for the terminal, as ASCII
// tables or JSON.
package output

import (
	"fmt"
	"os"
	"time"

	"github.com/massimosiani/prophet/internal/types"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats counts and sizes with locale-aware grouping.
var printer = message.NewPrinter(language.English)

// PrintHosts formats and prints registered hosts as an ASCII table.
func PrintHosts(hosts []types.HostConfig) {
	if len(hosts) == 0 {
		fmt.Println("No hosts configured.")
		return
	}

	fmt.Println("Hosts")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Host", "Root Path", "Working Folder", "Protocol")

	for _, h := range hosts {
		table.Append(h.Hostname, h.RootPath, h.WorkingFolder, h.ProtocolVersion)
	}

	table.Render()
}

// PrintLogs formats and prints log files as an ASCII table, preserving the
// given order.
func PrintLogs(files []types.Node) {
	if len(files) == 0 {
		fmt.Println("No log files found.")
		return
	}

	fmt.Println("Log files")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("File", "Modified", "Size", "Icon")

	for _, n := range files {
		if n.Kind != types.KindFile || n.File == nil {
			continue
		}
		f := n.File
		table.Append(f.File.Filename, formatModified(f.File.Modified), formatSize(f.File.SizeBytes), f.Icon)
	}

	table.Render()
}

// formatModified renders a modification time, using "-" for the zero time.
func formatModified(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// formatSize formats a byte count as a human-readable string.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return printer.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return printer.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return printer.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return printer.Sprintf("%d B", bytes)
	}
}
