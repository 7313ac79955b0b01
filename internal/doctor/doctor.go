// Package doctor validates configuration and remote connectivity.
package doctor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/massimosiani/prophet/internal/client"
	"github.com/massimosiani/prophet/internal/config"
	"github.com/massimosiani/prophet/internal/types"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

func checkmark() string {
	return colorGreen + "✓" + colorReset
}

func crossmark() string {
	return colorRed + "✗" + colorReset
}

// connectTimeout bounds each per-host connectivity probe.
const connectTimeout = 10 * time.Second

// RunChecks performs all doctor checks and returns whether all passed.
// When probe is true, each configured host receives one listing call.
func RunChecks(ctx context.Context, cfg *types.Config, configPath string, probe bool) bool {
	fmt.Println("prophet doctor - Configuration and connectivity check")
	fmt.Println()

	allPassed := true

	fmt.Println("Configuration:")
	fmt.Printf("  %s Config file loaded: %s\n", checkmark(), configPath)

	if cfg.Archive.Bucket == "" {
		fmt.Printf("  %s Archive not configured (archive command disabled)\n", checkmark())
	} else {
		fmt.Printf("  %s Archive bucket configured: %s\n", checkmark(), cfg.Archive.Bucket)
		if cfg.Archive.Region == "" {
			fmt.Printf("  %s Archive region not configured\n", crossmark())
			fmt.Printf("    → Edit %s and set archive.region\n", configPath)
			allPassed = false
		}
	}

	fmt.Println()
	fmt.Println("Host configurations:")

	info, err := os.Stat(cfg.Hosts.Root)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("  %s Hosts root does not exist: %s\n", crossmark(), cfg.Hosts.Root)
			fmt.Printf("    → Create the directory or update hosts.root in config\n")
		} else {
			fmt.Printf("  %s Cannot access hosts root: %s\n", crossmark(), cfg.Hosts.Root)
			fmt.Printf("    → Error: %v\n", err)
		}
		printSummary(false)
		return false
	}

	if !info.IsDir() {
		fmt.Printf("  %s Hosts root is not a directory: %s\n", crossmark(), cfg.Hosts.Root)
		fmt.Printf("    → Ensure hosts.root points to a directory\n")
		printSummary(false)
		return false
	}

	fmt.Printf("  %s Hosts root exists: %s\n", checkmark(), cfg.Hosts.Root)

	sources, err := config.ScanHosts(cfg.Hosts.Root)
	if err != nil {
		fmt.Printf("  %s Hosts root is not readable\n", crossmark())
		fmt.Printf("    → Error: %v\n", err)
		printSummary(false)
		return false
	}

	if len(sources) == 0 {
		fmt.Printf("  %s No host configuration files found (add YAML files under %s)\n",
			checkmark(), cfg.Hosts.Root)
	}

	var hosts []types.HostConfig
	for _, src := range sources {
		hostCfg, err := config.LoadHost(src)
		if err != nil {
			fmt.Printf("  %s %s: %v\n", crossmark(), src, err)
			allPassed = false
			continue
		}
		fmt.Printf("  %s %s → %s\n", checkmark(), src, hostCfg.Hostname)
		hosts = append(hosts, hostCfg)
	}

	if probe && len(hosts) > 0 {
		fmt.Println()
		fmt.Println("Connectivity:")
		for _, hostCfg := range hosts {
			if !probeHost(ctx, hostCfg) {
				allPassed = false
			}
		}
	}

	fmt.Println()
	printSummary(allPassed)
	return allPassed
}

// probeHost issues one listing call against the host's working folder.
func probeHost(ctx context.Context, cfg types.HostConfig) bool {
	probeCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	c := client.NewDAV(cfg)
	files, err := c.Logs(probeCtx)
	if err != nil {
		fmt.Printf("  %s %s unreachable: %v\n", crossmark(), cfg.Hostname, err)
		return false
	}

	fileWord := "files"
	if len(files) == 1 {
		fileWord = "file"
	}
	fmt.Printf("  %s %s reachable (%d log %s)\n", checkmark(), cfg.Hostname, len(files), fileWord)
	return true
}

func printSummary(allPassed bool) {
	if allPassed {
		fmt.Println("All checks passed! Ready to use prophet.")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}
}
