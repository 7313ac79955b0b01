package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/massimosiani/prophet/internal/archive"
	"github.com/massimosiani/prophet/internal/config"
	"github.com/massimosiani/prophet/internal/doctor"
	"github.com/massimosiani/prophet/internal/output"
	"github.com/massimosiani/prophet/internal/registry"
	"github.com/massimosiani/prophet/internal/tree"
	"github.com/massimosiani/prophet/internal/types"
	"github.com/massimosiani/prophet/internal/viewer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath        string
	defaultConfigPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "prophet",
	Short:   "Browse, view, and clear log files on remote application servers",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Long: `prophet mirrors the log directories of remote application servers as a
host → log file hierarchy. Hosts are defined by per-host YAML files in a
configuration directory; files appearing or disappearing there register and
remove the matching remote clients.`,
}

var (
	jsonOutput bool
	filterText string
	dryRun     bool
	probe      bool
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List configured remote hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg, err := bootstrapRegistry(cfg)
		if err != nil {
			return err
		}
		defer reg.Close()

		var hosts []types.HostConfig
		for _, c := range reg.Snapshot() {
			hosts = append(hosts, c.Config())
		}

		if jsonOutput {
			return output.PrintHostsJSON(hosts)
		}
		output.PrintHosts(hosts)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <host>",
	Short: "List log files on a host, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg, err := bootstrapRegistry(cfg)
		if err != nil {
			return err
		}
		defer reg.Close()

		model := tree.New(reg)
		if filterText != "" {
			model.SetFilter(filterText)
		}

		files, err := model.Children(cmd.Context(), &types.HostNode{Hostname: args[0]})
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.PrintLogsJSON(args[0], filterText, files)
		}
		output.PrintLogs(files)
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <host> <file>",
	Short: "Fetch a log file and print its transformed content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg, err := bootstrapRegistry(cfg)
		if err != nil {
			return err
		}
		defer reg.Close()

		node, err := findLog(cmd.Context(), reg, args[0], args[1])
		if err != nil {
			return err
		}

		text, err := viewer.New(reg).OpenLog(cmd.Context(), node)
		if err != nil {
			return err
		}

		fmt.Print(text)
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean <host> <file>",
	Short: "Overwrite a remote log file with a cleaned marker",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg, err := bootstrapRegistry(cfg)
		if err != nil {
			return err
		}
		defer reg.Close()

		node, err := findLog(cmd.Context(), reg, args[0], args[1])
		if err != nil {
			return err
		}

		if err := viewer.New(reg).CleanLog(cmd.Context(), node); err != nil {
			return err
		}

		fmt.Printf("Cleaned %s on %s\n", args[1], args[0])
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Copy remote log files to S3-compatible storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := config.ValidateArchive(cfg); err != nil {
			return fmt.Errorf("archive not configured: %w", err)
		}

		reg, err := bootstrapRegistry(cfg)
		if err != nil {
			return err
		}
		defer reg.Close()

		ctx := cmd.Context()

		a := archive.New(cfg, nil, dryRun)
		if !dryRun {
			client, err := config.NewS3Client(ctx, cfg)
			if err != nil {
				return fmt.Errorf("creating S3 client: %w", err)
			}
			a = archive.New(cfg, client, false)
		}

		if _, err := a.Archive(ctx, reg.Snapshot()); err != nil {
			return fmt.Errorf("archiving logs: %w", err)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the host configuration directory and mirror it live",
	Long: `watch runs the configuration orchestrator against the hosts directory:
adding a host file registers its remote client, removing it tears the client
down, and every registry change re-renders the host list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := registry.New(nil, log)
		model := tree.New(reg)

		regEvents, unsubscribe := reg.Subscribe()
		defer unsubscribe()
		go model.Forward(regEvents)

		modelEvents, unsubModel := model.Subscribe()
		defer unsubModel()
		go func() {
			for range modelEvents {
				var hosts []types.HostConfig
				for _, c := range reg.Snapshot() {
					hosts = append(hosts, c.Config())
				}
				output.PrintHosts(hosts)
			}
		}()

		watcher := config.NewWatcher(cfg.Hosts.Root, log)
		orch := registry.NewOrchestrator(reg, nil, log)

		done := make(chan struct{})
		go func() {
			orch.Run(watcher.Events())
			close(done)
		}()

		err = watcher.Run(ctx)
		<-done
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watching hosts: %w", err)
		}
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate configuration and connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		allPassed := doctor.RunChecks(cmd.Context(), cfg, configPath, probe)
		if !allPassed {
			exitFunc(1)
		}
		return nil
	},
}

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to get home directory: %v\n", err)
		homeDir = "~"
	}
	defaultConfigPath = filepath.Join(homeDir, ".prophet", "config.yaml")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to config file")

	hostsCmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	logsCmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	logsCmd.Flags().StringVar(&filterText, "filter", "", "substring filter on file names")
	archiveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be archived without uploading")
	doctorCmd.Flags().BoolVar(&probe, "probe", true, "probe each host with one listing call")

	rootCmd.AddCommand(hostsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(doctorCmd)
}

var exitFunc = os.Exit

func loadConfig() (*types.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			isDefaultPath := configPath == defaultConfigPath
			if isDefaultPath {
				if err := config.CreateStarterConfig(configPath); err != nil {
					return nil, fmt.Errorf("creating starter config: %w", err)
				}
				printWelcomeMessage(configPath)
				exitFunc(0)
			}
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// bootstrapRegistry mirrors the current hosts directory into a fresh registry.
func bootstrapRegistry(cfg *types.Config) (*registry.Registry, error) {
	sources, err := config.ScanHosts(cfg.Hosts.Root)
	if err != nil {
		return nil, fmt.Errorf("scanning hosts root: %w", err)
	}

	reg := registry.New(nil, nil)
	registry.NewOrchestrator(reg, nil, nil).Bootstrap(sources)
	return reg, nil
}

// findLog expands a host's children and returns the named log file node.
func findLog(ctx context.Context, reg *registry.Registry, host, filename string) (*types.FileNode, error) {
	model := tree.New(reg)
	children, err := model.Children(ctx, &types.HostNode{Hostname: host})
	if err != nil {
		return nil, err
	}

	for _, n := range children {
		if n.Kind == types.KindFile && n.File != nil && n.File.File.Filename == filename {
			return n.File, nil
		}
	}
	return nil, fmt.Errorf("log file not found on %s: %s", host, filename)
}

func printWelcomeMessage(configPath string) {
	fmt.Println("Welcome to prophet!")
	fmt.Println()
	fmt.Printf("A starter configuration file has been created at:\n")
	fmt.Printf("  %s\n", configPath)
	fmt.Println()
	fmt.Println("Please edit this file, then add one YAML file per host under")
	fmt.Println("the hosts directory, for example:")
	fmt.Println()
	fmt.Println("  # ~/.prophet/hosts.d/logs1.yaml")
	fmt.Println("  hostname: logs1.example.com")
	fmt.Println("  root_path: /Sites/Logs")
	fmt.Println("  working_folder: /Sites/Logs")
	fmt.Println()
	fmt.Println("After configuration, run:")
	fmt.Println("  prophet doctor   # Validate configuration")
	fmt.Println("  prophet hosts    # List configured hosts")
	fmt.Println("  prophet logs <host>")
}
