package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"prosync-go/internal/app"
	"prosync-go/internal/config"
	"prosync-go/internal/prosync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a SyncApp. The caller must defer app.Close().
func newApp() (*app.SyncApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewSyncApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// cliNotifier prints sync progress and status to stdout.
type cliNotifier struct{}

func (cliNotifier) Progress(pct int, phase string) { fmt.Printf("[%3d%%] %s\n", pct, phase) }
func (cliNotifier) Status(msg string)              { fmt.Println(msg) }
func (cliNotifier) Error(msg string)               { fmt.Fprintf(os.Stderr, "error: %s\n", msg) }
func (cliNotifier) Finished()                      { fmt.Println("Sync complete.") }

var rootCmd = &cobra.Command{
	Use:   "prosync",
	Short: "Directory and file sync with database safety",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])
		fmt.Printf("Connections: %s\n", cfg.ConnectionsPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Connections: %s\n", cfg.ConnectionsPath)
		fmt.Printf("Tolerance:   %s\n", cfg.ModTimeTolerance())
		return nil
	},
}

// conn command
var connCmd = &cobra.Command{
	Use:   "conn",
	Short: "Manage sync connections",
}

var connListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sync connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		conns := a.Connections()
		if len(conns) == 0 {
			fmt.Println("No connections configured.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Type", "Mode", "Source", "Target", "Autosync"})
		for _, conn := range conns {
			base := conn.Base()
			source, target := "", ""
			switch c := conn.(type) {
			case *prosync.FolderConnection:
				source, target = c.Source, c.Target
			case *prosync.FileConnection:
				source, target = c.SourceFile, c.TargetFile
			}
			auto := "off"
			if base.AutoSync.Enabled {
				auto = fmt.Sprintf("%dm", base.AutoSync.IntervalMinutes)
			}
			t.AppendRow(table.Row{base.ID, base.Name, string(base.Kind), string(base.Mode), source, target, auto})
		}
		t.Render()
		return nil
	},
}

var connAddFolderCmd = &cobra.Command{
	Use:   "add-folder",
	Short: "Add a folder sync connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		source, _ := cmd.Flags().GetString("source")
		target, _ := cmd.Flags().GetString("target")
		mode, _ := cmd.Flags().GetString("mode")
		policy, _ := cmd.Flags().GetString("policy")
		excludes, _ := cmd.Flags().GetStringSlice("exclude")
		indexing, _ := cmd.Flags().GetBool("index")
		indexPath, _ := cmd.Flags().GetString("index-path")
		autoTags, _ := cmd.Flags().GetBool("auto-tags")
		interval, _ := cmd.Flags().GetInt("autosync")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		conn := &prosync.FolderConnection{
			ConnectionBase: prosync.ConnectionBase{
				Name: name,
				Mode: prosync.SyncMode(mode),
				AutoSync: prosync.AutoSync{
					Enabled:         interval > 0,
					IntervalMinutes: interval,
				},
			},
			Source:          source,
			Target:          target,
			ExcludePatterns: excludes,
			ConflictPolicy:  prosync.ConflictPolicy(policy),
			Indexing:        indexing,
			IndexPath:       indexPath,
			AutoTags:        autoTags,
		}

		warnings, err := a.AddFolderConnection(conn)
		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Folder connection created: %s\n", conn.ID)
		return nil
	},
}

var connAddFileCmd = &cobra.Command{
	Use:   "add-file",
	Short: "Add a single-file sync connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		source, _ := cmd.Flags().GetString("source")
		target, _ := cmd.Flags().GetString("target")
		mode, _ := cmd.Flags().GetString("mode")
		checkpoint, _ := cmd.Flags().GetBool("checkpoint")
		interval, _ := cmd.Flags().GetInt("autosync")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		conn := &prosync.FileConnection{
			ConnectionBase: prosync.ConnectionBase{
				Name: name,
				Mode: prosync.SyncMode(mode),
				AutoSync: prosync.AutoSync{
					Enabled:         interval > 0,
					IntervalMinutes: interval,
				},
			},
			SourceFile:           source,
			TargetFile:           target,
			CheckpointBeforeSync: checkpoint,
		}

		warnings, err := a.AddFileConnection(conn)
		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if err != nil {
			return err
		}

		fmt.Printf("File connection created: %s\n", conn.ID)
		return nil
	},
}

var connRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a sync connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveConnection(args[0]); err != nil {
			return err
		}
		fmt.Printf("Connection removed: %s\n", args[0])
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync ID",
	Short: "Run a sync connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RunConnection(args[0], cliNotifier{}); err != nil {
			return fmt.Errorf("starting sync: %w", err)
		}
		a.Wait()
		return nil
	},
}

// safety command
var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Database safety analysis",
}

var safetyScanCmd = &cobra.Command{
	Use:   "scan ID",
	Short: "Scan a connection for database files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		records, warnings, err := a.ScanSafety(args[0])
		if err != nil {
			return err
		}

		if len(records) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Database", "Type", "Size (MB)", "WAL", "Critical"})
			for _, rec := range records {
				t.AppendRow(table.Row{rec.RelativePath, string(rec.Type), fmt.Sprintf("%.1f", rec.SizeMB), rec.WALMode, rec.Critical})
			}
			t.Render()
		} else {
			fmt.Println("No database files found.")
		}

		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}
		return nil
	},
}

// checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint PATH",
	Short: "Force a WAL checkpoint on a SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Checkpoint(args[0]); err != nil {
			return fmt.Errorf("checkpoint failed: %w", err)
		}
		fmt.Printf("Checkpoint complete: %s\n", args[0])
		return nil
	},
}

// search command
var searchCmd = &cobra.Command{
	Use:   "search TERM",
	Short: "Search the version index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.Search(args[0])
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Path", "Modified", "Match"})
		for _, r := range results {
			t.AppendRow(table.Row{r.Name, r.Path, r.ModTime.Format("2006-01-02 15:04:05"), r.Match})
		}
		t.Render()
		return nil
	},
}

// daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run autosync schedules until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a.StartSchedules()
		fmt.Println("Autosync daemon running. Ctrl-C to stop.")
		<-ctx.Done()
		fmt.Println("Shutting down...")
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// conn subcommands
	connCmd.AddCommand(connListCmd)
	connCmd.AddCommand(connAddFolderCmd)
	connCmd.AddCommand(connAddFileCmd)
	connCmd.AddCommand(connRemoveCmd)

	connAddFolderCmd.Flags().String("name", "", "Connection name")
	connAddFolderCmd.Flags().String("source", "", "Source directory")
	connAddFolderCmd.Flags().String("target", "", "Target directory")
	connAddFolderCmd.Flags().String("mode", "update", "Sync mode: mirror, update, two_way, index_only")
	connAddFolderCmd.Flags().String("policy", "newest", "Conflict policy: source, target, newest")
	connAddFolderCmd.Flags().StringSlice("exclude", nil, "Exclude patterns (repeatable)")
	connAddFolderCmd.Flags().Bool("index", false, "Enable the version index")
	connAddFolderCmd.Flags().String("index-path", "", "Version index database path")
	connAddFolderCmd.Flags().Bool("auto-tags", false, "Tag indexed files with their directory names")
	connAddFolderCmd.Flags().Int("autosync", 0, "Autosync interval in minutes (0 = off)")

	connAddFileCmd.Flags().String("name", "", "Connection name")
	connAddFileCmd.Flags().String("source", "", "Source file")
	connAddFileCmd.Flags().String("target", "", "Target file")
	connAddFileCmd.Flags().String("mode", "one_way", "Sync mode: one_way, two_way")
	connAddFileCmd.Flags().Bool("checkpoint", false, "Force a WAL checkpoint before sync")
	connAddFileCmd.Flags().Int("autosync", 0, "Autosync interval in minutes (0 = off)")

	// safety subcommands
	safetyCmd.AddCommand(safetyScanCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(connCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(safetyCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(daemonCmd)
}
