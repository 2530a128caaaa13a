package app

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"prosync-go/internal/config"
	"prosync-go/internal/fs"
	"prosync-go/internal/index"
	"prosync-go/internal/prosync"
	"prosync-go/internal/safety"
	"prosync-go/internal/scheduler"
)

// SyncApp is the application layer between the CLI and the sync engine.
// It owns the connection store, the single-task runner, the safety analyzer
// and the autosync scheduler, and manages the log file lifecycle on Close.
type SyncApp struct {
	cfg          *config.Config
	store        *config.Store
	fsys         prosync.Filesystem
	analyzer     *safety.Analyzer
	checkpointer *safety.Checkpointer
	runner       *prosync.Runner
	sched        *scheduler.Scheduler
	logger       prosync.Logger
	clock        prosync.Clock
	ids          prosync.IDGenerator
	logFile      *os.File
}

// NewSyncApp creates a fully wired SyncApp from the given config.
// The caller must call Close when done.
func NewSyncApp(cfg *config.Config) (*SyncApp, error) {
	runID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	store := config.NewStore(cfg.ConnectionsPath)
	if err := store.Load(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("loading connections: %w", err)
	}

	clock := prosync.RealClock{}
	a := &SyncApp{
		cfg:          cfg,
		store:        store,
		fsys:         fs.NewOSFilesystem(),
		analyzer:     safety.NewAnalyzer(logger, clock),
		checkpointer: safety.NewCheckpointer(logger),
		runner:       prosync.NewRunner(logger),
		logger:       logger,
		clock:        clock,
		ids:          prosync.UUIDGenerator{},
		logFile:      logFile,
	}
	a.sched = scheduler.New(logger, a.autoSyncTrigger)
	return a, nil
}

// Connections returns all stored connections.
func (a *SyncApp) Connections() []prosync.Connection {
	return a.store.List()
}

// Connection returns the stored connection with the given id.
func (a *SyncApp) Connection(id string) (prosync.Connection, error) {
	conn := a.store.Get(id)
	if conn == nil {
		return nil, fmt.Errorf("connection not found: %s", id)
	}
	return conn, nil
}

// AddFolderConnection validates, safety-checks and stores a folder
// connection. The safety analyzer scans the source tree and patches the
// connection before it is saved; its warnings are returned for display.
func (a *SyncApp) AddFolderConnection(conn *prosync.FolderConnection) ([]string, error) {
	if conn.ID == "" {
		conn.ID = a.ids.New()
	}
	conn.Kind = prosync.KindFolder
	if err := conn.Validate(); err != nil {
		return nil, fmt.Errorf("invalid folder connection: %w", err)
	}

	records := a.analyzer.ScanDirectory(conn.Source)
	warnings, _, _ := a.analyzer.ApplySafeSettingsForFolder(conn, records)

	if err := a.store.Upsert(conn); err != nil {
		return warnings, fmt.Errorf("saving connection: %w", err)
	}
	a.sched.Set(conn.ID, conn.AutoSync)
	a.logger.Info("folder connection saved", "id", conn.ID, "name", conn.Name, "mode", string(conn.Mode))
	return warnings, nil
}

// AddFileConnection validates, safety-checks and stores a file connection.
// Database sources may have their mode and autosync settings overridden; the
// analyzer's warnings are returned for display.
func (a *SyncApp) AddFileConnection(conn *prosync.FileConnection) ([]string, error) {
	if conn.ID == "" {
		conn.ID = a.ids.New()
	}
	conn.Kind = prosync.KindFile
	if err := conn.Validate(); err != nil {
		return nil, fmt.Errorf("invalid file connection: %w", err)
	}

	warnings, _ := a.analyzer.ApplySafeSettingsForFile(conn)

	if err := a.store.Upsert(conn); err != nil {
		return warnings, fmt.Errorf("saving connection: %w", err)
	}
	a.sched.Set(conn.ID, conn.AutoSync)
	a.logger.Info("file connection saved", "id", conn.ID, "name", conn.Name, "mode", string(conn.Mode))
	return warnings, nil
}

// RemoveConnection deletes a connection and cancels its schedule.
func (a *SyncApp) RemoveConnection(id string) error {
	found, err := a.store.Remove(id)
	if err != nil {
		return fmt.Errorf("removing connection: %w", err)
	}
	if !found {
		return fmt.Errorf("connection not found: %s", id)
	}
	a.sched.Remove(id)
	a.logger.Info("connection removed", "id", id)
	return nil
}

// RunConnection starts a sync run for the connection on the background
// worker. It returns prosync.ErrBusy if another run is active. Progress and
// status flow through the notifier; call Wait to block until the run ends.
func (a *SyncApp) RunConnection(id string, notifier prosync.Notifier) error {
	conn, err := a.Connection(id)
	if err != nil {
		return err
	}
	if notifier == nil {
		notifier = prosync.NewNopNotifier()
	}

	switch c := conn.(type) {
	case *prosync.FolderConnection:
		return a.runner.Start(id, func(ctl *prosync.Control) {
			a.runFolder(c, notifier, ctl)
		})
	case *prosync.FileConnection:
		return a.runner.Start(id, func(ctl *prosync.Control) {
			a.runFile(c, notifier, ctl)
		})
	default:
		return fmt.Errorf("unknown connection type for %s", id)
	}
}

func (a *SyncApp) runFolder(conn *prosync.FolderConnection, notifier prosync.Notifier, ctl *prosync.Control) {
	var idx prosync.Index
	var store *index.Store
	if conn.Indexing {
		path := conn.IndexPath
		if path == "" {
			path = index.DefaultPath(conn.Source)
		}
		st, err := index.Open(path, a.logger, a.clock)
		if err != nil {
			// The run is still useful without version history.
			a.logger.Warn("index unavailable, syncing unindexed", "path", path, "error", err)
		} else {
			store = st
			idx = st
		}
	}

	syncer := prosync.NewFolderSyncer(a.fsys, prosync.NewPlanner(a.cfg.ModTimeTolerance()), notifier, a.logger, ctl)
	summary, err := syncer.Run(conn, idx)
	if store != nil {
		if cerr := store.Close(); cerr != nil {
			a.logger.Warn("closing index", "error", cerr)
		}
	}
	if err != nil {
		a.logger.Error("folder sync failed", "id", conn.ID, "error", err)
		return
	}
	a.logger.Info("folder sync finished",
		"id", conn.ID,
		"copied", summary.Copied,
		"deleted", summary.Deleted,
		"indexed", summary.Indexed,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
	)
}

func (a *SyncApp) runFile(conn *prosync.FileConnection, notifier prosync.Notifier, ctl *prosync.Control) {
	syncer := prosync.NewFileSyncer(a.fsys, a.checkpointer, notifier, a.logger, ctl)
	if err := syncer.Run(conn); err != nil {
		a.logger.Error("file sync failed", "id", conn.ID, "error", err)
		return
	}
	a.logger.Info("file sync finished", "id", conn.ID)
}

// Wait blocks until the active sync run (if any) finishes.
func (a *SyncApp) Wait() { a.runner.Wait() }

// Busy reports whether a sync run is active.
func (a *SyncApp) Busy() bool { return a.runner.Busy() }

// Pause suspends the active run at its next safe point.
func (a *SyncApp) Pause() { a.runner.Pause() }

// Resume lifts a pause.
func (a *SyncApp) Resume() { a.runner.Resume() }

// Cancel requests a cooperative stop of the active run.
func (a *SyncApp) Cancel() { a.runner.Cancel() }

// ScanSafety re-runs the database safety analysis for a connection and
// persists any settings changes. It returns the found records (folder
// connections only) and the analyzer's warnings.
func (a *SyncApp) ScanSafety(id string) ([]safety.Record, []string, error) {
	conn, err := a.Connection(id)
	if err != nil {
		return nil, nil, err
	}

	switch c := conn.(type) {
	case *prosync.FolderConnection:
		records := a.analyzer.ScanDirectory(c.Source)
		warnings, _, _ := a.analyzer.ApplySafeSettingsForFolder(c, records)
		if err := a.store.Upsert(c); err != nil {
			return records, warnings, fmt.Errorf("saving connection: %w", err)
		}
		return records, warnings, nil
	case *prosync.FileConnection:
		warnings, _ := a.analyzer.ApplySafeSettingsForFile(c)
		if err := a.store.Upsert(c); err != nil {
			return nil, warnings, fmt.Errorf("saving connection: %w", err)
		}
		return nil, warnings, nil
	default:
		return nil, nil, fmt.Errorf("unknown connection type for %s", id)
	}
}

// Checkpoint forces a WAL checkpoint on the SQLite database at path.
func (a *SyncApp) Checkpoint(path string) error {
	return a.checkpointer.Checkpoint(path)
}

// Search queries the version index of every indexing-enabled folder
// connection and merges the hits. Connections whose index cannot be opened
// are skipped with a warning.
func (a *SyncApp) Search(term string) ([]index.SearchResult, error) {
	var results []index.SearchResult
	for _, conn := range a.store.List() {
		c, ok := conn.(*prosync.FolderConnection)
		if !ok || !c.Indexing {
			continue
		}
		path := c.IndexPath
		if path == "" {
			path = index.DefaultPath(c.Source)
		}
		if _, err := os.Stat(path); err != nil {
			continue // index not created yet
		}
		st, err := index.Open(path, a.logger, a.clock)
		if err != nil {
			a.logger.Warn("search skipped index", "path", path, "error", err)
			continue
		}
		hits, err := st.Search(term)
		st.Close()
		if err != nil {
			a.logger.Warn("search failed", "path", path, "error", err)
			continue
		}
		results = append(results, hits...)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Match != results[j].Match {
			return results[i].Match < results[j].Match
		}
		return results[i].Name < results[j].Name
	})
	return results, nil
}

// StartSchedules installs autosync schedules for all stored connections.
// Called by the daemon command after startup.
func (a *SyncApp) StartSchedules() {
	for _, conn := range a.store.List() {
		a.sched.Set(conn.Base().ID, conn.Base().AutoSync)
	}
}

// autoSyncTrigger is the scheduler callback: kick off a background run,
// tolerating an already-busy worker.
func (a *SyncApp) autoSyncTrigger(connID string) {
	err := a.RunConnection(connID, nil)
	if errors.Is(err, prosync.ErrBusy) {
		a.logger.Info("autosync skipped, task active", "id", connID)
		return
	}
	if err != nil {
		a.logger.Error("autosync failed to start", "id", connID, "error", err)
	}
}

// Close stops the scheduler, waits out the active run, and closes the log.
func (a *SyncApp) Close() error {
	a.sched.Stop()
	a.runner.Wait()
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
