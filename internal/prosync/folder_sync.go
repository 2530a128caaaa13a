package prosync

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FolderSyncer executes folder connections: scan both trees, plan, then work
// through the action list sequentially. Per-action failures are recorded in
// the run summary and do not abort the remaining plan.
type FolderSyncer struct {
	fs       Filesystem
	planner  *Planner
	notifier Notifier
	logger   Logger
	control  *Control
}

// NewFolderSyncer creates a folder executor. notifier, logger and control
// may be nil; no-op implementations are substituted.
func NewFolderSyncer(fsys Filesystem, planner *Planner, notifier Notifier, logger Logger, control *Control) *FolderSyncer {
	if planner == nil {
		planner = NewPlanner(0)
	}
	if notifier == nil {
		notifier = NewNopNotifier()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if control == nil {
		control = NewControl()
	}
	return &FolderSyncer{fs: fsys, planner: planner, notifier: notifier, logger: logger, control: control}
}

// Run syncs one folder connection. idx may be nil to disable indexing.
// Configuration and scan errors are terminal; they are emitted through the
// notifier and returned. A cancelled run stops after the in-flight action
// and returns the partial summary without an error.
func (s *FolderSyncer) Run(conn *FolderConnection, idx Index) (*RunSummary, error) {
	if conn.Source == "" {
		return nil, s.fail("source path not configured")
	}
	if conn.Target == "" && conn.Mode != ModeIndexOnly {
		return nil, s.fail("target path not configured")
	}

	s.notifier.Status(fmt.Sprintf("[%s] scanning source...", conn.Name))
	srcTree, err := s.fs.Scan(conn.Source, conn.ExcludePatterns)
	if err != nil {
		return nil, s.fail(fmt.Sprintf("scanning source: %v", err))
	}

	tgtTree := Snapshot{}
	if conn.Mode != ModeIndexOnly {
		s.notifier.Status(fmt.Sprintf("[%s] scanning target...", conn.Name))
		tgtTree, err = s.fs.Scan(conn.Target, conn.ExcludePatterns)
		if err != nil {
			return nil, s.fail(fmt.Sprintf("scanning target: %v", err))
		}
	}

	s.notifier.Status(fmt.Sprintf("[%s] comparing...", conn.Name))
	actions := s.planner.Plan(srcTree, tgtTree, conn.Mode, conn.ConflictPolicy)

	summary := &RunSummary{Total: len(actions)}
	lastPct := -1
	for i, action := range actions {
		if s.control.Poll() {
			summary.Cancelled = true
			s.logger.Info("run cancelled", "connection", conn.ID, "completed", i, "total", len(actions))
			break
		}

		if pct := i * 100 / max(1, len(actions)); pct != lastPct {
			s.notifier.Progress(pct, "sync")
			lastPct = pct
		}

		if err := s.execute(conn, idx, action, summary); err != nil {
			summary.recordFailure(action, err)
			s.logger.Warn("action failed", "action", string(action.Kind), "path", action.Path, "error", err)
		}
	}

	if !summary.Cancelled {
		s.notifier.Progress(100, "done")
		s.notifier.Finished()
	}
	return summary, nil
}

func (s *FolderSyncer) execute(conn *FolderConnection, idx Index, action Action, summary *RunSummary) error {
	srcAbs := filepath.Join(conn.Source, filepath.FromSlash(action.Path))
	tgtAbs := ""
	if conn.Target != "" {
		tgtAbs = filepath.Join(conn.Target, filepath.FromSlash(action.Path))
	}

	switch action.Kind {
	case ActionCopyToTarget:
		s.notifier.Status(fmt.Sprintf("copy -> %s", action.Path))
		if err := s.fs.MkdirAll(filepath.Dir(tgtAbs)); err != nil {
			return fmt.Errorf("creating target directory: %w", err)
		}
		if err := s.fs.Copy(srcAbs, tgtAbs); err != nil {
			return fmt.Errorf("copying to target: %w", err)
		}
		summary.Copied++
		s.indexFile(conn, idx, srcAbs, SideSource)
		s.indexFile(conn, idx, tgtAbs, SideTarget)

	case ActionCopyToSource:
		s.notifier.Status(fmt.Sprintf("copy <- %s", action.Path))
		if err := s.fs.MkdirAll(filepath.Dir(srcAbs)); err != nil {
			return fmt.Errorf("creating source directory: %w", err)
		}
		if err := s.fs.Copy(tgtAbs, srcAbs); err != nil {
			return fmt.Errorf("copying to source: %w", err)
		}
		summary.Copied++
		s.indexFile(conn, idx, srcAbs, SideSource)

	case ActionDeleteTarget:
		s.notifier.Status(fmt.Sprintf("delete %s", action.Path))
		if err := s.fs.Remove(tgtAbs); err != nil {
			return fmt.Errorf("deleting from target: %w", err)
		}
		summary.Deleted++

	case ActionIndexSource:
		if s.indexFile(conn, idx, srcAbs, SideSource) {
			summary.Indexed++
		} else {
			summary.Skipped++
		}

	case ActionIndexBoth:
		indexed := s.indexFile(conn, idx, srcAbs, SideSource)
		if tgtAbs != "" {
			indexed = s.indexFile(conn, idx, tgtAbs, SideTarget) || indexed
		}
		if indexed {
			summary.Indexed++
		} else {
			summary.Skipped++
		}
	}
	return nil
}

// indexFile logs one file version into the index store, with auto-tags
// derived from the intermediate directory names when enabled. Index errors
// are advisory: they are logged and the run continues without that entry.
func (s *FolderSyncer) indexFile(conn *FolderConnection, idx Index, absPath string, side Side) bool {
	if idx == nil {
		return false
	}

	info, err := s.fs.Stat(absPath)
	if err != nil {
		s.logger.Warn("index skipped, stat failed", "path", absPath, "error", err)
		return false
	}
	hash, err := s.fs.HashFile(absPath)
	if err != nil {
		s.logger.Warn("index skipped, hash failed", "path", absPath, "error", err)
		return false
	}

	fileID, err := idx.LogVersion(filepath.Base(absPath), absPath, info.ModTime(), info.Size(), hash, side)
	if err != nil {
		s.logger.Warn("index write failed", "path", absPath, "error", err)
		return false
	}

	if conn.AutoTags {
		root := conn.Source
		if side == SideTarget {
			root = conn.Target
		}
		for _, tag := range autoTags(root, absPath) {
			if err := idx.AddTag(fileID, tag); err != nil {
				s.logger.Warn("tag write failed", "path", absPath, "tag", tag, "error", err)
			}
		}
	}
	return true
}

// autoTags derives one tag per intermediate directory name between root and
// the file itself.
func autoTags(root, absPath string) []string {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return nil
	}
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." {
		return nil
	}
	var tags []string
	for _, seg := range strings.Split(dir, "/") {
		if seg != "" && seg != "." && seg != ".." {
			tags = append(tags, seg)
		}
	}
	return tags
}

func (s *FolderSyncer) fail(msg string) error {
	s.notifier.Error(msg)
	return fmt.Errorf("%s", msg)
}
