package prosync

import (
	"fmt"
	"path/filepath"
)

// Progress milestones for the single-file executor, one per stage.
const (
	progressCheckpoint = 10
	progressPrepare    = 30
	progressCopy       = 50
	progressVerify     = 90
	progressDone       = 100
)

// FileSyncer executes file connections: an optional WAL checkpoint, then a
// whole-file copy with a size verification. Nothing is retried; every
// failure past the checkpoint is terminal for the run.
type FileSyncer struct {
	fs           Filesystem
	checkpointer Checkpointer
	notifier     Notifier
	logger       Logger
	control      *Control
}

// NewFileSyncer creates a single-file executor. checkpointer, notifier,
// logger and control may be nil.
func NewFileSyncer(fsys Filesystem, checkpointer Checkpointer, notifier Notifier, logger Logger, control *Control) *FileSyncer {
	if notifier == nil {
		notifier = NewNopNotifier()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if control == nil {
		control = NewControl()
	}
	return &FileSyncer{fs: fsys, checkpointer: checkpointer, notifier: notifier, logger: logger, control: control}
}

// Run syncs one file connection source to target. Cancellation is checked
// between stages only; a cancelled run returns nil without touching the
// remaining stages.
func (s *FileSyncer) Run(conn *FileConnection) error {
	if conn.SourceFile == "" || conn.TargetFile == "" {
		return s.fail("source or target file not configured")
	}
	if _, err := s.fs.Stat(conn.SourceFile); err != nil {
		return s.fail(fmt.Sprintf("source file not found: %s", conn.SourceFile))
	}

	filename := filepath.Base(conn.SourceFile)
	s.notifier.Status(fmt.Sprintf("[%s] preparing sync...", conn.Name))

	// Stage 1: WAL checkpoint. A failed checkpoint means the copy may miss
	// very recent writes, not that it will corrupt anything, so the run
	// proceeds with a warning.
	if conn.CheckpointBeforeSync && s.checkpointer != nil {
		s.notifier.Progress(progressCheckpoint, "checkpoint")
		s.notifier.Status(fmt.Sprintf("checkpoint: %s", filename))
		if err := s.checkpointer.Checkpoint(conn.SourceFile); err != nil {
			s.logger.Warn("wal checkpoint failed, continuing", "path", conn.SourceFile, "error", err)
			s.notifier.Status("checkpoint failed (sync continues)")
		} else {
			s.notifier.Status(fmt.Sprintf("checkpoint complete: %s", filename))
		}
	}

	if s.control.Poll() {
		return nil
	}

	// Stage 2: ensure the target directory exists.
	s.notifier.Progress(progressPrepare, "prepare")
	if dir := filepath.Dir(conn.TargetFile); dir != "" && dir != "." {
		if err := s.fs.MkdirAll(dir); err != nil {
			return s.fail(fmt.Sprintf("creating target directory: %v", err))
		}
	}

	if s.control.Poll() {
		return nil
	}

	// Stage 3: copy with metadata preservation.
	s.notifier.Progress(progressCopy, "copy")
	s.notifier.Status(fmt.Sprintf("copying: %s", filename))
	if err := s.fs.Copy(conn.SourceFile, conn.TargetFile); err != nil {
		return s.fail(fmt.Sprintf("copy failed: %v", err))
	}

	if s.control.Poll() {
		return nil
	}

	// Stage 4: verify by size comparison.
	s.notifier.Progress(progressVerify, "verify")
	srcInfo, err := s.fs.Stat(conn.SourceFile)
	if err != nil {
		return s.fail(fmt.Sprintf("verifying source: %v", err))
	}
	tgtInfo, err := s.fs.Stat(conn.TargetFile)
	if err != nil {
		return s.fail(fmt.Sprintf("verifying target: %v", err))
	}
	if srcInfo.Size() != tgtInfo.Size() {
		return s.fail(fmt.Sprintf("size mismatch after copy (%d vs %d bytes)", srcInfo.Size(), tgtInfo.Size()))
	}

	s.notifier.Progress(progressDone, "done")
	s.notifier.Status(fmt.Sprintf("sync complete: %s (%d bytes)", filename, srcInfo.Size()))
	s.notifier.Finished()
	return nil
}

func (s *FileSyncer) fail(msg string) error {
	s.notifier.Error(msg)
	return fmt.Errorf("%s", msg)
}
