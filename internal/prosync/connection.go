package prosync

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SyncMode controls what a sync run does with the differences it finds.
type SyncMode string

const (
	// ModeMirror makes the target an exact copy of the source, deleting
	// target files that no longer exist on the source side.
	ModeMirror SyncMode = "mirror"
	// ModeUpdate copies new and changed files to the target but never deletes.
	ModeUpdate SyncMode = "update"
	// ModeTwoWay propagates changes in both directions, resolving conflicts
	// via the connection's ConflictPolicy.
	ModeTwoWay SyncMode = "two_way"
	// ModeIndexOnly catalogs source files without copying or deleting anything.
	ModeIndexOnly SyncMode = "index_only"
	// ModeOneWay copies a single file source to target. File connections only.
	ModeOneWay SyncMode = "one_way"
)

// ConflictPolicy is the tie-break rule used when two-way sync finds a path
// changed on both sides.
type ConflictPolicy string

const (
	PolicySource ConflictPolicy = "source"
	PolicyTarget ConflictPolicy = "target"
	PolicyNewest ConflictPolicy = "newest"
)

// Side identifies which end of a connection a file copy was observed on.
type Side string

const (
	SideSource Side = "source"
	SideTarget Side = "target"
)

// ConnectionKind discriminates the two connection variants.
type ConnectionKind string

const (
	KindFolder ConnectionKind = "folder"
	KindFile   ConnectionKind = "file"
)

// AutoSync configures unattended periodic sync for a connection.
type AutoSync struct {
	Enabled         bool   `json:"enabled"`
	IntervalMinutes int    `json:"interval_minutes"`
	Reason          string `json:"reason,omitempty"` // why autosync was force-disabled, if it was
}

func (a AutoSync) Validate() error {
	if !a.Enabled {
		return nil
	}
	return validation.ValidateStruct(&a,
		validation.Field(&a.IntervalMinutes, validation.Min(1)),
	)
}

// ConnectionBase holds the fields shared by both connection variants.
type ConnectionBase struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     ConnectionKind `json:"type"`
	Mode     SyncMode       `json:"mode"`
	AutoSync AutoSync       `json:"autosync"`
}

// Connection is the tagged union over the two descriptor variants.
type Connection interface {
	Base() *ConnectionBase
	Validate() error
}

// SafetyAnalysis is the summary the database safety analyzer writes back onto
// a folder connection after scanning its source tree.
type SafetyAnalysis struct {
	DatabasesFound    int       `json:"databases_found"`
	CriticalDatabases int       `json:"critical_databases"`
	ExcludedDatabases int       `json:"excluded_databases"`
	TotalDBSizeMB     float64   `json:"total_db_size_mb"`
	LastCheck         time.Time `json:"last_check"`
	AutoConfigured    bool      `json:"auto_configured"`
}

// ExcludedDatabase records one database the analyzer excluded from folder sync.
type ExcludedDatabase struct {
	Name         string  `json:"name"`
	SizeMB       float64 `json:"size_mb"`
	Type         string  `json:"type"`
	WALMode      bool    `json:"wal_mode"`
	RelativePath string  `json:"relative_path"`
}

// FolderConnection syncs a whole directory tree.
type FolderConnection struct {
	ConnectionBase
	Source          string             `json:"source"`
	Target          string             `json:"target"`
	ExcludePatterns []string           `json:"exclude_patterns"`
	ConflictPolicy  ConflictPolicy     `json:"conflict_policy"`
	Indexing        bool               `json:"indexing"`
	IndexPath       string             `json:"db_path,omitempty"`
	AutoTags        bool               `json:"auto_tags"`
	Safety          *SafetyAnalysis    `json:"safety_analysis,omitempty"`
	AutoExcluded    []ExcludedDatabase `json:"auto_excluded_dbs,omitempty"`
}

func (c *FolderConnection) Base() *ConnectionBase { return &c.ConnectionBase }

func (c *FolderConnection) Validate() error {
	if err := c.ConnectionBase.validate(KindFolder, ModeMirror, ModeUpdate, ModeTwoWay, ModeIndexOnly); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required),
		validation.Field(&c.Target, validation.Required.When(c.Mode != ModeIndexOnly)),
		validation.Field(&c.ConflictPolicy, validation.In(PolicySource, PolicyTarget, PolicyNewest)),
	)
}

// HasExcludePattern reports whether the pattern is already configured.
func (c *FolderConnection) HasExcludePattern(pattern string) bool {
	for _, p := range c.ExcludePatterns {
		if p == pattern {
			return true
		}
	}
	return false
}

// FileAnalysis is the summary the safety analyzer writes back onto a file
// connection after inspecting its source file.
type FileAnalysis struct {
	Filename          string    `json:"filename"`
	Type              string    `json:"type"`
	SizeMB            float64   `json:"size_mb"`
	WALMode           bool      `json:"wal_mode"`
	Critical          bool      `json:"is_critical"`
	CheckpointEnabled bool      `json:"checkpoint_enabled"`
	LastCheck         time.Time `json:"last_check"`
}

// FileConnection syncs a single file, typically a database that must not be
// swept up in a folder sync.
type FileConnection struct {
	ConnectionBase
	SourceFile           string        `json:"source_file"`
	TargetFile           string        `json:"target_file"`
	CheckpointBeforeSync bool          `json:"checkpoint_before_sync"`
	Analysis             *FileAnalysis `json:"file_analysis,omitempty"`
}

func (c *FileConnection) Base() *ConnectionBase { return &c.ConnectionBase }

func (c *FileConnection) Validate() error {
	if err := c.ConnectionBase.validate(KindFile, ModeOneWay, ModeTwoWay); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.SourceFile, validation.Required),
		validation.Field(&c.TargetFile, validation.Required),
	)
}

func (b *ConnectionBase) validate(kind ConnectionKind, modes ...SyncMode) error {
	allowed := make([]any, len(modes))
	for i, m := range modes {
		allowed[i] = m
	}
	return validation.ValidateStruct(b,
		validation.Field(&b.ID, validation.Required),
		validation.Field(&b.Name, validation.Required),
		validation.Field(&b.Kind, validation.In(kind)),
		validation.Field(&b.Mode, validation.Required, validation.In(allowed...)),
		validation.Field(&b.AutoSync),
	)
}
