package prosync_test

import (
	"reflect"
	"testing"
	"time"

	"prosync-go/internal/prosync"
)

var baseTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func entry(offset time.Duration, size int64) prosync.Entry {
	return prosync.Entry{ModTime: baseTime.Add(offset), Size: size}
}

func TestPlanner_Plan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    prosync.Snapshot
		tgt    prosync.Snapshot
		mode   prosync.SyncMode
		policy prosync.ConflictPolicy
		want   []prosync.Action
	}{
		{
			name: "mirror copies new and changed, deletes extra",
			src: prosync.Snapshot{
				"a.txt":   entry(0, 10),
				"b/c.txt": entry(0, 20),
			},
			tgt: prosync.Snapshot{
				"b/c.txt":   entry(-time.Hour, 25),
				"stale.txt": entry(0, 5),
			},
			mode: prosync.ModeMirror,
			want: []prosync.Action{
				{Kind: prosync.ActionCopyToTarget, Path: "a.txt"},
				{Kind: prosync.ActionCopyToTarget, Path: "b/c.txt"},
				{Kind: prosync.ActionDeleteTarget, Path: "stale.txt"},
			},
		},
		{
			name: "update never deletes extra target files",
			src: prosync.Snapshot{
				"a.txt": entry(0, 10),
			},
			tgt: prosync.Snapshot{
				"stale.txt": entry(0, 5),
			},
			mode: prosync.ModeUpdate,
			want: []prosync.Action{
				{Kind: prosync.ActionCopyToTarget, Path: "a.txt"},
			},
		},
		{
			name: "unchanged files are indexed, not copied",
			src: prosync.Snapshot{
				"same.txt": entry(0, 10),
			},
			tgt: prosync.Snapshot{
				"same.txt": entry(0, 10),
			},
			mode: prosync.ModeMirror,
			want: []prosync.Action{
				{Kind: prosync.ActionIndexBoth, Path: "same.txt"},
			},
		},
		{
			name: "mtime skew within tolerance counts as unchanged",
			src: prosync.Snapshot{
				"same.txt": entry(0, 10),
			},
			tgt: prosync.Snapshot{
				"same.txt": entry(800*time.Millisecond, 10),
			},
			mode: prosync.ModeUpdate,
			want: []prosync.Action{
				{Kind: prosync.ActionIndexBoth, Path: "same.txt"},
			},
		},
		{
			name: "two way copies in both directions",
			src: prosync.Snapshot{
				"src-only.txt": entry(0, 10),
			},
			tgt: prosync.Snapshot{
				"tgt-only.txt": entry(0, 20),
			},
			mode:   prosync.ModeTwoWay,
			policy: prosync.PolicyNewest,
			want: []prosync.Action{
				{Kind: prosync.ActionCopyToTarget, Path: "src-only.txt"},
				{Kind: prosync.ActionCopyToSource, Path: "tgt-only.txt"},
			},
		},
		{
			name: "two way conflict with newest policy prefers newer target",
			src: prosync.Snapshot{
				"doc.txt": entry(0, 10),
			},
			tgt: prosync.Snapshot{
				"doc.txt": entry(10*time.Second, 12),
			},
			mode:   prosync.ModeTwoWay,
			policy: prosync.PolicyNewest,
			want: []prosync.Action{
				{Kind: prosync.ActionCopyToSource, Path: "doc.txt"},
			},
		},
		{
			name: "two way conflict with newest policy prefers newer source",
			src: prosync.Snapshot{
				"doc.txt": entry(10*time.Second, 10),
			},
			tgt: prosync.Snapshot{
				"doc.txt": entry(0, 12),
			},
			mode:   prosync.ModeTwoWay,
			policy: prosync.PolicyNewest,
			want: []prosync.Action{
				{Kind: prosync.ActionCopyToTarget, Path: "doc.txt"},
			},
		},
		{
			name: "two way conflict tie favors source",
			src: prosync.Snapshot{
				"doc.txt": entry(0, 10),
			},
			tgt: prosync.Snapshot{
				"doc.txt": entry(0, 12),
			},
			mode:   prosync.ModeTwoWay,
			policy: prosync.PolicyNewest,
			want: []prosync.Action{
				{Kind: prosync.ActionCopyToTarget, Path: "doc.txt"},
			},
		},
		{
			name: "two way conflict with target policy",
			src: prosync.Snapshot{
				"doc.txt": entry(time.Hour, 10),
			},
			tgt: prosync.Snapshot{
				"doc.txt": entry(0, 12),
			},
			mode:   prosync.ModeTwoWay,
			policy: prosync.PolicyTarget,
			want: []prosync.Action{
				{Kind: prosync.ActionCopyToSource, Path: "doc.txt"},
			},
		},
		{
			name: "index only catalogs source without touching target",
			src: prosync.Snapshot{
				"a.txt": entry(0, 10),
				"b.txt": entry(0, 20),
			},
			tgt: prosync.Snapshot{
				"b.txt":     entry(0, 20),
				"stale.txt": entry(0, 5),
			},
			mode: prosync.ModeIndexOnly,
			want: []prosync.Action{
				{Kind: prosync.ActionIndexSource, Path: "a.txt"},
				{Kind: prosync.ActionIndexSource, Path: "b.txt"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := prosync.NewPlanner(0)
			got := p.Plan(tt.src, tt.tgt, tt.mode, tt.policy)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanner_Tolerance(t *testing.T) {
	t.Parallel()

	src := prosync.Snapshot{"f.txt": entry(0, 10)}
	tgt := prosync.Snapshot{"f.txt": entry(10*time.Second, 10)}

	strict := prosync.NewPlanner(time.Second)
	got := strict.Plan(src, tgt, prosync.ModeUpdate, "")
	if len(got) != 1 || got[0].Kind != prosync.ActionCopyToTarget {
		t.Errorf("strict tolerance: Plan() = %v, want single copy_to_target", got)
	}

	loose := prosync.NewPlanner(30 * time.Second)
	got = loose.Plan(src, tgt, prosync.ModeUpdate, "")
	if len(got) != 1 || got[0].Kind != prosync.ActionIndexBoth {
		t.Errorf("loose tolerance: Plan() = %v, want single index_both", got)
	}
}

func TestEntry_Equal(t *testing.T) {
	t.Parallel()

	a := entry(0, 10)
	if !a.Equal(entry(time.Second, 10), time.Second) {
		t.Error("skew equal to tolerance should compare equal")
	}
	if a.Equal(entry(2*time.Second, 10), time.Second) {
		t.Error("skew beyond tolerance should compare unequal")
	}
	if a.Equal(entry(0, 11), time.Second) {
		t.Error("different sizes should compare unequal")
	}
	// Negative skew is symmetric.
	if !entry(time.Second, 10).Equal(a, time.Second) {
		t.Error("tolerance should apply in both directions")
	}
}
