package row_test

import (
	"testing"

	"github.com/screenager/frz/internal/row"
)

func TestStableIDSurvivesReordering(t *testing.T) {
	before := row.SearchData{Files: []row.FileRow{
		row.Filesystem("src/main.rs"),
		row.Filesystem("src/lib.rs"),
		row.Filesystem("README.md"),
	}}
	id := before.Files[1].ID

	after := row.SearchData{Files: []row.FileRow{
		row.Filesystem("src/lib.rs"),
		row.Filesystem("README.md"),
		row.Filesystem("src/main.rs"),
	}}

	idx, ok := after.IDMap()[id]
	if !ok {
		t.Fatalf("id %d not found after reordering", id)
	}
	if after.Files[idx].Path != "src/lib.rs" {
		t.Errorf("resolved index %d points at %q, want src/lib.rs", idx, after.Files[idx].Path)
	}
}

func TestStableIDDeterministicForSamePair(t *testing.T) {
	a := row.StableID("", "src/main.rs")
	b := row.StableID("", "src/main.rs")
	if a != b {
		t.Errorf("StableID is not deterministic: %d != %d", a, b)
	}
}

func TestStableIDUniqueWithinSnapshot(t *testing.T) {
	data := row.SearchData{Files: []row.FileRow{
		row.Filesystem("a"),
		row.Filesystem("b"),
		row.Filesystem("c"),
	}}
	seen := make(map[uint64]bool)
	for _, f := range data.Files {
		if seen[f.ID] {
			t.Fatalf("duplicate id for distinct path %q", f.Path)
		}
		seen[f.ID] = true
	}
}

func TestStableIDDiffersByDataset(t *testing.T) {
	a := row.StableID("files", "x")
	b := row.StableID("facets", "x")
	if a == b {
		t.Errorf("expected dataset tag to affect id, got equal ids")
	}
}
