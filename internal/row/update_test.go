package row_test

import (
	"testing"

	"github.com/screenager/frz/internal/row"
)

func TestMergeAppendsWithoutReset(t *testing.T) {
	d := row.SearchData{Files: []row.FileRow{row.Filesystem("a.go")}}
	d.Merge(row.Update{Files: []row.FileRow{row.Filesystem("b.go")}})
	if len(d.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(d.Files))
	}
}

func TestMergeResetDiscardsPriorRows(t *testing.T) {
	d := row.SearchData{Files: []row.FileRow{row.Filesystem("a.go")}}
	d.Merge(row.Update{Reset: true, Files: []row.FileRow{row.Filesystem("b.go")}})
	if len(d.Files) != 1 || d.Files[0].Path != "b.go" {
		t.Fatalf("reset merge should discard prior rows, got %+v", d.Files)
	}
}

func TestMergeCachedDataReplacesWholesale(t *testing.T) {
	d := row.SearchData{Files: []row.FileRow{row.Filesystem("a.go")}}
	replacement := row.SearchData{ContextLabel: "cached", Files: []row.FileRow{row.Filesystem("c.go"), row.Filesystem("d.go")}}
	d.Merge(row.Update{CachedData: &replacement})
	if d.ContextLabel != "cached" {
		t.Fatalf("expected context label to come from cached data, got %q", d.ContextLabel)
	}
	if len(d.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(d.Files))
	}
}

func TestMergeCachedDataTakesPrecedenceOverReset(t *testing.T) {
	d := row.SearchData{Files: []row.FileRow{row.Filesystem("a.go")}}
	replacement := row.SearchData{Files: []row.FileRow{row.Filesystem("only.go")}}
	d.Merge(row.Update{Reset: true, CachedData: &replacement, Files: []row.FileRow{row.Filesystem("ignored.go")}})
	if len(d.Files) != 1 || d.Files[0].Path != "only.go" {
		t.Fatalf("cached data should replace wholesale, got %+v", d.Files)
	}
}
