package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

var base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func rec(path string, seq uint64, offset time.Duration, hash string) types.FileRecord {
	return types.FileRecord{
		Path:        path,
		Seq:         seq,
		CreatedAt:   base.Add(offset),
		ContentHash: hash,
		Imports:     []string{"./x"},
	}
}

func paths(records []types.FileRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Path+"@"+r.ContentHash)
	}
	return out
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx, "empty")
	if err != nil {
		t.Fatalf("load unknown project: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %v", paths(got))
	}

	if err := s.Append(ctx, "p1", []types.FileRecord{
		rec("b.js", 2, time.Second, "b1"),
		rec("a.js", 1, 0, "a1"),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, "p1", []types.FileRecord{
		rec("b.js", 2, 3*time.Second, "b2"),
		rec("c.js", 3, 4*time.Second, "c1"),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	// An older record for an existing path never wins.
	if err := s.Append(ctx, "p1", []types.FileRecord{rec("c.js", 3, 2*time.Second, "stale")}); err != nil {
		t.Fatalf("append stale: %v", err)
	}
	if err := s.Append(ctx, "p2", []types.FileRecord{rec("a.js", 1, 0, "other")}); err != nil {
		t.Fatalf("append p2: %v", err)
	}

	got, err = s.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"a.js@a1", "b.js@b2", "c.js@c1"}
	if strings.Join(paths(got), ",") != strings.Join(want, ",") {
		t.Fatalf("load mismatch\n got: %v\nwant: %v", paths(got), want)
	}
	if len(got[0].Imports) != 1 || got[0].Imports[0] != "./x" {
		t.Fatalf("record fields not preserved: %+v", got[0])
	}
	if !got[1].CreatedAt.Equal(base.Add(3 * time.Second)) {
		t.Fatalf("created_at not preserved: %v", got[1].CreatedAt)
	}

	if err := s.Append(ctx, "", []types.FileRecord{rec("a.js", 1, 0, "x")}); err == nil {
		t.Fatalf("expected error for empty project id")
	}
	if err := s.Append(ctx, "p1", []types.FileRecord{{Seq: 9}}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestDiskStore(t *testing.T) {
	exerciseStore(t, NewDiskStore(t.TempDir()))
}

func TestBadgerStoreInMemory(t *testing.T) {
	s, err := OpenBadger("")
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestDiskStore_CompactAndTornLines(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)
	ctx := context.Background()
	for i, hash := range []string{"v1", "v2", "v3"} {
		if err := s.Append(ctx, "proj/one", []types.FileRecord{rec("a.js", 1, time.Duration(i)*time.Second, hash)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	file := filepath.Join(dir, "proj_one.jsonl")
	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString(`{"path":"b.js","se`)
	f.Close()

	if err := s.Compact(ctx, "proj/one"); err != nil {
		t.Fatalf("compact: %v", err)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], `"content_hash":"v3"`) {
		t.Fatalf("unexpected compacted file:\n%s", raw)
	}
	got, err := s.Load(ctx, "proj/one")
	if err != nil || len(got) != 1 || got[0].ContentHash != "v3" {
		t.Fatalf("load after compact: %v %v", paths(got), err)
	}
}

func TestOpen(t *testing.T) {
	cases := []struct {
		cfg     Config
		wantErr bool
	}{
		{cfg: Config{}},
		{cfg: Config{Backend: "Memory", Cache: true}},
		{cfg: Config{Backend: BackendDisk, Dir: t.TempDir()}},
		{cfg: Config{Backend: BackendBadger}},
		{cfg: Config{Backend: BackendPostgres}, wantErr: true},
		{cfg: Config{Backend: BackendS3, S3: S3Config{Endpoint: "localhost:9000"}}, wantErr: true},
		{cfg: Config{Backend: "etcd"}, wantErr: true},
	}
	for _, tc := range cases {
		opened, err := Open(tc.cfg)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("Open(%+v): expected error", tc.cfg)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Open(%+v): %v", tc.cfg, err)
		}
		if opened.Store == nil {
			t.Fatalf("Open(%+v): nil store", tc.cfg)
		}
		if tc.cfg.Cache {
			if _, ok := opened.Store.(*CachedStore); !ok {
				t.Fatalf("expected cached store, got %T", opened.Store)
			}
		}
		if err := opened.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestDiskStore_AppendAfterTornTail(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)
	ctx := context.Background()
	if err := s.Append(ctx, "p1", []types.FileRecord{rec("a.js", 1, 0, "a1")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "p1.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString(`{"path":"torn.js","con`)
	f.Close()

	if err := s.Append(ctx, "p1", []types.FileRecord{rec("b.js", 2, time.Second, "b1")}); err != nil {
		t.Fatalf("append after torn tail: %v", err)
	}
	got, err := s.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"a.js@a1", "b.js@b1"}
	if strings.Join(paths(got), ",") != strings.Join(want, ",") {
		t.Fatalf("load mismatch\n got: %v\nwant: %v", paths(got), want)
	}
}
