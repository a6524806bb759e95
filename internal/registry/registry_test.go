package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/extract"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

func newTestRegistry(aliases map[string]string) *Registry {
	opts := DefaultOptions()
	opts.Aliases = aliases
	return New(extract.Default(), opts)
}

func mustRegister(t *testing.T, r *Registry, p, content, description, createdBy string, deps []string) types.FileRecord {
	t.Helper()
	rec, err := r.Register(p, content, description, createdBy, deps)
	require.NoError(t, err)
	return rec
}

func TestRegister_RejectsInvalidPaths(t *testing.T) {
	r := newTestRegistry(nil)
	for _, p := range []string{"/abs/a.js", "../outside/b.js", "", `C:\src\c.js`, "a/../../d.js"} {
		rec, err := r.Register(p, "export const x = 1", "", "", nil)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
		assert.Empty(t, rec.Path, p)
	}
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Paths())
	assert.False(t, r.Has(""))

	rec := mustRegister(t, r, "./src/a.js", "", "", "", nil)
	assert.Equal(t, "src/a.js", rec.Path)
	assert.Equal(t, []string{"src/a.js"}, r.Paths())
}

func TestRegister_ExtractsSymbols(t *testing.T) {
	r := newTestRegistry(nil)
	rec := mustRegister(t, r, "frontend/src/api/member.js",
		"import http from './http'\nexport function listMembers() {}\n",
		"member api", "frontend-agent", []string{"frontend/src/api/http.js"})

	assert.Equal(t, "frontend/src/api/member.js", rec.Path)
	assert.Equal(t, []string{"./http"}, rec.Imports)
	assert.Equal(t, []string{"listMembers"}, rec.Exports)
	assert.Equal(t, []string{"frontend/src/api/http.js"}, rec.DeclaredDependencies)
	assert.Len(t, rec.ContentHash, 64)
	assert.Equal(t, uint64(1), rec.Seq)
}

func TestRegister_UnknownExtensionHasNoSymbols(t *testing.T) {
	r := newTestRegistry(nil)
	rec := mustRegister(t, r, "README.md", "import x from './y'", "", "", nil)
	assert.Empty(t, rec.Imports)
	assert.Empty(t, rec.Exports)
	assert.NotEmpty(t, rec.ContentHash)
}

func TestRegister_ReplacesRecord(t *testing.T) {
	r := newTestRegistry(nil)
	first := mustRegister(t, r, "a.js", "import './b'\nexport const one = 1", "", "agent-1", nil)
	same := mustRegister(t, r, "a.js", "import './b'\nexport const one = 1", "", "agent-1", nil)
	assert.Equal(t, first.ContentHash, same.ContentHash)

	changed := mustRegister(t, r, "a.js", "import './c'\nexport const two = 2", "", "agent-2", nil)
	assert.NotEqual(t, first.ContentHash, changed.ContentHash)
	assert.Equal(t, []string{"./c"}, changed.Imports)
	assert.Equal(t, []string{"two"}, changed.Exports)
	assert.Equal(t, first.Seq, changed.Seq, "re-registration keeps the original position")

	got, ok := r.Get("a.js")
	require.True(t, ok)
	assert.Equal(t, changed, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegister_CreatedAtIsMonotonic(t *testing.T) {
	r := newTestRegistry(nil)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	a := mustRegister(t, r, "a.js", "", "", "", nil)
	b := mustRegister(t, r, "b.js", "", "", "", nil)
	c := mustRegister(t, r, "a.js", "x", "", "", nil)
	assert.True(t, b.CreatedAt.After(a.CreatedAt))
	assert.True(t, c.CreatedAt.After(b.CreatedAt))
}

func TestAll_RegistrationOrder(t *testing.T) {
	r := newTestRegistry(nil)
	for _, p := range []string{"c.js", "a.js", "b.js"} {
		r.Register(p, "", "", "", nil)
	}
	r.Register("a.js", "changed", "", "", nil)

	assert.Equal(t, []string{"c.js", "a.js", "b.js"}, r.Paths())
	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, ContentHash("changed"), all[1].ContentHash)
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := newTestRegistry(nil)
	r.Register("a.js", "import './b'", "", "", []string{"b.js"})
	rec, _ := r.Get("a.js")
	rec.Imports[0] = "mutated"
	rec.DeclaredDependencies[0] = "mutated"

	again, _ := r.Get("a.js")
	assert.Equal(t, []string{"./b"}, again.Imports)
	assert.Equal(t, []string{"b.js"}, again.DeclaredDependencies)
}

func TestRegister_ExtractionMemoRespectsReRegisteredExtractors(t *testing.T) {
	extractors := extract.Default()
	r := New(extractors, DefaultOptions())
	content := "import './b'"
	first := mustRegister(t, r, "a.js", content, "", "", nil)
	assert.Equal(t, []string{"./b"}, first.Imports)

	extractors.Register(stubExtractor{exts: []string{".js"}, imports: []string{"./stub"}})
	second := mustRegister(t, r, "a.js", content, "", "", nil)
	assert.Equal(t, []string{"./stub"}, second.Imports)
}

type stubExtractor struct {
	exts    []string
	imports []string
}

func (s stubExtractor) SupportedExtensions() []string { return s.exts }
func (s stubExtractor) ExtractImports(string) []string { return s.imports }
func (s stubExtractor) ExtractExports(string) []string { return nil }

func TestRegister_ConcurrentSamePathLastWriterWins(t *testing.T) {
	r := newTestRegistry(nil)
	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Register("shared.js", fmt.Sprintf("export const v%d = %d", i, i), "", fmt.Sprintf("agent-%d", i), nil)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, r.Len())
	rec, ok := r.Get("shared.js")
	require.True(t, ok)
	// Whatever writer won, its record is internally consistent.
	var idx int
	_, err := fmt.Sscanf(rec.CreatedBy, "agent-%d", &idx)
	require.NoError(t, err)
	assert.Equal(t, ContentHash(fmt.Sprintf("export const v%d = %d", idx, idx)), rec.ContentHash)
	assert.Equal(t, []string{fmt.Sprintf("v%d", idx)}, rec.Exports)
}

func TestRestore(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []types.FileRecord{
		{Path: "b.js", Seq: 2, CreatedAt: base.Add(time.Second), ContentHash: "old"},
		{Path: "a.js", Seq: 1, CreatedAt: base},
		{Path: "b.js", Seq: 2, CreatedAt: base.Add(2 * time.Second), ContentHash: "new"},
		{Path: "", Seq: 3},
		{Path: "../escape.js", Seq: 4},
	}
	r := newTestRegistry(nil)
	r.Register("stale.js", "", "", "", nil)
	r.Restore(records)

	assert.Equal(t, []string{"a.js", "b.js"}, r.Paths())
	b, ok := r.Get("b.js")
	require.True(t, ok)
	assert.Equal(t, "new", b.ContentHash)

	next := mustRegister(t, r, "c.js", "", "", "", nil)
	assert.Equal(t, uint64(3), next.Seq)
	assert.True(t, next.CreatedAt.After(b.CreatedAt))
}

func TestCleanPath(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		invalid bool
	}{
		{in: "frontend/src/App.vue", want: "frontend/src/App.vue"},
		{in: "./frontend//src/../src/App.vue", want: "frontend/src/App.vue"},
		{in: `backend\app\main.py`, want: "backend/app/main.py"},
		{in: "", invalid: true},
		{in: "   ", invalid: true},
		{in: "/etc/passwd", invalid: true},
		{in: "../outside.js", invalid: true},
		{in: "a/../../outside.js", invalid: true},
		{in: ".", invalid: true},
		{in: `C:\temp\x.js`, invalid: true},
	}
	for _, tc := range cases {
		got, err := CleanPath(tc.in)
		if tc.invalid {
			if !errors.Is(err, ErrInvalidPath) {
				t.Fatalf("CleanPath(%q): expected ErrInvalidPath, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("CleanPath(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("CleanPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
