package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestRoot_ReadFileStaysInside(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"src/a.js": "x"})
	r, err := OpenRoot(dir)
	require.NoError(t, err)

	data, err := r.ReadFile("src/a.js")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	for _, bad := range []string{"", "../etc/passwd", "/etc/passwd", "src"} {
		_, err := r.ReadFile(bad)
		assert.Error(t, err, bad)
	}
}

func TestRoot_RejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"secret.txt": "s"})
	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(dir, "link.txt")))

	r, err := OpenRoot(dir)
	require.NoError(t, err)
	_, err = r.ReadFile("link.txt")
	assert.Error(t, err)

	writes, err := r.Walk(WalkOptions{})
	require.NoError(t, err)
	assert.Empty(t, writes)
}

func TestWalk(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"frontend/src/views/Home.vue":      "<script>import P from './Profile.vue'</script>",
		"frontend/src/main.js":             "import App from './App.vue'",
		"frontend/node_modules/vue/x.js":   "ignored",
		".git/HEAD":                        "ref",
		"backend/app/main.py":              "import fastapi",
		"backend/app/__pycache__/main.pyc": "bin",
		"README.md":                        "# readme",
	})

	writes, err := Walk(dir, WalkOptions{})
	require.NoError(t, err)
	var got []string
	for _, w := range writes {
		got = append(got, w.Path)
		assert.Equal(t, CreatedBy, w.CreatedBy)
	}
	assert.Equal(t, []string{
		"README.md",
		"backend/app/main.py",
		"frontend/src/main.js",
		"frontend/src/views/Home.vue",
	}, got)

	writes, err = Walk(dir, WalkOptions{Extensions: []string{"vue", ".PY"}})
	require.NoError(t, err)
	got = got[:0]
	for _, w := range writes {
		got = append(got, w.Path)
	}
	assert.Equal(t, []string{"backend/app/main.py", "frontend/src/views/Home.vue"}, got)

	writes, err = Walk(dir, WalkOptions{MaxFileSize: 10})
	require.NoError(t, err)
	require.Len(t, writes, 1)
	assert.Equal(t, "README.md", writes[0].Path)
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"), WalkOptions{})
	assert.Error(t, err)
}

func TestDeclaredPackages(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"frontend/package.json": `{
  "name": "app",
  "dependencies": {"vue": "^3.4.0", "axios": "1.6.0"},
  "devDependencies": {"@vitejs/plugin-vue": "5.0.0"},
  "peerDependencies": {"pinia": "*"}
}`,
		"backend/requirements.txt": "# api\nFastAPI>=0.110\nsqlalchemy==2.0.29 ; python_version > '3.8'\nuvicorn[standard]\n-r base.txt\n\npydantic~=2.6\n",
		"tools/go.mod":             "module example.com/tools\n\ngo 1.22\n\nrequire (\n\tgithub.com/spf13/cobra v1.8.0\n\tgolang.org/x/mod v0.17.0 // indirect\n)\n",
		"frontend/node_modules/x/package.json": `{"dependencies": {"left-pad": "1"}}`,
	})

	got, err := DeclaredPackages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"@vitejs/plugin-vue",
		"axios",
		"example.com/tools",
		"fastapi",
		"github.com/spf13/cobra",
		"golang.org/x/mod",
		"pinia",
		"pydantic",
		"sqlalchemy",
		"uvicorn",
		"vue",
	}, got)
}

func TestParseManifest_Errors(t *testing.T) {
	_, err := ParseManifest("package.json", []byte("{"))
	assert.Error(t, err)
	_, err = ParseManifest("go.mod", []byte("module\n"))
	assert.Error(t, err)
	_, err = ParseManifest("Cargo.toml", nil)
	assert.Error(t, err)
}

func TestWatcher_BatchesChanges(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"src/a.js": "a", "node_modules/x.js": "x"})

	batches := make(chan []string, 4)
	w, err := NewWatcher(dir, 200*time.Millisecond, func(_ context.Context, changed []string) error {
		batches <- changed
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeTree(t, dir, map[string]string{"src/a.js": "a2", "src/b.js": "b", "node_modules/x.js": "x2"})

	select {
	case changed := <-batches:
		assert.Contains(t, changed, "src/a.js")
		assert.NotContains(t, changed, "node_modules/x.js")
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "unexpected run error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_CallbackErrorStops(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	w, err := NewWatcher(dir, 20*time.Millisecond, func(context.Context, []string) error { return boom })
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	writeTree(t, dir, map[string]string{"a.py": "import os"})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on callback error")
	}
}

func TestNewWatcher_RequiresCallback(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), 0, nil)
	assert.Error(t, err)
}
