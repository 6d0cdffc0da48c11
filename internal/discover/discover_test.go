package discover

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	out := make([]string, len(paths))
	for i, p := range paths {
		require.True(t, filepath.IsAbs(p), p)
		rel, err := filepath.Rel(abs, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestFiles_SupportedOnlySorted(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "Orders.cs", "class Orders {}")
	writeFile(t, dir, "data/Users.cs", "class Users {}")
	writeFile(t, dir, "Module.vb", "Module M")
	writeFile(t, dir, "readme.md", "# hi")

	paths, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Orders.cs", "data/Users.cs"}, relPaths(t, dir, paths))
}

func TestFiles_SkipDirs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "App.cs", "")
	writeFile(t, dir, "bin/Debug/Gen.cs", "")
	writeFile(t, dir, "obj/Temp.cs", "")
	writeFile(t, dir, "node_modules/x/Y.cs", "")
	writeFile(t, dir, "packages/Lib/Z.cs", "")
	writeFile(t, dir, ".vs/Cache.cs", "")

	paths, err := Files(dir, Options{NoGit: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"App.cs"}, relPaths(t, dir, paths))
}

func TestFiles_Gitignore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n*.g.cs\n")
	writeFile(t, dir, "Keep.cs", "")
	writeFile(t, dir, "View.g.cs", "")
	writeFile(t, dir, "generated/Proxy.cs", "")

	paths, err := Files(dir, Options{NoGit: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep.cs"}, relPaths(t, dir, paths))
}

func TestFiles_ExcludeGlobs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "Main.cs", "")
	writeFile(t, dir, "legacy/Old.cs", "")
	writeFile(t, dir, "legacy/deep/Older.cs", "")
	writeFile(t, dir, "ui/Form1.Designer.cs", "")
	writeFile(t, dir, "ui/Form1.cs", "")

	paths, err := Files(dir, Options{Exclude: []string{"legacy/**", "**.Designer.cs"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Main.cs", "ui/Form1.cs"}, relPaths(t, dir, paths))
}

func TestFiles_SingleStarStaysInSegment(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a/X.cs", "")
	writeFile(t, dir, "a/b/Y.cs", "")

	paths, err := Files(dir, Options{Exclude: []string{"a/*.cs"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/Y.cs"}, relPaths(t, dir, paths))
}

func TestFiles_InvalidGlob(t *testing.T) {
	t.Parallel()
	_, err := Files(t.TempDir(), Options{Exclude: []string{"[unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func TestFiles_MissingRoot(t *testing.T) {
	t.Parallel()
	_, err := Files(filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
}

func TestFiles_RootIsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "Only.cs", "")
	_, err := Files(filepath.Join(dir, "Only.cs"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestFiles_EmptyDir(t *testing.T) {
	t.Parallel()
	paths, err := Files(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestFiles_GitWorkTree(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Parallel()
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	writeFile(t, dir, ".gitignore", "Ignored.cs\n")
	writeFile(t, dir, "Tracked.cs", "")
	writeFile(t, dir, "Ignored.cs", "")
	// git lists bin/ because nothing ignores it; the walk would skip it.
	writeFile(t, dir, "bin/Build.cs", "")

	paths, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tracked.cs", "bin/Build.cs"}, relPaths(t, dir, paths))

	paths, err = Files(dir, Options{NoGit: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tracked.cs"}, relPaths(t, dir, paths))
}
