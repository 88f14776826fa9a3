package copier

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/harrison/builder/internal/exclusion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (with their content) on fs
func writeTree(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(content), 0644))
	}
}

// listTree returns every path below root, relative to root, sorted
func listTree(t *testing.T, fs billy.Filesystem, root string) []string {
	t.Helper()
	var paths []string
	err := util.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func readFile(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestCopyTreeWithoutExclusions(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a":         "a",
		"/src/b":         "b",
		"/src/d/x":       "x",
		"/src/d/e/f.txt": "f",
	})
	require.NoError(t, fs.MkdirAll("/dst", 0755))

	c := New(fs)
	err := c.CopyTree(Request{
		Source:      "/src",
		Destination: "/dst",
		Exclusions:  exclusion.Resolve("/src", nil),
	})
	require.NoError(t, err)

	want := []string{"a", "b", "d", "d/e", "d/e/f.txt", "d/x"}
	if diff := cmp.Diff(want, listTree(t, fs, "/dst")); diff != "" {
		t.Errorf("destination tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "f", readFile(t, fs, "/dst/d/e/f.txt"))
}

func TestCopyTreeExcludesFile(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a": "a",
		"/src/b": "b",
		"/src/c": "c",
	})

	err := New(fs).CopyTree(Request{
		Source:      "/src",
		Destination: "/dst",
		Exclusions:  exclusion.Resolve("/src", []string{"b"}),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, listTree(t, fs, "/dst"))
}

func TestCopyTreePrunesExcludedDirectory(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/keep.txt": "keep",
		"/src/d/x":      "x",
		"/src/d/y/z":    "z",
	})

	var visited []string
	c := New(fs)
	c.Progress = func(path string) { visited = append(visited, path) }

	err := c.CopyTree(Request{
		Source:      "/src/",
		Destination: "/dst",
		Exclusions:  exclusion.Resolve("/src/", []string{"d"}),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.txt"}, listTree(t, fs, "/dst"))
	assert.Equal(t, []string{"/src/keep.txt"}, visited)
}

func TestCopyTreeNodeModulesScenario(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/home/luis/app/config.json":                     `{"name":"app"}`,
		"/home/luis/app/src/index.ts":                    "export {}",
		"/home/luis/app/node_modules/left-pad/index.js":  "module.exports = 1",
		"/home/luis/app/node_modules/.bin/tsc":           "#!/bin/sh",
		"/home/luis/app/node_modules/deep/a/b/c/d/e.txt": "deep",
	})
	require.NoError(t, fs.MkdirAll("/mnt/c/app", 0755))

	err := New(fs).CopyTree(Request{
		Source:      "/home/luis/app",
		Destination: "/mnt/c/app",
		Exclusions:  exclusion.Resolve("/home/luis/app", []string{"node_modules"}),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"config.json", "src", "src/index.ts"}, listTree(t, fs, "/mnt/c/app"))
}

func TestCopyTreeClearDestination(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a":             "a",
		"/dst/unrelated.txt": "old",
		"/dst/stale/x":       "old",
	})

	err := New(fs).CopyTree(Request{
		Source:           "/src",
		Destination:      "/dst",
		ClearDestination: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, listTree(t, fs, "/dst"))

	// The directory entry itself survives
	info, err := fs.Stat("/dst")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCopyTreeKeepsUnrelatedFilesWithoutClear(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a":             "a",
		"/dst/unrelated.txt": "old",
	})

	require.NoError(t, New(fs).CopyTree(Request{Source: "/src", Destination: "/dst"}))

	assert.Equal(t, []string{"a", "unrelated.txt"}, listTree(t, fs, "/dst"))
}

func TestCopyTreeClearRequiresDirectory(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a":       "a",
		"/dst-as-file": "file",
	})
	c := New(fs)

	t.Run("missing destination", func(t *testing.T) {
		err := c.CopyTree(Request{Source: "/src", Destination: "/missing", ClearDestination: true})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindDestinationUnwritable))
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("destination is a file", func(t *testing.T) {
		err := c.CopyTree(Request{Source: "/src", Destination: "/dst-as-file", ClearDestination: true})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindDestinationUnwritable))
		assert.Equal(t, "file", readFile(t, fs, "/dst-as-file"))
	})
}

func TestCopyTreeOverwritesExistingEntries(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a.txt":              "new content",
		"/src/dir/b.txt":          "b",
		"/dst/a.txt":              "old content that is longer than the new one",
		"/dst/dir":                "was a file",
		"/src/file-now.txt":       "file",
		"/dst/file-now.txt/inner": "was a directory",
	})

	require.NoError(t, New(fs).CopyTree(Request{Source: "/src", Destination: "/dst"}))

	assert.Equal(t, "new content", readFile(t, fs, "/dst/a.txt"))
	assert.Equal(t, "b", readFile(t, fs, "/dst/dir/b.txt"))
	assert.Equal(t, "file", readFile(t, fs, "/dst/file-now.txt"))
}

func TestCopyTreeCreatesDestination(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{"/src/a": "a"})

	require.NoError(t, New(fs).CopyTree(Request{Source: "/src", Destination: "/new/nested/dst"}))

	assert.Equal(t, []string{"a"}, listTree(t, fs, "/new/nested/dst"))
}

func TestCopyTreeSourceNotFound(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/dst", 0755))

	err := New(fs).CopyTree(Request{Source: "/gone", Destination: "/dst"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSourceNotFound))

	var copyErr *Error
	require.ErrorAs(t, err, &copyErr)
	assert.Equal(t, "/gone", copyErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCopyTreeRejectsDestinationInsideSource(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a":        "a",
		"/src/dist/old": "old",
	})
	c := New(fs)

	t.Run("same directory", func(t *testing.T) {
		err := c.CopyTree(Request{Source: "/src", Destination: "/src/"})
		assert.True(t, IsKind(err, KindDestinationUnwritable))
	})

	t.Run("nested directory", func(t *testing.T) {
		err := c.CopyTree(Request{Source: "/src", Destination: "/src/dist"})
		assert.True(t, IsKind(err, KindDestinationUnwritable))
	})

	t.Run("nested directory that is excluded", func(t *testing.T) {
		err := c.CopyTree(Request{
			Source:      "/src",
			Destination: "/src/dist",
			Exclusions:  exclusion.Resolve("/src", []string{"dist"}),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "old"}, listTree(t, fs, "/src/dist"))
	})

	t.Run("sibling with common prefix", func(t *testing.T) {
		err := c.CopyTree(Request{Source: "/src", Destination: "/src-copy"})
		require.NoError(t, err)
	})

	t.Run("clearing a destination that contains the source", func(t *testing.T) {
		err := c.CopyTree(Request{Source: "/src", Destination: "/", ClearDestination: true})
		assert.True(t, IsKind(err, KindDestinationUnwritable), "got %v", err)
		assert.Equal(t, "a", readFile(t, fs, "/src/a"))
	})

	t.Run("destination containing the source without clearing", func(t *testing.T) {
		writeTree(t, fs, map[string]string{"/parent/proj/b": "b"})
		err := c.CopyTree(Request{Source: "/parent/proj", Destination: "/parent"})
		require.NoError(t, err)
		assert.Equal(t, "b", readFile(t, fs, "/parent/b"))
		assert.Equal(t, "b", readFile(t, fs, "/parent/proj/b"))
	})
}

func TestCopyTreeUncleanProjectDirectory(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a":              "a",
		"/src/node_modules/x": "x",
	})

	project := "//src/./"
	err := New(fs).CopyTree(Request{
		Source:      project,
		Destination: "/dst",
		Exclusions:  exclusion.Resolve(project, []string{"node_modules"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, listTree(t, fs, "/dst"))
}

func TestCopyTreeSymlinkedSource(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(target, "node_modules", "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "src", "main.go"), []byte("package main"), 0644))

	proj := filepath.Join(root, "proj")
	require.NoError(t, os.Symlink(target, proj))
	dst := filepath.Join(root, "dst")

	fs := osfs.New("/")
	c := New(fs)
	exclusions := exclusion.Resolve(proj, []string{"node_modules"})

	n, err := c.Count(proj, exclusions)
	require.NoError(t, err)
	assert.Equal(t, 3, n) // a.txt, src, src/main.go

	require.NoError(t, c.CopyTree(Request{Source: proj, Destination: dst, Exclusions: exclusions}))

	if diff := cmp.Diff([]string{"a.txt", "src", "src/main.go"}, listTree(t, fs, dst)); diff != "" {
		t.Errorf("copied tree mismatch (-want +got):\n%s", diff)
	}
}

func TestCopyTreeSymlinks(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{"/src/real.txt": "real"})
	require.NoError(t, fs.Symlink("real.txt", "/src/link.txt"))

	require.NoError(t, New(fs).CopyTree(Request{Source: "/src", Destination: "/dst"}))

	info, err := fs.Lstat("/dst/link.txt")
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	target, err := fs.Readlink("/dst/link.txt")
	require.NoError(t, err)
	assert.Equal(t, "real.txt", target)
}

func TestCount(t *testing.T) {
	fs := memfs.New()
	writeTree(t, fs, map[string]string{
		"/src/a":     "a",
		"/src/d/x":   "x",
		"/src/d/y/z": "z",
		"/src/e/f":   "f",
	})
	c := New(fs)

	n, err := c.Count("/src", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, n) // a, d, d/x, d/y, d/y/z, e, e/f

	n, err = c.Count("/src", exclusion.Resolve("/src", []string{"d"}))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = c.Count("/missing", nil)
	assert.True(t, IsKind(err, KindSourceNotFound))
}

func TestCopyTreeOnHostFilesystem(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "node_modules", "pkg"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "config.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "run.sh"), []byte("#!/bin/sh"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "main.go"), []byte("package main"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "node_modules", "pkg", "index.js"), []byte(""), 0644))
	require.NoError(t, os.Symlink("config.json", filepath.Join(src, "link.json")))
	require.NoError(t, os.MkdirAll(dst, 0755))

	fs := osfs.New("/")
	err := New(fs).CopyTree(Request{
		Source:      src,
		Destination: dst,
		Exclusions:  exclusion.Resolve(src, []string{"node_modules"}),
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dst, "node_modules"))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(dst, "src", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))

	info, err := os.Stat(filepath.Join(dst, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	target, err := os.Readlink(filepath.Join(dst, "link.json"))
	require.NoError(t, err)
	assert.Equal(t, "config.json", target)
}

func TestCopyTreePermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0755))
	secret := filepath.Join(src, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0000))

	err := New(osfs.New("/")).CopyTree(Request{Source: src, Destination: filepath.Join(root, "dst")})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindPermissionDenied), "got %v", err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "source not found", KindSourceNotFound.String())
	assert.Equal(t, "permission denied", KindPermissionDenied.String())
	assert.Equal(t, "destination unwritable", KindDestinationUnwritable.String())
	assert.Equal(t, "i/o error", KindIO.String())
}
