// Package copier performs the whole-tree copy behind every build run.
//
// A run walks the source tree once, in lexical order, and mirrors every
// entry that is not excluded into the destination. Excluded directories
// are pruned: their children are never visited. Existing destination
// entries are overwritten. A failure aborts the walk and leaves whatever
// was already written in place.
package copier

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/harrison/builder/internal/exclusion"
	"github.com/pkg/errors"
)

// Request describes one copy run.
type Request struct {
	Source           string
	Destination      string
	Exclusions       exclusion.Set
	ClearDestination bool
}

// Copier copies directory trees on a billy filesystem. Paths are absolute;
// use osfs.New("/") for the host filesystem.
type Copier struct {
	FS billy.Filesystem

	// Progress, if set, is called with the source path of every entry
	// after it has been copied.
	Progress func(path string)
}

// New creates a Copier over fs
func New(fs billy.Filesystem) *Copier {
	return &Copier{FS: fs}
}

// CopyTree copies req.Source into req.Destination, skipping excluded paths.
// When req.ClearDestination is set the destination's children are removed
// first; the destination must then already exist as a directory.
func (c *Copier) CopyTree(req Request) error {
	src := filepath.Clean(req.Source)
	dst := filepath.Clean(req.Destination)

	srcInfo, err := c.FS.Stat(src)
	if err != nil {
		return classifyRead(src, err)
	}
	if !srcInfo.IsDir() {
		return &Error{Kind: KindIO, Path: src, Err: errors.New("source is not a directory")}
	}

	if insideSource(src, dst, req.Exclusions) {
		return &Error{Kind: KindDestinationUnwritable, Path: dst, Err: errors.Errorf("cannot copy %s into itself", src)}
	}
	if req.ClearDestination && within(dst, src) {
		return &Error{Kind: KindDestinationUnwritable, Path: dst, Err: errors.Errorf("refusing to clear %s, it contains the source %s", dst, src)}
	}

	if req.ClearDestination {
		if err := c.clear(dst); err != nil {
			return err
		}
	}

	if err := c.ensureDir(dst, srcInfo.Mode()); err != nil {
		return err
	}

	return c.walk(src, req.Exclusions, func(path string, info fs.FileInfo) error {
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return &Error{Kind: KindIO, Path: path, Err: err}
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			err = c.ensureDir(target, info.Mode())
		case info.Mode()&os.ModeSymlink != 0:
			err = c.copySymlink(path, target)
		case info.Mode().IsRegular():
			err = c.copyFile(path, target, info.Mode())
		default:
			// Devices, sockets and pipes have no portable copy.
			return nil
		}
		if err != nil {
			return err
		}

		if c.Progress != nil {
			c.Progress(path)
		}
		return nil
	})
}

// Count returns how many entries CopyTree would copy from source with the
// given exclusions, using the same pruning.
func (c *Copier) Count(source string, exclusions exclusion.Set) (int, error) {
	src := filepath.Clean(source)
	if _, err := c.FS.Stat(src); err != nil {
		return 0, classifyRead(src, err)
	}

	count := 0
	err := c.walk(src, exclusions, func(path string, info fs.FileInfo) error {
		if info.IsDir() || info.Mode()&os.ModeSymlink != 0 || info.Mode().IsRegular() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// walk visits every non-excluded entry below root in lexical order.
// Excluded entries are checked before read errors so an unreadable
// excluded directory does not fail the run.
func (c *Copier) walk(root string, exclusions exclusion.Set, visit func(path string, info fs.FileInfo) error) error {
	walkFn := func(path string, info fs.FileInfo, err error) error {
		if path != root && info != nil && exclusions.Excludes(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err != nil {
			return classifyRead(path, err)
		}
		if path == root {
			return nil
		}
		return visit(path, info)
	}

	if !c.linkedDir(root) {
		return util.Walk(c.FS, root, walkFn)
	}

	// util.Walk does not follow a symlinked root. Walk each child
	// instead, keeping root as the prefix so exclusions still match.
	entries, err := c.FS.ReadDir(root)
	if err != nil {
		return classifyRead(root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		err := util.Walk(c.FS, c.FS.Join(root, entry.Name()), walkFn)
		if err != nil && !errors.Is(err, filepath.SkipDir) {
			return err
		}
	}
	return nil
}

// linkedDir reports whether path is a symlink pointing at a directory
func (c *Copier) linkedDir(path string) bool {
	info, err := c.FS.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	target, err := c.FS.Stat(path)
	return err == nil && target.IsDir()
}

// clear removes every child of dir, keeping dir itself.
func (c *Copier) clear(dir string) error {
	info, err := c.FS.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Error{Kind: KindDestinationUnwritable, Path: dir, Err: errors.New("destination does not exist, refusing to clear")}
		}
		return classifyWrite(dir, err)
	}
	if !info.IsDir() {
		return &Error{Kind: KindDestinationUnwritable, Path: dir, Err: errors.New("destination is not a directory, refusing to clear")}
	}

	entries, err := c.FS.ReadDir(dir)
	if err != nil {
		return classifyWrite(dir, errors.Wrap(err, "listing destination"))
	}
	for _, entry := range entries {
		path := c.FS.Join(dir, entry.Name())
		if err := util.RemoveAll(c.FS, path); err != nil {
			return classifyWrite(path, errors.Wrap(err, "clearing destination"))
		}
	}
	return nil
}

// ensureDir makes sure path is a directory, replacing any non-directory
// entry already there.
func (c *Copier) ensureDir(path string, mode os.FileMode) error {
	info, err := c.FS.Lstat(path)
	if err == nil && info.IsDir() {
		return nil
	}
	if err == nil {
		if err := c.FS.Remove(path); err != nil {
			return classifyWrite(path, errors.Wrap(err, "replacing file with directory"))
		}
	}
	// Keep the owner able to write into the copy
	if err := c.FS.MkdirAll(path, mode.Perm()|0o700); err != nil {
		return classifyWrite(path, errors.Wrap(err, "creating directory"))
	}
	return nil
}

// copyFile copies a regular file, truncating any existing target.
func (c *Copier) copyFile(src, dst string, mode os.FileMode) error {
	if err := c.removeIfNotRegular(dst); err != nil {
		return err
	}

	in, err := c.FS.Open(src)
	if err != nil {
		return classifyRead(src, errors.Wrap(err, "opening source file"))
	}
	defer in.Close()

	out, err := c.FS.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return classifyWrite(dst, errors.Wrap(err, "creating destination file"))
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &Error{Kind: KindIO, Path: src, Err: errors.Wrapf(err, "copying to %s", dst)}
	}
	if err := out.Close(); err != nil {
		return classifyWrite(dst, errors.Wrap(err, "closing destination file"))
	}
	return nil
}

// copySymlink recreates the link at dst with the same target text.
func (c *Copier) copySymlink(src, dst string) error {
	target, err := c.FS.Readlink(src)
	if err != nil {
		return classifyRead(src, errors.Wrap(err, "reading symlink"))
	}
	if _, err := c.FS.Lstat(dst); err == nil {
		if err := util.RemoveAll(c.FS, dst); err != nil {
			return classifyWrite(dst, errors.Wrap(err, "replacing existing entry"))
		}
	}
	if err := c.FS.Symlink(target, dst); err != nil {
		return classifyWrite(dst, errors.Wrap(err, "creating symlink"))
	}
	return nil
}

func (c *Copier) removeIfNotRegular(path string) error {
	info, err := c.FS.Lstat(path)
	if err != nil || info.Mode().IsRegular() {
		return nil
	}
	if err := util.RemoveAll(c.FS, path); err != nil {
		return classifyWrite(path, errors.Wrap(err, "replacing existing entry"))
	}
	return nil
}

// insideSource reports whether dst is src or lies under it without being
// covered by an exclusion, which would make the walk copy into itself.
func insideSource(src, dst string, exclusions exclusion.Set) bool {
	if !within(src, dst) {
		return false
	}
	rel, err := filepath.Rel(src, dst)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}

	// A destination inside an excluded child is never walked
	path := src
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		path = filepath.Join(path, part)
		if exclusions.Excludes(path) {
			return false
		}
	}
	return true
}

// within reports whether path is dir or lies under it
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
