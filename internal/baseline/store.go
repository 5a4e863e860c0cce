// Package baseline persists the last machine-authored text of each Synthetic
// artifact under a reserved cache subtree, keyed 1:1 by relative path.
//
// Records are only ever overwritten, never pruned.
package baseline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"anubis/internal/artifact"
	"anubis/internal/fsutil"
	"anubis/internal/logging"
)

// DefaultDir is the cache subtree used when the config leaves it empty.
const DefaultDir = ".anubis/cache"

// Store reads and writes baseline records for one project.
type Store struct {
	root string // absolute cache directory
}

// NewStore returns a store rooted at projectRoot/cacheDir.
func NewStore(projectRoot, cacheDir string) *Store {
	if cacheDir == "" {
		cacheDir = DefaultDir
	}
	return &Store{root: filepath.Join(projectRoot, filepath.FromSlash(cacheDir))}
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.root }

// Path resolves the record location for relPath.
func (s *Store) Path(relPath string) (string, error) {
	clean, err := artifact.CleanPath(relPath)
	if err != nil {
		return "", err
	}
	full, err := fsutil.Join(s.root, clean)
	if err != nil {
		return "", &artifact.IOError{Op: "resolve", Path: relPath, Err: artifact.ErrInvalidPath}
	}
	return full, nil
}

// Read returns the record for relPath. ok is false when none was written yet.
func (s *Store) Read(relPath string) (string, bool, error) {
	p, err := s.Path(relPath)
	if err != nil {
		return "", false, err
	}
	content, ok, err := fsutil.ReadFileIfExists(p)
	if err != nil {
		return "", false, artifact.BaselineError("read baseline", p, err)
	}
	logging.BaselineDebug("read %s (present=%v, %d bytes)", relPath, ok, len(content))
	return content, ok, nil
}

// Write stores content as the record for relPath, replacing any previous one.
func (s *Store) Write(relPath, content string) error {
	p, err := s.Path(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return artifact.BaselineError("create baseline dir", filepath.Dir(p), err)
	}
	if err := fsutil.WriteFileAtomic(p, []byte(content)); err != nil {
		return artifact.BaselineError("write baseline", p, err)
	}
	logging.Baseline("wrote %s (%d bytes)", relPath, len(content))
	return nil
}

// List returns the relative paths of every record, sorted.
func (s *Store) List() ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, artifact.BaselineError("list baselines", s.root, err)
	}
	sort.Strings(out)
	return out, nil
}
