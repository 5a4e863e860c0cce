// Package fsutil holds the filesystem primitives shared by the writer and the
// baseline store: atomic replacement and root containment checks.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultPerm is the mode given to files that do not exist yet.
const DefaultPerm os.FileMode = 0644

// WriteFileAtomic replaces path with data through a temp file in the same
// directory. An existing file keeps its permission bits.
func WriteFileAtomic(path string, data []byte) error {
	perm := DefaultPerm
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("target is a directory")
		}
		perm = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return writeAtomic(path, data, perm)
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, tmpPattern(filepath.Base(path)))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanupTmp := true

	defer func() {
		_ = tmp.Close()
		if cleanupTmp {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	cleanupTmp = false

	// Windows can't fsync a directory handle.
	if runtime.GOOS != "windows" {
		if err := fsyncDir(dir); err != nil {
			return fmt.Errorf("fsync directory: %w", err)
		}
	}
	return nil
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

func tmpPattern(base string) string {
	return fmt.Sprintf(".%s.*", base)
}

// ReadFileIfExists returns the file content, or ok=false when it is missing.
func ReadFileIfExists(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Exists reports whether anything is present at path. Stat errors other than
// not-exist are returned so callers don't mistake EACCES for absence.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Within reports whether path is root or lies beneath it.
func Within(path, root string) bool {
	p := filepath.Clean(path)
	r := filepath.Clean(root)
	if p == r {
		return true
	}
	return strings.HasPrefix(p, r+string(os.PathSeparator))
}

// Join resolves a slash-separated relative path under root and rejects any
// result that escapes it.
func Join(root, rel string) (string, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	if !Within(full, root) {
		return "", fmt.Errorf("%q escapes %q", rel, root)
	}
	return full, nil
}
