// Package fileutil provides file copy helpers with rename-atomicity: a
// failed copy never leaves a partial file at the destination path.
package fileutil

import (
	"io"
	"os"
	"path/filepath"
)

// WriteReader streams r to path atomically. The bytes are written to a
// temporary file in the destination directory, synced, then renamed into
// place. On failure the temporary file is removed and the destination is
// left untouched.
func WriteReader(path string, r io.Reader, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// CopyFile copies src to dst atomically, preserving the source file mode.
// Destination directories are created as needed.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteReader(dst, f, info.Mode())
}

