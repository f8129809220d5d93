package registry

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/everhopes/scripture/core/errors"
)

// AssetSource resolves a packaged asset by name. It abstracts the platform
// asset bundle: the shipped binary reads from the install-time bundle
// directory, tests supply an in-memory fs.FS.
type AssetSource interface {
	// Resolve opens the named asset for reading. The caller closes it.
	Resolve(name string) (io.ReadCloser, error)
}

// DirSource reads assets from a directory on disk.
type DirSource struct {
	Dir string
}

// NewDirSource creates an AssetSource over a bundle directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) Resolve(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, errors.Wrapf(err, "resolve asset %s", name)
	}
	return f, nil
}

// FSSource reads assets from any fs.FS.
type FSSource struct {
	FS fs.FS
}

// NewFSSource creates an AssetSource over an fs.FS.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{FS: fsys}
}

func (s *FSSource) Resolve(name string) (io.ReadCloser, error) {
	f, err := s.FS.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve asset %s", name)
	}
	return f, nil
}
