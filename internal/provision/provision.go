// Package provision materializes bundled translation assets into writable
// local storage. Each translation is copied out of the read-only bundle
// exactly once; the existence check runs on every launch and must stay
// cheap. Concurrent callers requesting the same translation share one
// in-flight copy instead of racing.
package provision

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"

	"github.com/everhopes/scripture/core/errors"
	"github.com/everhopes/scripture/core/registry"
	"github.com/everhopes/scripture/internal/fileutil"
	"github.com/everhopes/scripture/internal/logging"
)

// Provisioner copies packaged translation databases into the data directory.
type Provisioner struct {
	dataDir string
	source  registry.AssetSource
	group   singleflight.Group
}

// New creates a Provisioner writing under dataDir and reading assets from
// source.
func New(dataDir string, source registry.AssetSource) *Provisioner {
	return &Provisioner{dataDir: dataDir, source: source}
}

// TargetPath returns the path the descriptor's database is provisioned to.
func (p *Provisioner) TargetPath(desc registry.Descriptor) string {
	return filepath.Join(p.dataDir, desc.Filename)
}

// Provisioned reports whether the descriptor's database already exists.
func (p *Provisioner) Provisioned(desc registry.Descriptor) bool {
	_, err := os.Stat(p.TargetPath(desc))
	return err == nil
}

// EnsureReady guarantees the descriptor's database file exists in the data
// directory and returns its path. The copy is atomic: on failure nothing is
// left at the target path, so a retry is cheap and safe. Concurrent calls
// for the same translation await a single copy.
func (p *Provisioner) EnsureReady(ctx context.Context, desc registry.Descriptor) (string, error) {
	target := p.TargetPath(desc)

	// Fast path: runs on every app launch.
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	if err := ctx.Err(); err != nil {
		return "", errors.NewProvision(desc.Key, "cancelled", err)
	}

	_, err, _ := p.group.Do(desc.Key, func() (interface{}, error) {
		// A concurrent caller may have finished while we queued.
		if _, err := os.Stat(target); err == nil {
			return nil, nil
		}
		return nil, p.materialize(desc, target)
	})
	if err != nil {
		return "", err
	}
	return target, nil
}

// materialize resolves the packaged asset and streams it to the target path
// byte-for-byte, decoding xz when the asset is compressed and verifying the
// BLAKE3 digest before the file becomes visible at its final name.
func (p *Provisioner) materialize(desc registry.Descriptor, target string) error {
	rc, err := p.source.Resolve(desc.AssetName)
	if err != nil {
		return errors.NewProvision(desc.Key, "resolve", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if desc.CompressedAsset() {
		xr, err := xz.NewReader(rc)
		if err != nil {
			return errors.NewProvision(desc.Key, "decompress", err)
		}
		r = xr
	}

	if desc.Checksum != "" {
		r = &verifyingReader{r: r, hasher: blake3.New(), want: desc.Checksum}
	}

	if err := fileutil.WriteReader(target, r, 0644); err != nil {
		return errors.NewProvision(desc.Key, "copy", err)
	}

	logging.ProvisionEvent(desc.Key, "materialized", "path", target)
	return nil
}

// verifyingReader hashes everything read through it and refuses to report
// EOF when the digest does not match, which makes the surrounding atomic
// write fail before the rename and keeps a corrupt copy off the final path.
type verifyingReader struct {
	r      io.Reader
	hasher *blake3.Hasher
	want   string
}

func (v *verifyingReader) Read(p []byte) (int, error) {
	n, err := v.r.Read(p)
	if n > 0 {
		v.hasher.Write(p[:n])
	}
	if err == io.EOF {
		got := hex.EncodeToString(v.hasher.Sum(nil))
		if got != v.want {
			return n, fmt.Errorf("checksum mismatch: got %s, want %s", got, v.want)
		}
	}
	return n, err
}
