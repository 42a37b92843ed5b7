package store

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// writeFile writes b via a temp file in the same directory, then renames it
// over path.
func writeFile(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to chmod %s", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp)
	}

	return errors.Wrapf(os.Rename(tmp, path), "failed to replace %s", path)
}
