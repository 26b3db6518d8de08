// Package fsutil holds the file primitives that storage.Local does not
// offer: an O_EXCL create and a writability check.
package fsutil

import (
	"os"
)

// CreateExclusive writes data to path only if path does not exist yet.
// It returns an error satisfying errors.Is(err, fs.ErrExist) when it does.
// A failed write removes the partially written file.
func CreateExclusive(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Writable reports whether dir exists (creating it if needed) and accepts
// new files. It is used by the health check.
func Writable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
