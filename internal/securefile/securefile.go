// Package securefile writes key material to disk with owner-only modes.
package securefile

import (
	"os"
	"path/filepath"
	"runtime"
)

// MkdirAllOwnerOnly creates dir and any parents with mode 0700. An existing
// directory is re-chmodded because MkdirAll leaves existing modes alone.
// Windows ignores unix permission bits, so only existence is ensured there.
func MkdirAllOwnerOnly(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(dir, 0o700)
}

// WriteFileAtomic replaces filename with data via a temp file and rename.
// The mode is applied explicitly because os.WriteFile only sets it when the
// file is first created, not on overwrite.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	renamed := false
	defer func() {
		_ = f.Close()
		if !renamed {
			_ = os.Remove(tmp)
		}
	}()

	if runtime.GOOS != "windows" {
		if err := f.Chmod(perm); err != nil {
			return err
		}
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if runtime.GOOS == "windows" {
		// Rename does not replace an existing destination on windows.
		_ = os.Remove(filename)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return err
	}
	renamed = true
	if runtime.GOOS != "windows" {
		return os.Chmod(filename, perm)
	}
	return nil
}
