package cmdutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// UsageError signals a caller mistake rather than a runtime failure. CLIs
// exit with status 2 for these.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// IsUsage reports whether err is (or wraps) a UsageError.
func IsUsage(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// RefuseOverwrite returns a UsageError when path exists and overwrite is
// false. Stat failures other than not-exist propagate unchanged.
func RefuseOverwrite(path string, overwrite bool) error {
	if path == "" || overwrite {
		return nil
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return &UsageError{Msg: fmt.Sprintf("%s already exists (pass -overwrite to replace it)", path)}
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return err
	}
}
