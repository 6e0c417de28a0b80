package pipeline

import (
	"errors"
	"io/fs"
	"os"

	"github.com/claimline/claimline/internal/model"
)

// ReadSource reads a claims document from disk, mapping OS failures onto the
// error taxonomy with concrete recovery hints.
func ReadSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		hint := "check that the file exists and is readable"
		switch {
		case errors.Is(err, fs.ErrNotExist):
			hint = "check the path for typos; the file does not exist"
		case errors.Is(err, fs.ErrPermission):
			hint = "check file permissions; the current user cannot read it"
		}
		return nil, &model.SourceError{
			Kind: model.KindFileAccess,
			Path: path,
			Hint: hint,
			Err:  err,
		}
	}
	return data, nil
}
