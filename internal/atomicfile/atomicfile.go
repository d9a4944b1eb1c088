// Package atomicfile replaces files by writing a temporary file in the
// same directory and renaming it over the destination, and defines the
// error type for failed file operations on installed artifacts.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// IoError reports a failed file operation.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// Writer performs atomic replacements. The zero value is ready to use.
type Writer struct {
	// Rename moves the finished temporary file into place. Nil means
	// os.Rename.
	Rename func(oldpath, newpath string) error
}

// Write replaces path with data using a zero-value Writer.
func Write(path string, data []byte, perm os.FileMode) error {
	var w Writer
	return w.Write(path, data, perm)
}

// Write replaces path with data, leaving the file at path with mode perm.
// Until the final rename succeeds the previous content at path, if any,
// is untouched. The temporary file is removed on every failure.
func (w *Writer) Write(path string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	// Set the final mode before any content lands in the file.
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode on temporary file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	rename := w.Rename
	if rename == nil {
		rename = os.Rename
	}
	if err := rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temporary file into place: %w", err)
	}
	success = true

	// Make the rename durable. Failure here does not undo the write.
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}
