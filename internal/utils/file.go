package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jobscout/internal/errors"
)

// ValidateInputFile checks that filename names a readable regular file no larger
// than maxSize bytes (0 disables the size check).
func ValidateInputFile(filename string, maxSize int64) error {
	if filename == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "filename cannot be empty", nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewIOError(errors.ErrCodeFileNotFound, "file does not exist", err).
				WithContext("filename", filename)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot access file", err).
			WithContext("filename", filename)
	}

	if info.IsDir() {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "path is a directory, not a file", nil).
			WithContext("filename", filename)
	}

	if maxSize > 0 && info.Size() > maxSize {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file is %s, limit is %s", FormatFileSize(info.Size()), FormatFileSize(maxSize)), nil).
			WithContext("filename", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot read file", err).
			WithContext("filename", filename)
	}
	if err := file.Close(); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to close file", err).
			WithContext("filename", filename)
	}

	return nil
}

// ValidateOutputFile checks that the output file's directory exists, creating it
// when needed. An empty filename means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return errors.NewIOError(errors.ErrCodeFileNotReadable,
					fmt.Sprintf("cannot create directory %s", dir), err)
			}
		}
	}

	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
