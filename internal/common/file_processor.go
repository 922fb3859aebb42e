package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"jobscout/internal/errors"
	"jobscout/internal/utils"
)

// StdinName is the argument that makes ReadText read standard input.
const StdinName = "-"

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
	stdin  io.Reader
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	if logger == nil {
		logger = errors.Nop()
	}
	return &FileProcessor{logger: logger, stdin: os.Stdin}
}

// WithStdin replaces the reader used for "-".
func (fp *FileProcessor) WithStdin(r io.Reader) *FileProcessor {
	fp.stdin = r
	return fp
}

// ReadText reads a text file, or standard input when filename is "-".
// maxSize bounds the bytes read; zero means unlimited.
func (fp *FileProcessor) ReadText(filename string, maxSize int64) (string, error) {
	if filename == StdinName {
		return fp.readAll(fp.stdin, "stdin", maxSize)
	}

	if err := utils.ValidateInputFile(filename, maxSize); err != nil {
		return "", err
	}

	file, err := os.Open(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	return fp.readAll(file, filename, maxSize)
}

func (fp *FileProcessor) readAll(r io.Reader, name string, maxSize int64) (string, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read content: %s", name), err)
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("Input exceeds %s", utils.FormatFileSize(maxSize)), nil).
			WithContext("input", name)
	}
	return string(content), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
