package utils

import (
	"os"
	"path/filepath"
	"testing"

	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(small, []byte("0123456789"), 0o600))

	tests := []struct {
		name     string
		filename string
		maxSize  int64
		wantCode string
	}{
		{name: "readable file", filename: small, maxSize: 100},
		{name: "size check disabled", filename: small},
		{name: "empty name", filename: "", wantCode: errors.ErrCodeInvalidRequest},
		{name: "missing", filename: filepath.Join(dir, "nope.pdf"), wantCode: errors.ErrCodeFileNotFound},
		{name: "directory", filename: dir, wantCode: errors.ErrCodeFileNotReadable},
		{name: "too large", filename: small, maxSize: 5, wantCode: errors.ErrCodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.filename, tt.maxSize)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "nested", "report.json")
	require.NoError(t, ValidateOutputFile(target))

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, ValidateOutputFile(""))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "10.0 MB", FormatFileSize(10<<20))
}

func TestGetFileExtension(t *testing.T) {
	assert.Equal(t, ".pdf", GetFileExtension("CV.PDF"))
	assert.Equal(t, "", GetFileExtension("README"))
}
