package common

import (
	"testing"

	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "yaml", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: supported},
		{name: "yaml", format: "yaml", supportedFormats: supported},
		{name: "markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "xml is rejected",
			format:           "xml",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'xml'. Supported formats: json, yaml, text, markdown",
		},
		{
			name:             "case sensitive",
			format:           "JSON",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'JSON'. Supported formats: json, yaml, text, markdown",
		},
		{
			name:             "empty format",
			format:           "",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format ''. Supported formats: json",
		},
		{name: "no restrictions", format: "xml", supportedFormats: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := errors.As(err)
			if assert.True(t, ok) {
				assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
				assert.Equal(t, tt.expectedError, appErr.Message)
			}
		})
	}
}
