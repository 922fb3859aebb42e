package common

import (
	"fmt"
	"slices"
	"strings"

	"jobscout/internal/errors"
)

// ValidateOutputFormat checks format against the configured supported formats.
// An empty list allows any format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %s",
			format, strings.Join(supportedFormats, ", ")), nil)
}
