package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewValidationError(ErrCodeInvalidFormat, "Only PDF files are supported", nil),
			want: "INVALID_FORMAT: Only PDF files are supported",
		},
		{
			name: "with cause",
			err:  NewFetchError(ErrCodeSourceUnavailable, "feed unreachable", fmt.Errorf("dial tcp: timeout")),
			want: "SOURCE_UNAVAILABLE: feed unreachable (caused by: dial tcp: timeout)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsTypeThroughWrapping(t *testing.T) {
	cause := stderrors.New("boom")
	err := fmt.Errorf("outer: %w", NewProviderError(ErrCodeProviderFailed, "call failed", cause))

	assert.True(t, IsType(err, ErrorTypeProvider))
	assert.False(t, IsType(err, ErrorTypeFetch))
	assert.ErrorIs(t, err, cause)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeProviderFailed, appErr.Code)

	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeProvider))
}

func TestLogErrorExpandsAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelDebug)

	err := NewFetchError(ErrCodeSourceUnavailable, "feed unreachable", nil).WithContext("source", "Remotive")
	logger.LogError(err, "source failed", "attempt", 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "source failed", record["msg"])
	assert.Equal(t, "fetch", record["error_type"])
	assert.Equal(t, ErrCodeSourceUnavailable, record["error_code"])
	assert.Equal(t, "Remotive", record["source"])
	assert.EqualValues(t, 1, record["attempt"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("verbose")
	require.Error(t, err)

	logger, err := New("warn")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
