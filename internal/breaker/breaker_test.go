package breaker

import (
	stderrors "errors"
	"testing"
	"time"

	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledBreakerPassesThrough(t *testing.T) {
	b := New[string]("disabled", Settings{Enabled: false}, errors.Nop())
	require.Nil(t, b)

	got, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.True(t, b.IsHealthy())
	assert.Equal(t, false, b.Stats()["enabled"])
}

func TestBreakerTripsAfterFailures(t *testing.T) {
	b := New[int]("provider-openrouter", Settings{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}, errors.Nop())
	require.NotNil(t, b)

	boom := stderrors.New("upstream down")
	calls := 0
	fail := func() (int, error) {
		calls++
		return 0, boom
	}

	for range 2 {
		_, err := b.Execute(fail)
		assert.ErrorIs(t, err, boom)
	}

	assert.False(t, b.IsHealthy())
	assert.Equal(t, "open", b.Stats()["state"])

	_, err := b.Execute(fail)
	assert.True(t, IsOpenError(err))
	assert.Equal(t, 2, calls, "open breaker must not invoke the call")
}
