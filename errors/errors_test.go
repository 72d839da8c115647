package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	base := stderrors.New("boom")
	err := WrapTransient(base, "Client", "Enrich", "http request")

	var ce *ClassifiedError
	require.True(t, stderrors.As(err, &ce))
	assert.Equal(t, ErrorTransient, ce.Class)
	assert.Equal(t, "Client", ce.Component)
	assert.Equal(t, "Enrich", ce.Operation)
	assert.True(t, stderrors.Is(err, base), "wrapped error should unwrap to base")
	assert.Contains(t, err.Error(), "Client.Enrich: http request failed")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "c", "m", "a"))
	assert.NoError(t, WrapTransient(nil, "c", "m", "a"))
	assert.NoError(t, WrapInvalid(nil, "c", "m", "a"))
	assert.NoError(t, WrapFatal(nil, "c", "m", "a"))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"call timeout sentinel", ErrCallTimeout, true},
		{"transport sentinel", ErrTransport, true},
		{"rate limited sentinel", ErrRateLimited, true},
		{"storage unavailable", ErrStorageUnavailable, true},
		{"context deadline", context.DeadlineExceeded, true},
		{"wrapped rate limit", fmt.Errorf("call: %w", ErrRateLimited), true},
		{"timeout pattern", stderrors.New("dial tcp: i/o timeout"), true},
		{"invalid response", WrapInvalid(ErrInvalidResponse, "Parser", "Parse", "score"), false},
		{"plain invalid data", ErrInvalidData, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsInvalid(t *testing.T) {
	assert.True(t, IsInvalid(ErrInvalidCommunity))
	assert.True(t, IsInvalid(ErrInvalidResponse))
	assert.True(t, IsInvalid(WrapInvalid(ErrParsingFailed, "Parser", "Parse", "json")))
	assert.False(t, IsInvalid(ErrRateLimited))
	assert.False(t, IsInvalid(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrInvalidConfig))
	assert.True(t, IsFatal(ErrMissingConfig))
	assert.True(t, IsFatal(WrapFatal(ErrInvalidConfig, "Scheduler", "New", "max_concurrent")))
	assert.False(t, IsFatal(ErrRateLimited))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorFatal, Classify(ErrMissingConfig))
	assert.Equal(t, ErrorInvalid, Classify(ErrInvalidResponse))
	assert.Equal(t, ErrorTransient, Classify(ErrTransport))
	assert.Equal(t, ErrorTransient, Classify(stderrors.New("unknown condition")))
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}
