package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPoster struct {
	mock.Mock
}

func (m *mockPoster) PostMessage(ctx context.Context, channel, title, body string) (string, error) {
	args := m.Called(ctx, channel, title, body)
	return args.String(0), args.Error(1)
}

func TestDispatchPostsToRequestedChannel(t *testing.T) {
	poster := new(mockPoster)
	poster.On("PostMessage", mock.Anything, "#design", "title", "body").Return("1700000000.000100", nil)

	result, err := NewDispatcher(poster, false).Dispatch(context.Background(), "title", "body", "#design")

	require.NoError(t, err)
	assert.Equal(t, "#design", result.Channel)
	assert.Equal(t, "1700000000.000100", result.Timestamp)
	poster.AssertExpectations(t)
}

func TestDispatchDebugOverride(t *testing.T) {
	channels := []string{"#real-channel", "", TestChannel, "#" + TestChannel, "C0123456"}

	for _, channel := range channels {
		t.Run(channel, func(t *testing.T) {
			poster := new(mockPoster)
			poster.On("PostMessage", mock.Anything, TestChannel, "title", "body").Return("ts", nil)

			result, err := NewDispatcher(poster, true).Dispatch(context.Background(), "title", "body", channel)

			require.NoError(t, err)
			assert.Equal(t, TestChannel, result.Channel)
			poster.AssertExpectations(t)
			poster.AssertNumberOfCalls(t, "PostMessage", 1)
		})
	}
}

func TestDispatchFailure(t *testing.T) {
	transportErr := errors.New("connection reset")
	poster := new(mockPoster)
	poster.On("PostMessage", mock.Anything, "#infra", "title", "body").Return("", transportErr)

	_, err := NewDispatcher(poster, false).Dispatch(context.Background(), "title", "body", "#infra")

	require.Error(t, err)
	var failed *DispatchFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "#infra", failed.Channel)
	assert.ErrorIs(t, err, transportErr)
	assert.Contains(t, err.Error(), "dispatch to #infra failed")
}

func TestTargetChannel(t *testing.T) {
	assert.Equal(t, "#design", TargetChannel("#design", false))
	assert.Equal(t, TestChannel, TargetChannel("#design", true))
}
