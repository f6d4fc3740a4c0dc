// Package notify decides where digest messages are posted and hands them to the chat client.
package notify

import (
	"context"
	"fmt"

	"github.com/danielolaszy/duebot/internal/logging"
)

// TestChannel receives every message while debug mode is on.
const TestChannel = "slack-test"

// Poster posts a message to a chat channel.
type Poster interface {
	PostMessage(ctx context.Context, channel, title, body string) (string, error)
}

// Result describes a completed dispatch.
type Result struct {
	// Channel is the channel actually posted to, after the debug override
	Channel string

	// Timestamp is the chat platform's message id
	Timestamp string
}

// DispatchFailedError wraps a transport failure while posting to Channel.
type DispatchFailedError struct {
	Channel string
	Err     error
}

func (e *DispatchFailedError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %v", e.Channel, e.Err)
}

func (e *DispatchFailedError) Unwrap() error {
	return e.Err
}

// Dispatcher posts rendered messages, redirecting everything to TestChannel in debug mode.
type Dispatcher struct {
	poster Poster
	debug  bool
}

// NewDispatcher creates a Dispatcher backed by poster.
func NewDispatcher(poster Poster, debug bool) *Dispatcher {
	return &Dispatcher{poster: poster, debug: debug}
}

// Debug reports whether the debug override is active.
func (d *Dispatcher) Debug() bool {
	return d.debug
}

// TargetChannel returns the channel a message for channel is posted to.
func TargetChannel(channel string, debug bool) string {
	if debug {
		return TestChannel
	}
	return channel
}

// Dispatch posts title and body to channel. It does not retry; a transport
// failure is returned as *DispatchFailedError.
func (d *Dispatcher) Dispatch(ctx context.Context, title, body, channel string) (Result, error) {
	target := TargetChannel(channel, d.debug)
	if target != channel {
		logging.Debug("debug mode redirected message",
			"requested_channel", channel,
			"channel", target)
	}

	ts, err := d.poster.PostMessage(ctx, target, title, body)
	if err != nil {
		return Result{Channel: target}, &DispatchFailedError{Channel: target, Err: err}
	}

	logging.Debug("message posted",
		"channel", target,
		"title", title,
		"timestamp", ts)

	return Result{Channel: target, Timestamp: ts}, nil
}
