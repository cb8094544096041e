package sso

import (
	"context"

	"github.com/oshokin/sso-grabber/internal/logger"
)

// Sink receives diagnostic events emitted during the login flow.
// The flow is single-threaded, so implementations are never called
// concurrently for one login attempt.
type Sink interface {
	Event(ctx context.Context, name string, kv ...any)
}

// Diagnostic event names emitted by the flow.
const (
	EventFlowStarted      = "flow.started"
	EventPageReady        = "page.ready"
	EventStepCompleted    = "step.completed"
	EventFlowDelay        = "flow.delay"
	EventWindowSwitched   = "window.switched"
	EventWindowRestored   = "window.restored"
	EventCookiesHarvested = "cookies.harvested"
	EventBrowserClosed    = "browser.closed"
	EventBrowserCloseFail = "browser.close_failed"
)

// NopSink discards all events. It is the default when no sink is injected.
type NopSink struct{}

// Event implements Sink.
func (NopSink) Event(context.Context, string, ...any) {}

// LogSink forwards events to the process logger with key-value fields.
type LogSink struct{}

// Event implements Sink.
func (LogSink) Event(ctx context.Context, name string, kv ...any) {
	logger.InfoKV(ctx, name, kv...)
}
