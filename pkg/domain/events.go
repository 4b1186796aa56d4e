package domain

import (
	"context"
	"time"
)

// DispatchEvent describes a single reduction applied by a store.
type DispatchEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	Duration  time.Duration `json:"duration"`
}

// RequestEvent describes the lifecycle of a deferred effect.
type RequestEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      string        `json:"type"`
	Payload   any           `json:"payload,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// Hooks defines callbacks for store observability.
type Hooks struct {
	OnDispatch      func(context.Context, *DispatchEvent)
	OnRequestStart  func(context.Context, *RequestEvent)
	OnRequestSettle func(context.Context, *RequestEvent)
}

// MergeHooks fans every callback out to all given hooks.
func MergeHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnDispatch: func(ctx context.Context, e *DispatchEvent) {
			for _, h := range hooks {
				if h.OnDispatch != nil {
					h.OnDispatch(ctx, e)
				}
			}
		},
		OnRequestStart: func(ctx context.Context, e *RequestEvent) {
			for _, h := range hooks {
				if h.OnRequestStart != nil {
					h.OnRequestStart(ctx, e)
				}
			}
		},
		OnRequestSettle: func(ctx context.Context, e *RequestEvent) {
			for _, h := range hooks {
				if h.OnRequestSettle != nil {
					h.OnRequestSettle(ctx, e)
				}
			}
		},
	}
}
