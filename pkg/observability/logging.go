package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/reschema/pkg/domain"
)

// Logging returns hooks writing every lifecycle event to logger at debug level.
func Logging(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			logger.DebugContext(ctx, "Dispatch", "type", e.Action.Type, "is_error", e.Action.Error, "duration", e.Duration)
		},
		OnRequestStart: func(ctx context.Context, e *domain.RequestEvent) {
			logger.DebugContext(ctx, "Request Start", "type", e.Type)
		},
		OnRequestSettle: func(ctx context.Context, e *domain.RequestEvent) {
			if e.Err != nil {
				logger.DebugContext(ctx, "Request Settle (Error)", "type", e.Type, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "Request Settle (Success)", "type", e.Type, "duration", e.Duration)
		},
	}
}
