package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
)

// LogHooks returns hooks that write one record per lifecycle event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnConnect: func(ctx context.Context, e *domain.SessionEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "connect_failed", "endpoint", e.Endpoint, "error", e.Err)
				return
			}
			logger.InfoContext(ctx, "connect", "session", e.SessionID, "endpoint", e.Endpoint)
		},
		OnClose: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "close", "session", e.SessionID, "error", e.Err)
		},
		OnResolveEnd: func(ctx context.Context, e *domain.ResolveEvent) {
			level := slog.LevelDebug
			if e.Err != nil {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "resolve",
				"session", e.SessionID,
				"chain", e.Chain.String(),
				"duration", e.Duration,
				"cached", e.Cached,
				"outcome", Outcome(e),
			)
		},
	}
}
