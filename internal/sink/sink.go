package sink

import (
	"context"

	"github.com/zionnet/newsflow/internal/domain"
)

// Sink delivers an assembled news bundle to one downstream channel.
// Implementations are registered at startup and fanned out to independently;
// a failing sink is logged, never propagated to the pipeline caller.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, job domain.NotificationJob) error
}
