package store

import (
	"context"

	"github.com/kotoba-learn/kotoba-api/internal/domain"
)

// AudioQueueStore accepts audio work items. Items are independent of the
// textbook lifecycle; the store only ever creates them.
type AudioQueueStore interface {
	Enqueue(ctx context.Context, item *domain.AudioQueueItem) error
}
