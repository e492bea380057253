package service

import (
	"context"
	"time"

	"pharmacyos/internal/worker"

	"github.com/google/uuid"
)

// Cache is the read-through cache used for barcode lookups. Implementations
// treat every failure as a miss; *infra.RedisCache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// ReceiptEnqueuer schedules receipt generation after a sale commits.
// *worker.Dispatcher satisfies it.
type ReceiptEnqueuer interface {
	EnqueueReceipt(ctx context.Context, payload worker.ReceiptJobPayload) error
}

const barcodeCacheTTL = 5 * time.Minute

func barcodeCacheKey(orgID uuid.UUID, barcode string) string {
	return "barcode:" + orgID.String() + ":" + barcode
}
