//go:build integration

package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

const (
	orgA = "6f1c2b1e-7d7a-4c53-9a57-0c0d6b2f7a01"
	orgB = "0b9e8a4d-3f2e-4b8c-8d1a-5e6f7a8b9c02"
)

func receiptJob(orgID, saleID string) Job {
	payload := `{"sale_id":"` + saleID + `","organization_id":"` + orgID + `"}`
	return Job{Type: JobReceipt, Payload: json.RawMessage(payload), Attempts: MaxJobAttempts}
}

func TestDLQ_ReplayRestoresJobsOldestFirst(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	SendToDLQ(ctx, rdb, QueueReceipt, receiptJob(orgA, "a"), "smtp down")
	SendToDLQ(ctx, rdb, QueueReceipt, receiptJob(orgA, "b"), "smtp down")
	SendToDLQ(ctx, rdb, QueueReceipt, Job{Payload: json.RawMessage("not json")}, "undecodable envelope")

	n, err := DLQLength(ctx, rdb, QueueReceipt)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	moved, remaining, err := ReplayDLQ(ctx, rdb, QueueReceipt, orgA, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.Zero(t, remaining)

	n, err = DLQLength(ctx, rdb, QueueReceipt)
	require.NoError(t, err)
	assert.Zero(t, n)
	parked, err := rdb.LLen(ctx, DLQPrefix+QueueReceipt+unreplayableSuffix).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, parked)

	// The pool pops from the right, so the oldest job comes out first.
	raw, err := rdb.RPop(ctx, QueueReceipt).Bytes()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal(raw, &job))
	assert.Equal(t, "a", mustSaleID(t, job))
	assert.Zero(t, job.Attempts)
}

func TestDLQ_ReplayRespectsMax(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		SendToDLQ(ctx, rdb, QueueEmail, Job{Type: JobEmail, Payload: json.RawMessage(`{"organization_id":"` + orgA + `"}`)}, "smtp down")
	}
	moved, remaining, err := ReplayDLQ(ctx, rdb, QueueEmail, orgA, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.Equal(t, 3, remaining)

	n, err := DLQLength(ctx, rdb, QueueEmail)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestDLQ_ReplayLeavesOtherOrganizationsParked(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	SendToDLQ(ctx, rdb, QueueReceipt, receiptJob(orgB, "b1"), "smtp down")
	SendToDLQ(ctx, rdb, QueueReceipt, receiptJob(orgA, "a1"), "smtp down")
	SendToDLQ(ctx, rdb, QueueReceipt, receiptJob(orgB, "b2"), "smtp down")
	SendToDLQ(ctx, rdb, QueueReceipt, Job{Type: JobReceipt, Payload: json.RawMessage(`{"sale_id":"legacy"}`)}, "smtp down")

	moved, remaining, err := ReplayDLQ(ctx, rdb, QueueReceipt, orgA, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Zero(t, remaining)

	queued, err := rdb.LRange(ctx, QueueReceipt, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, queued, 1)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &job))
	assert.Equal(t, "a1", mustSaleID(t, job))

	n, err := DLQLength(ctx, rdb, QueueReceipt)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n, "orgB's jobs and the unscoped one stay parked")

	moved, _, err = ReplayDLQ(ctx, rdb, QueueReceipt, orgB, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
}

func TestDLQ_UnknownQueue(t *testing.T) {
	_, _, err := ReplayDLQ(context.Background(), nil, "jobs:unknown", orgA, 1)
	assert.Error(t, err)
}

func mustSaleID(t *testing.T, job Job) string {
	t.Helper()
	var p ReceiptJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	return p.SaleID
}
