package service

import (
	"context"
	"sync"
	"time"

	dErrors "suratdesa/pkg/domain-errors"
)

// TxScope serializes mutating operations per letter request. Implementations
// may wrap a database transaction or, in-memory, a sharded lock. Operations
// on different requests proceed in parallel; two transitions on the same
// request id never interleave.
type TxScope interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// numShards spreads per-request locks across independent mutexes so hot
// requests don't serialize unrelated traffic.
const numShards = 128

// defaultTxTimeout bounds how long a transition may hold its shard.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx returns the in-memory TxScope used outside of postgres
// deployments and in tests.
func NewShardedTx() TxScope {
	return &shardedTx{timeout: defaultTxTimeout}
}

func (t *shardedTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashKey(key) % numShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// hashKey uses FNV-1a for even shard distribution.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
