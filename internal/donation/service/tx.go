package service

import (
	"context"
	"sync"
	"time"

	"givetrack/internal/donation/candidacy"
	"givetrack/internal/donation/history"
	"givetrack/internal/donation/progress"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
)

// TxStores exposes the entity stores inside a transaction scope. Every
// multi-record mutation of the lifecycle engine goes through these so either
// all writes apply or none do.
type TxStores interface {
	Donations() DonationStore
	Candidacies() candidacy.Store
	Progress() progress.Store
	History() history.Store
}

// StoreTx provides the transactional boundary for lifecycle mutations.
// Implementations may wrap a database transaction or, in-memory, a
// per-donation lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(stores TxStores) error) error
}

// defaultTxTimeout is the maximum duration for a lifecycle transaction.
const defaultTxTimeout = 5 * time.Second

// numTxShards spreads per-donation locks across independent mutexes so
// unrelated donations never contend.
const numTxShards = 128

type txDonationKey struct{}

var txDonationKeyCtx = txDonationKey{}

// withTxDonation marks the donation a transaction is about, for shard
// selection in the in-memory runner.
func withTxDonation(ctx context.Context, donationID id.DonationID) context.Context {
	return context.WithValue(ctx, txDonationKeyCtx, donationID)
}

type memoryTxStores struct {
	donations   DonationStore
	candidacies candidacy.Store
	progress    progress.Store
	history     history.Store
}

func (s memoryTxStores) Donations() DonationStore     { return s.donations }
func (s memoryTxStores) Candidacies() candidacy.Store { return s.candidacies }
func (s memoryTxStores) Progress() progress.Store     { return s.progress }
func (s memoryTxStores) History() history.Store       { return s.history }

// shardedTx serializes transactions per donation with sharded mutexes.
// Two concurrent mutations of the same donation take the same shard, so the
// loser of a status race re-reads state the winner already committed.
type shardedTx struct {
	shards  [numTxShards]sync.Mutex
	stores  memoryTxStores
	timeout time.Duration
}

// NewMemoryTx builds the in-memory transaction runner over the given stores.
// Used by tests and single-instance deployments; cmd/server wires the
// Postgres runner instead when a database is configured.
func NewMemoryTx(donations DonationStore, candidacies candidacy.Store, progressStore progress.Store, historyStore history.Store) StoreTx {
	return &shardedTx{
		stores: memoryTxStores{
			donations:   donations,
			candidacies: candidacies,
			progress:    progressStore,
			history:     historyStore,
		},
	}
}

func (t *shardedTx) RunInTx(ctx context.Context, fn func(stores TxStores) error) error {
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

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(t.stores)
}

// selectShard picks a shard from the donation ID in context, defaulting to
// shard 0 for transactions not scoped to one donation.
func (t *shardedTx) selectShard(ctx context.Context) int {
	if donationID, ok := ctx.Value(txDonationKeyCtx).(id.DonationID); ok {
		return int(hashID(donationID.String()) % numTxShards)
	}
	return 0
}

// hashID uses FNV-1a for even shard distribution.
func hashID(s string) uint32 {
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
