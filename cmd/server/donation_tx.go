package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"givetrack/internal/donation/candidacy"
	"givetrack/internal/donation/history"
	"givetrack/internal/donation/progress"
	"givetrack/internal/donation/service"
	candidacystore "givetrack/internal/donation/store/candidacy"
	donationstore "givetrack/internal/donation/store/donation"
	historystore "givetrack/internal/donation/store/history"
	progressstore "givetrack/internal/donation/store/progress"
	dErrors "givetrack/pkg/domain-errors"
)

const defaultDonationTxTimeout = 5 * time.Second

// donationPostgresTx runs lifecycle mutations inside a database transaction.
// Donation reads inside the transaction lock the row, so concurrent status
// races on the same donation serialize at the database.
type donationPostgresTx struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func newDonationPostgresTx(pool *pgxpool.Pool) *donationPostgresTx {
	return &donationPostgresTx{pool: pool}
}

func (t *donationPostgresTx) RunInTx(ctx context.Context, fn func(stores service.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultDonationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(postgresTxStores{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type postgresTxStores struct {
	tx pgx.Tx
}

func (s postgresTxStores) Donations() service.DonationStore {
	return donationstore.NewPostgresTx(s.tx)
}

func (s postgresTxStores) Candidacies() candidacy.Store {
	return candidacystore.NewPostgres(s.tx)
}

func (s postgresTxStores) Progress() progress.Store {
	return progressstore.NewPostgres(s.tx)
}

func (s postgresTxStores) History() history.Store {
	return historystore.NewPostgres(s.tx)
}
