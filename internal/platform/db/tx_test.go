package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// fakeTx embeds pgx.Tx so only the methods WithTx calls need bodies.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	txs []*fakeTx
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if opts.IsoLevel != pgx.ReadCommitted {
		return nil, fmt.Errorf("unexpected isolation %s", opts.IsoLevel)
	}
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func TestWithTxCommits(t *testing.T) {
	pool := &fakeBeginner{}
	require.NoError(t, WithTx(context.Background(), pool, func(pgx.Tx) error { return nil }))
	require.Len(t, pool.txs, 1)
	require.True(t, pool.txs[0].committed)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	pool := &fakeBeginner{}
	boom := errors.New("boom")
	err := WithTx(context.Background(), pool, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Len(t, pool.txs, 1)
	require.True(t, pool.txs[0].rolledBack)
}

func TestWithTxReplaysDeadlocks(t *testing.T) {
	pool := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), pool, func(pgx.Tx) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("lock sequence: %w", &pgconn.PgError{Code: "40P01"})
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.True(t, pool.txs[0].rolledBack)
	require.True(t, pool.txs[1].committed)
}

func TestWithTxGivesUpAfterMaxAttempts(t *testing.T) {
	pool := &fakeBeginner{}
	err := WithTx(context.Background(), pool, func(pgx.Tx) error {
		return &pgconn.PgError{Code: "40001"}
	})
	require.True(t, Retryable(err))
	require.Len(t, pool.txs, maxTxAttempts)
}

func TestRetryable(t *testing.T) {
	require.False(t, Retryable(nil))
	require.False(t, Retryable(errors.New("plain")))
	require.False(t, Retryable(&pgconn.PgError{Code: "23505"}))
	require.True(t, Retryable(&pgconn.PgError{Code: "40001"}))
}
