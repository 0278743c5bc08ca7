package db

import (
	"context"
	"errors"
	"os"
	"testing"

	"backtest_bot/pkg/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.InfoLogger = zap.NewNop()
	logger.FatalLogger = zap.NewNop()
	os.Exit(m.Run())
}

// fakeTx перехватывает только Commit/Rollback; остальное не зовётся.
type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func TestRunInTxCommitsOnSuccess(t *testing.T) {
	tx := &fakeTx{}

	err := runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.committed || tx.rolledBack {
		t.Fatalf("committed=%v rolledBack=%v, want commit without rollback", tx.committed, tx.rolledBack)
	}
}

func TestRunInTxCommitErrorPropagates(t *testing.T) {
	wantErr := errors.New("commit refused")
	tx := &fakeTx{commitErr: wantErr}

	err := runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error {
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("commit error swallowed: got %v", err)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	wantErr := errors.New("fn failed")

	err := runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want wrapped fn error", err)
	}
	if tx.committed || !tx.rolledBack {
		t.Fatalf("committed=%v rolledBack=%v, want rollback without commit", tx.committed, tx.rolledBack)
	}
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	tx := &fakeTx{}

	defer func() {
		if recover() == nil {
			t.Fatal("panic must propagate")
		}
		if tx.committed || !tx.rolledBack {
			t.Fatalf("committed=%v rolledBack=%v, want rollback without commit", tx.committed, tx.rolledBack)
		}
	}()

	_ = runInTx(context.Background(), tx, func(context.Context, pgx.Tx) error {
		panic("boom")
	})
}
