package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockdesk/internal/database"
	"stockdesk/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	tx := repository.NewTransactionManager(db, time.Second)
	item := seed(t, repo, 5, 0)

	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.Reserve(txCtx, item.ID, 5))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Reserved)
}

func TestRunInTxJoinsOuterTransaction(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	tx := repository.NewTransactionManager(db, time.Second)
	item := seed(t, repo, 5, 0)

	err := tx.RunInTx(ctx, func(outer context.Context) error {
		if err := tx.RunInTx(outer, func(inner context.Context) error {
			return repo.Reserve(inner, item.ID, 2)
		}); err != nil {
			return err
		}
		return errors.New("abort outer")
	})
	require.Error(t, err)

	got, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Reserved, "inner work must roll back with the outer transaction")
}

func TestRunInTxTimeout(t *testing.T) {
	db := database.NewTestDB(t)
	tx := repository.NewTransactionManager(db, 20*time.Millisecond)

	err := tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		<-txCtx.Done()
		return txCtx.Err()
	})
	assert.ErrorIs(t, err, repository.ErrTxTimeout)
}
