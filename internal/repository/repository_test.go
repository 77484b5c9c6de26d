package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/repository"
	"github.com/joseph-ayodele/price-tracker/internal/repository/repotest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, repository.MapError(nil))
	assert.ErrorIs(t, repository.MapError(sql.ErrNoRows), common.ErrNotFound)
	assert.ErrorIs(t, repository.MapError(&pgconn.PgError{Code: "23505"}), common.ErrDuplicate)

	other := errors.New("boom")
	mapped := repository.MapError(other)
	assert.ErrorIs(t, mapped, common.ErrDatabase)
	assert.ErrorIs(t, mapped, other)

	notFound := common.NotFoundf("record x")
	assert.Equal(t, notFound, repository.MapError(notFound))
	assert.Equal(t, context.Canceled, repository.MapError(context.Canceled))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := repotest.NewDB(t)
	ctx := context.Background()

	_, err := repository.WithTx(ctx, db.SQL, func(tx *sql.Tx) (int, error) {
		query, args := db.Builder().Insert("stores").
			Columns("id", "store_name", "created_at", "updated_at").
			Values("00000000-0000-0000-0000-000000000001", "Rolled Back", "2024-01-01 00:00:00", "2024-01-01 00:00:00").
			Query()
		_, err := tx.ExecContext(ctx, query, args...)
		require.NoError(t, err)
		return 0, errors.New("abort")
	})
	require.Error(t, err)

	n, err := repository.NewStoreRepository(db, repotest.Logger()).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := repotest.NewDB(t)
	assert.NoError(t, repository.Migrate(context.Background(), db))
	assert.NoError(t, db.HealthCheck(context.Background(), 0))
}
