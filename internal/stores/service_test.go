package stores_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/repository"
	"github.com/joseph-ayodele/price-tracker/internal/repository/repotest"
	"github.com/joseph-ayodele/price-tracker/internal/stores"
)

func newService(t *testing.T) *stores.Service {
	t.Helper()
	db := repotest.NewDB(t)
	return stores.NewService(repository.NewStoreRepository(db, repotest.Logger()), repotest.Logger())
}

func TestCreateStore(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	st, created, err := svc.CreateStore(ctx, stores.CreateStoreRequest{StoreName: "  Mart One ", Channel: "offline"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Mart One", st.StoreName)
	require.NotNil(t, st.Channel)
	assert.Equal(t, "offline", *st.Channel)
	assert.Nil(t, st.Branch)

	again, created, err := svc.CreateStore(ctx, stores.CreateStoreRequest{StoreName: "Mart One"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, st.ID, again.ID)
}

func TestCreateStore_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, _, err := svc.CreateStore(ctx, stores.CreateStoreRequest{StoreName: "   "})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = svc.CreateStore(ctx, stores.CreateStoreRequest{StoreName: strings.Repeat("a", 201)})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = svc.CreateStore(ctx, stores.CreateStoreRequest{StoreName: "ok", Branch: strings.Repeat("b", 101)})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateAndDeleteStore(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	st, _, err := svc.CreateStore(ctx, stores.CreateStoreRequest{StoreName: "Mart One", Branch: "Gangnam"})
	require.NoError(t, err)

	name := " Mart Two "
	mgr := "Kim"
	updated, err := svc.UpdateStore(ctx, st.ID, entity.StoreUpdate{StoreName: &name, Manager: &mgr})
	require.NoError(t, err)
	assert.Equal(t, "Mart Two", updated.StoreName)
	require.NotNil(t, updated.Manager)
	assert.Equal(t, "Kim", *updated.Manager)
	require.NotNil(t, updated.Branch)
	assert.Equal(t, "Gangnam", *updated.Branch)

	list, err := svc.ListStores(ctx, entity.StoreFilter{StoreName: "two"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteStore(ctx, st.ID))
	_, err = svc.GetStore(ctx, st.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteStore(ctx, st.ID), common.ErrNotFound)
}

func TestUpdateStore_Unknown(t *testing.T) {
	svc := newService(t)
	name := "x"
	_, err := svc.UpdateStore(context.Background(), uuid.New(), entity.StoreUpdate{StoreName: &name})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateStore_EmptyName(t *testing.T) {
	svc := newService(t)
	st, _, err := svc.CreateStore(context.Background(), stores.CreateStoreRequest{StoreName: "Mart"})
	require.NoError(t, err)
	empty := ""
	_, err = svc.UpdateStore(context.Background(), st.ID, entity.StoreUpdate{StoreName: &empty})
	assert.ErrorIs(t, err, common.ErrValidation)
}
