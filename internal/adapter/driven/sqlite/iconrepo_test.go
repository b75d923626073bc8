package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

func TestIconRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIconRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, model.Icon{Name: "bank", Provider: model.IconProviderFontAwesome})
	require.NoError(t, err)
	assert.Positive(t, id)

	icon, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, icon)
	assert.Equal(t, "bank", icon.Name)
	assert.Equal(t, model.IconProviderFontAwesome, icon.Provider)
}

func TestIconRepo_GetByIDMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIconRepo(db)

	icon, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, icon)
}

func TestIconRepo_ListAllAndCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIconRepo(db)
	ctx := context.Background()

	for _, name := range []string{"zap", "account", "key"} {
		_, err := repo.Create(ctx, model.Icon{Name: name, Provider: model.DefaultIconProvider})
		require.NoError(t, err)
	}

	icons, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, icons, 3)
	assert.Equal(t, "account", icons[0].Name)
	assert.Equal(t, "key", icons[1].Name)
	assert.Equal(t, "zap", icons[2].Name)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIconRepo_DeleteReferencedIcon(t *testing.T) {
	db := setupTestDB(t)
	icons := NewIconRepo(db)
	groups := NewGroupRepo(db)
	ctx := context.Background()

	iconID, err := icons.Create(ctx, model.Icon{Name: "bank", Provider: model.DefaultIconProvider})
	require.NoError(t, err)
	_, err = groups.Create(ctx, model.Group{Name: "Finance", IconID: &iconID})
	require.NoError(t, err)

	used, err := icons.IsReferenced(ctx, iconID)
	require.NoError(t, err)
	assert.True(t, used)

	err = icons.Delete(ctx, iconID)
	require.ErrorIs(t, err, model.ErrIconInUse)
}

func TestIconRepo_DeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIconRepo(db)

	err := repo.Delete(context.Background(), 99)
	require.ErrorIs(t, err, driven.ErrIconNotFound)
}

func TestIconRepo_DeleteUnreferenced(t *testing.T) {
	db := setupTestDB(t)
	icons := NewIconRepo(db)
	groups := NewGroupRepo(db)
	ctx := context.Background()

	defaultID, err := icons.Create(ctx, model.Icon{Name: model.DefaultIconName, Provider: model.DefaultIconProvider})
	require.NoError(t, err)
	usedID, err := icons.Create(ctx, model.Icon{Name: "bank", Provider: model.DefaultIconProvider})
	require.NoError(t, err)
	_, err = icons.Create(ctx, model.Icon{Name: "unused", Provider: model.DefaultIconProvider})
	require.NoError(t, err)

	_, err = groups.Create(ctx, model.Group{Name: "Finance", IconID: &usedID})
	require.NoError(t, err)

	removed, err := icons.DeleteUnreferenced(ctx, []int64{defaultID})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := icons.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "bank", remaining[0].Name)
	assert.Equal(t, model.DefaultIconName, remaining[1].Name)
}
