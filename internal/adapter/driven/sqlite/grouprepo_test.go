package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

func TestGroupRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGroupRepo(db)
	ctx := context.Background()

	rootID, err := repo.Create(ctx, model.Group{Name: "Finance"})
	require.NoError(t, err)
	childID, err := repo.Create(ctx, model.Group{Name: "Bills", ParentID: &rootID})
	require.NoError(t, err)

	root, err := repo.GetByID(ctx, rootID)
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.True(t, root.IsRoot())
	assert.Nil(t, root.IconID)

	child, err := repo.GetByID(ctx, childID)
	require.NoError(t, err)
	require.NotNil(t, child)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, rootID, *child.ParentID)
}

func TestGroupRepo_GetByIDMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGroupRepo(db)

	g, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestGroupRepo_CreateRejectsUnknownParent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGroupRepo(db)

	_, err := repo.Create(context.Background(), model.Group{Name: "Orphan", ParentID: ptr(999)})
	require.Error(t, err)
	assert.True(t, isForeignKeyViolation(err))
}

func TestGroupRepo_ListChildren(t *testing.T) {
	db := setupTestDB(t)
	groups := NewGroupRepo(db)
	icons := NewIconRepo(db)
	ctx := context.Background()

	iconID, err := icons.Create(ctx, model.Icon{Name: "bank", Provider: model.IconProviderIonicons})
	require.NoError(t, err)

	financeID, err := groups.Create(ctx, model.Group{Name: "Finance", IconID: &iconID})
	require.NoError(t, err)
	_, err = groups.Create(ctx, model.Group{Name: "Social"})
	require.NoError(t, err)
	_, err = groups.Create(ctx, model.Group{Name: "Taxes", ParentID: &financeID})
	require.NoError(t, err)
	_, err = groups.Create(ctx, model.Group{Name: "Bills", ParentID: &financeID})
	require.NoError(t, err)

	roots, err := groups.ListChildren(ctx, nil)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "Finance", roots[0].Name)
	assert.Equal(t, "bank", roots[0].IconName)
	assert.Equal(t, model.IconProviderIonicons, roots[0].IconProvider)
	assert.Equal(t, "Social", roots[1].Name)
	assert.Empty(t, roots[1].IconName)

	children, err := groups.ListChildren(ctx, &financeID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Bills", children[0].Name)
	assert.Equal(t, "Taxes", children[1].Name)
}

func TestGroupRepo_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGroupRepo(db)
	ctx := context.Background()

	aID, err := repo.Create(ctx, model.Group{Name: "A"})
	require.NoError(t, err)
	bID, err := repo.Create(ctx, model.Group{Name: "B"})
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, bID, "B2", &aID))

	b, err := repo.GetByID(ctx, bID)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "B2", b.Name)
	require.NotNil(t, b.ParentID)
	assert.Equal(t, aID, *b.ParentID)

	require.NoError(t, repo.Update(ctx, bID, "B2", nil))
	b, err = repo.GetByID(ctx, bID)
	require.NoError(t, err)
	assert.True(t, b.IsRoot())

	err = repo.Update(ctx, 404, "missing", nil)
	require.ErrorIs(t, err, driven.ErrGroupNotFound)
}

func TestGroupRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGroupRepo(db)
	ctx := context.Background()

	parentID, err := repo.Create(ctx, model.Group{Name: "Parent"})
	require.NoError(t, err)
	childID, err := repo.Create(ctx, model.Group{Name: "Child", ParentID: &parentID})
	require.NoError(t, err)

	err = repo.Delete(ctx, parentID)
	require.Error(t, err, "parent with a child must be rejected")
	assert.True(t, isForeignKeyViolation(err))

	require.NoError(t, repo.Delete(ctx, childID))
	require.NoError(t, repo.Delete(ctx, parentID))

	err = repo.Delete(ctx, parentID)
	require.ErrorIs(t, err, driven.ErrGroupNotFound)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
