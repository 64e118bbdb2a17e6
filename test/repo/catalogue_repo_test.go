package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mont-sinai/chorale/internal/model"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
	"github.com/mont-sinai/chorale/internal/pkg/timeutil"
	"github.com/mont-sinai/chorale/internal/repo"
	"github.com/mont-sinai/chorale/test/testutil"
)

func TestCatalogueTree(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	ctx := context.Background()
	catalogues := repo.NewCatalogueRepo(db)
	categories := repo.NewCategoryRepo(db)
	subCategories := repo.NewSubCategoryRepo(db)

	now := timeutil.NowUnix()
	catalogue := &model.Catalogue{
		ID:    newTestID(),
		Name:  "Catalogue " + newTestID(),
		Ctime: now,
		Mtime: now,
	}
	require.NoError(t, catalogues.Create(ctx, catalogue))

	// duplicate catalogue name conflicts
	dup := *catalogue
	dup.ID = newTestID()
	require.ErrorIs(t, catalogues.Create(ctx, &dup), appErr.ErrConflict)

	listed, err := catalogues.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, listed)

	category := &model.Category{
		ID:          newTestID(),
		CatalogueID: catalogue.ID,
		Name:        "Avent " + newTestID(),
		Ctime:       now,
		Mtime:       now,
	}
	require.NoError(t, categories.Create(ctx, category))

	sub := &model.SubCategory{
		ID:         newTestID(),
		CategoryID: category.ID,
		Name:       "Basse",
		Ctime:      now,
		Mtime:      now,
	}
	require.NoError(t, subCategories.Create(ctx, sub))

	// GetByID joins the parent category name
	fetched, err := subCategories.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, category.Name, fetched.CategoryName)

	count, err := subCategories.CountByCategory(ctx, category.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	summaries, err := subCategories.ListSummaries(ctx, category.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "Basse", summaries[0].Name)

	newName := "Basse profonde"
	require.NoError(t, subCategories.Update(ctx, sub.ID, &newName, nil, timeutil.NowUnix()))
	fetched, err = subCategories.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, newName, fetched.Name)

	require.NoError(t, subCategories.Delete(ctx, sub.ID))
	require.NoError(t, categories.Delete(ctx, category.ID))
}
