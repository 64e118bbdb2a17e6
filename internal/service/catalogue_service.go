package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mont-sinai/chorale/internal/model"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
	"github.com/mont-sinai/chorale/internal/pkg/timeutil"
	"github.com/mont-sinai/chorale/internal/repo"
)

// ErrHasChildren rejects deleting a node that still owns children
// (a category with sub-categories, a sub-category with planches).
var ErrHasChildren = fmt.Errorf("%w: has children", appErr.ErrInvalid)

type CatalogueService struct {
	catalogues    *repo.CatalogueRepo
	categories    *repo.CategoryRepo
	subCategories *repo.SubCategoryRepo
	planches      *repo.PlancheRepo
}

func NewCatalogueService(catalogues *repo.CatalogueRepo, categories *repo.CategoryRepo, subCategories *repo.SubCategoryRepo, planches *repo.PlancheRepo) *CatalogueService {
	return &CatalogueService{
		catalogues:    catalogues,
		categories:    categories,
		subCategories: subCategories,
		planches:      planches,
	}
}

func (s *CatalogueService) Catalogues(ctx context.Context) ([]model.Catalogue, error) {
	return s.catalogues.List(ctx)
}

type CategoryCreateInput struct {
	CatalogueID string
	Name        string
	Description string
}

func (s *CatalogueService) CreateCategory(ctx context.Context, input CategoryCreateInput) (*model.Category, error) {
	if input.Name == "" || input.CatalogueID == "" {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.catalogues.GetByID(ctx, input.CatalogueID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	category := &model.Category{
		ID:          uuid.NewString(),
		CatalogueID: input.CatalogueID,
		Name:        input.Name,
		Description: input.Description,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogueService) ListCategories(ctx context.Context, search string, limit, offset uint) ([]model.Category, int, error) {
	categories, err := s.categories.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.categories.Count(ctx, search)
	if err != nil {
		return nil, 0, err
	}
	for i := range categories {
		subs, err := s.subCategories.ListSummaries(ctx, categories[i].ID)
		if err != nil {
			return nil, 0, err
		}
		categories[i].SubCategories = subs
	}
	return categories, total, nil
}

func (s *CatalogueService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	subs, err := s.subCategories.ListSummaries(ctx, id)
	if err != nil {
		return nil, err
	}
	category.SubCategories = subs
	return category, nil
}

type CategoryUpdateInput struct {
	Name        *string
	Description *string
}

func (s *CatalogueService) UpdateCategory(ctx context.Context, id string, input CategoryUpdateInput) (*model.Category, error) {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, id, input.Name, input.Description, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.categories.GetByID(ctx, id)
}

func (s *CatalogueService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.subCategories.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasChildren
	}
	return s.categories.Delete(ctx, id)
}

type SubCategoryCreateInput struct {
	CategoryID string
	Name       string
}

func (s *CatalogueService) CreateSubCategory(ctx context.Context, input SubCategoryCreateInput) (*model.SubCategory, error) {
	if input.Name == "" || input.CategoryID == "" {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	sub := &model.SubCategory{
		ID:         uuid.NewString(),
		CategoryID: input.CategoryID,
		Name:       input.Name,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.subCategories.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *CatalogueService) ListSubCategories(ctx context.Context, search, categoryID string, limit, offset uint) ([]model.SubCategory, int, error) {
	subs, err := s.subCategories.List(ctx, search, categoryID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.subCategories.Count(ctx, search, categoryID)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (s *CatalogueService) GetSubCategory(ctx context.Context, id string) (*model.SubCategory, error) {
	sub, err := s.subCategories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	planches, err := s.planches.ListSummaries(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.Planches = planches
	return sub, nil
}

type SubCategoryUpdateInput struct {
	Name       *string
	CategoryID *string
}

func (s *CatalogueService) UpdateSubCategory(ctx context.Context, id string, input SubCategoryUpdateInput) (*model.SubCategory, error) {
	if _, err := s.subCategories.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := s.subCategories.Update(ctx, id, input.Name, input.CategoryID, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.subCategories.GetByID(ctx, id)
}

func (s *CatalogueService) DeleteSubCategory(ctx context.Context, id string) error {
	if _, err := s.subCategories.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.planches.CountBySubCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasChildren
	}
	return s.subCategories.Delete(ctx, id)
}
