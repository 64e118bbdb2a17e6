package service

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"

	"github.com/mont-sinai/chorale/internal/model"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
	"github.com/mont-sinai/chorale/internal/pkg/timeutil"
	"github.com/mont-sinai/chorale/internal/repo"
)

const plancheCacheSize = 256

type PlancheService struct {
	planches      *repo.PlancheRepo
	subCategories *repo.SubCategoryRepo
	cache         *lru.Cache[string, *model.Planche]
}

func NewPlancheService(planches *repo.PlancheRepo, subCategories *repo.SubCategoryRepo) (*PlancheService, error) {
	cache, err := lru.New[string, *model.Planche](plancheCacheSize)
	if err != nil {
		return nil, err
	}
	return &PlancheService{planches: planches, subCategories: subCategories, cache: cache}, nil
}

type PlancheCreateInput struct {
	Title         string
	SubCategoryID string
	Files         []string
	AudioFiles    []string
}

func (s *PlancheService) Create(ctx context.Context, uploaderID string, input PlancheCreateInput) (*model.Planche, error) {
	if input.Title == "" || input.SubCategoryID == "" {
		return nil, appErr.ErrInvalid
	}
	if len(input.Files) == 0 {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.subCategories.GetByID(ctx, input.SubCategoryID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	planche := &model.Planche{
		ID:            uuid.NewString(),
		SubCategoryID: input.SubCategoryID,
		Title:         input.Title,
		Files:         input.Files,
		AudioFiles:    input.AudioFiles,
		UploadedByID:  uploaderID,
		Ctime:         now,
		Mtime:         now,
	}
	if err := s.planches.Create(ctx, planche); err != nil {
		return nil, err
	}
	return s.planches.GetByID(ctx, planche.ID)
}

func (s *PlancheService) List(ctx context.Context, filter repo.PlancheFilter, limit, offset uint) ([]model.Planche, int, error) {
	planches, err := s.planches.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.planches.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return planches, total, nil
}

func (s *PlancheService) Get(ctx context.Context, id string) (*model.Planche, error) {
	if planche, ok := s.cache.Get(id); ok {
		return planche, nil
	}
	planche, err := s.planches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, planche)
	return planche, nil
}

// AppendFiles adds newly uploaded pages and audio files to an existing
// planche, keeping everything already attached.
func (s *PlancheService) AppendFiles(ctx context.Context, id string, files, audioFiles []string) (*model.Planche, error) {
	planche, err := s.planches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := append(append([]string{}, planche.Files...), files...)
	mergedAudio := append(append([]string{}, planche.AudioFiles...), audioFiles...)
	if err := s.planches.UpdateFiles(ctx, id, merged, mergedAudio, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	s.cache.Remove(id)
	return s.planches.GetByID(ctx, id)
}

func (s *PlancheService) Delete(ctx context.Context, id string) error {
	if _, err := s.planches.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.planches.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(id)
	return nil
}
