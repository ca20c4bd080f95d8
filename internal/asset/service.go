package asset

import (
	"context"
	"log/slog"
	"strings"

	"github.com/peoplehub/hr-backoffice/internal"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context, limit, offset int) ([]*Asset, error)
	GetByID(ctx context.Context, id int64) (*Asset, error)
	GetByTag(ctx context.Context, tag string) (*Asset, error)
	Create(ctx context.Context, asset *Asset) error
	Update(ctx context.Context, asset *Asset) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListAssets(ctx context.Context, limit, offset int) ([]*Asset, error) {
	assets, err := s.repo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list assets", "error", err)
		return nil, err
	}
	return assets, nil
}

func (s *Service) GetAsset(ctx context.Context, id int64) (*Asset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get asset", "error", err, "asset_id", id)
		return nil, err
	}
	return asset, nil
}

func (s *Service) RegisterAsset(ctx context.Context, tag, name, category, serialNumber string) (*Asset, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, internal.NewValidationFieldError("tag", "tag is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(name) == "" {
		return nil, internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}

	asset := NewAsset(strings.TrimSpace(tag), strings.TrimSpace(name), category, serialNumber)
	if err := s.repo.Create(ctx, asset); err != nil {
		s.logger.Error("failed to register asset", "error", err, "tag", tag)
		return nil, err
	}

	s.logger.Info("asset registered", "asset_id", asset.ID, "tag", asset.Tag)
	return asset, nil
}

func (s *Service) RetireAsset(ctx context.Context, id int64) (*Asset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	asset.Retire()
	if err := s.repo.Update(ctx, asset); err != nil {
		s.logger.Error("failed to retire asset", "error", err, "asset_id", id)
		return nil, err
	}

	s.logger.Info("asset retired", "asset_id", id, "tag", asset.Tag)
	return asset, nil
}
