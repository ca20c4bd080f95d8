package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal/asset"
)

// AssetRepository implements asset.RepositoryAPI using GORM.
type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) asset.RepositoryAPI {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) GetAll(ctx context.Context, limit, offset int) ([]*asset.Asset, error) {
	var assets []*asset.Asset
	err := r.db.WithContext(ctx).
		Order("tag ASC").
		Limit(limit).
		Offset(offset).
		Find(&assets).Error
	return assets, err
}

func (r *AssetRepository) GetByID(ctx context.Context, id int64) (*asset.Asset, error) {
	var a asset.Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, asset.ErrAssetNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepository) GetByTag(ctx context.Context, tag string) (*asset.Asset, error) {
	var a asset.Asset
	err := r.db.WithContext(ctx).Where("tag = ?", tag).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, asset.ErrAssetNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepository) Create(ctx context.Context, a *asset.Asset) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AssetRepository) Update(ctx context.Context, a *asset.Asset) error {
	a.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(a).Error
}
