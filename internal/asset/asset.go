package asset

import (
	"time"

	"github.com/peoplehub/hr-backoffice/internal"
)

// Asset is one row of the company asset registry. Assignment rows bind an
// asset to an employee; the asset itself only tracks identity and condition.
type Asset struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Tag          string    `json:"tag" gorm:"column:tag;uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"column:name;not null"`
	Category     string    `json:"category" gorm:"column:category"`
	SerialNumber string    `json:"serial_number,omitempty" gorm:"column:serial_number"`
	IsRetired    bool      `json:"is_retired" gorm:"column:is_retired;default:false"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a *Asset) Retire() {
	a.IsRetired = true
	a.UpdatedAt = time.Now()
}

func NewAsset(tag, name, category, serialNumber string) *Asset {
	now := time.Now()
	return &Asset{
		Tag:          tag,
		Name:         name,
		Category:     category,
		SerialNumber: serialNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var ErrAssetNotFound = internal.NewNotFoundError("asset not found", internal.ErrCodeAssetNotFound)
