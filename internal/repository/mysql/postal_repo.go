package mysql

import (
	"context"

	"Kampung_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostalRepository struct {
	DB *gorm.DB
}

// Seed 幂等写入邮区表
func (r *PostalRepository) Seed(sectors []model.PostalSector) error {
	if len(sectors) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sector"}},
		DoNothing: true,
	}).CreateInBatches(sectors, 100).Error
}

func (r *PostalRepository) FindSector(ctx context.Context, sector string) (*model.PostalSector, error) {
	var s model.PostalSector
	err := r.DB.WithContext(ctx).Where("sector = ?", sector).First(&s).Error
	return &s, err
}

func (r *PostalRepository) ListSectors(ctx context.Context) ([]model.PostalSector, error) {
	var list []model.PostalSector
	err := r.DB.WithContext(ctx).Order("sector ASC").Find(&list).Error
	return list, err
}
