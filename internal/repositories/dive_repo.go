package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-divelog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DiveRepository interface {
	WithTx(tx *gorm.DB) DiveRepository
	Create(ctx context.Context, dive *models.Dive) error
	FindByID(ctx context.Context, id uint64) (*models.Dive, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.Dive, error)
	FindByUserID(ctx context.Context, userID uint64) ([]models.Dive, error)
	MaxDiveNumber(ctx context.Context, userID uint64) (int, error)
	Update(ctx context.Context, dive *models.Dive) error
	Delete(ctx context.Context, id uint64) error
}

type diveRepository struct {
	db *gorm.DB
}

var _ DiveRepository = (*diveRepository)(nil)

func NewDiveRepository(db *gorm.DB) DiveRepository {
	return &diveRepository{db: db}
}

func (r *diveRepository) WithTx(tx *gorm.DB) DiveRepository {
	return &diveRepository{db: tx}
}

func (r *diveRepository) Create(ctx context.Context, dive *models.Dive) error {
	if err := r.db.WithContext(ctx).Create(dive).Error; err != nil {
		return fmt.Errorf("create dive: %w", err)
	}
	return nil
}

func (r *diveRepository) FindByID(ctx context.Context, id uint64) (*models.Dive, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *diveRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.Dive, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *diveRepository) find(q *gorm.DB, id uint64) (*models.Dive, error) {
	var dive models.Dive
	err := q.Where("id = ?", id).First(&dive).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query dive %d: %w", id, err)
	}
	return &dive, nil
}

func (r *diveRepository) FindByUserID(ctx context.Context, userID uint64) ([]models.Dive, error) {
	var dives []models.Dive
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time desc").Order("id desc").
		Find(&dives).Error
	if err != nil {
		return nil, fmt.Errorf("list dives: %w", err)
	}
	return dives, nil
}

func (r *diveRepository) MaxDiveNumber(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.WithContext(ctx).Model(&models.Dive{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(dive_number), 0)").
		Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("max dive number: %w", err)
	}
	return n, nil
}

func (r *diveRepository) Update(ctx context.Context, dive *models.Dive) error {
	if err := r.db.WithContext(ctx).Save(dive).Error; err != nil {
		return fmt.Errorf("update dive %d: %w", dive.ID, err)
	}
	return nil
}

func (r *diveRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Dive{}, id).Error; err != nil {
		return fmt.Errorf("delete dive %d: %w", id, err)
	}
	return nil
}
