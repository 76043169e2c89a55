package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateToken is returned by Create when the token already exists.
var ErrDuplicateToken = errors.New("share token already exists")

type ShareRepository interface {
	WithTx(tx *gorm.DB) ShareRepository
	Create(ctx context.Context, share *models.Share) error
	FindByToken(ctx context.Context, token string) (*models.Share, error)
	FindByID(ctx context.Context, id uint64) (*models.Share, error)
	// FindActiveForRecipient finds a share of diveID from creatorID to
	// recipientID that is still active at now.
	FindActiveForRecipient(ctx context.Context, diveID, creatorID, recipientID uint64, now time.Time) (*models.Share, error)
	// FindPrimaryByDiveID returns the oldest share of the dive.
	FindPrimaryByDiveID(ctx context.Context, diveID uint64) (*models.Share, error)
	ListSharedWithUser(ctx context.Context, userID uint64, now time.Time) ([]models.Share, error)
	ListByCreator(ctx context.Context, userID uint64, page, pageSize int) ([]models.Share, int64, error)
	TokensByDiveID(ctx context.Context, diveID uint64) ([]string, error)
	UpdateVisibility(ctx context.Context, id uint64, visibility models.ShareVisibility) error
	Delete(ctx context.Context, id uint64) error
	DeleteByDiveID(ctx context.Context, diveID uint64) (int64, error)
	// DeleteExpired removes shares whose expiration_time is at or before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type shareRepository struct {
	db *gorm.DB
}

var _ ShareRepository = (*shareRepository)(nil)

// NewShareRepository returns a gorm backed ShareRepository.
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) WithTx(tx *gorm.DB) ShareRepository {
	return &shareRepository{db: tx}
}

func (r *shareRepository) Create(ctx context.Context, share *models.Share) error {
	err := r.db.WithContext(ctx).Create(share).Error
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("create share: %w", err)
	}
	return nil
}

func (r *shareRepository) FindByToken(ctx context.Context, token string) (*models.Share, error) {
	return r.first(r.db.WithContext(ctx).Where("token = ?", token))
}

func (r *shareRepository) FindByID(ctx context.Context, id uint64) (*models.Share, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *shareRepository) FindActiveForRecipient(ctx context.Context, diveID, creatorID, recipientID uint64, now time.Time) (*models.Share, error) {
	q := r.db.WithContext(ctx).
		Where("dive_id = ? AND creator_user_id = ? AND shared_with_user_id = ?", diveID, creatorID, recipientID).
		Where("(expiration_time IS NULL OR expiration_time > ?)", now).
		Order("created_at desc")
	return r.first(q)
}

func (r *shareRepository) FindPrimaryByDiveID(ctx context.Context, diveID uint64) (*models.Share, error) {
	return r.first(r.db.WithContext(ctx).Where("dive_id = ?", diveID).Order("id asc"))
}

func (r *shareRepository) first(q *gorm.DB) (*models.Share, error) {
	var share models.Share
	err := q.First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query share: %w", err)
	}
	return &share, nil
}

func (r *shareRepository) ListSharedWithUser(ctx context.Context, userID uint64, now time.Time) ([]models.Share, error) {
	var shares []models.Share
	err := r.db.WithContext(ctx).
		Preload("Dive").Preload("Creator").
		Where("shared_with_user_id = ?", userID).
		Where("(expiration_time IS NULL OR expiration_time > ?)", now).
		Order("created_at desc").Order("id desc").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("list shares for user %d: %w", userID, err)
	}
	return shares, nil
}

func (r *shareRepository) ListByCreator(ctx context.Context, userID uint64, page, pageSize int) ([]models.Share, int64, error) {
	var shares []models.Share
	var total int64

	offset := (page - 1) * pageSize
	query := r.db.WithContext(ctx).Model(&models.Share{}).
		Where("creator_user_id = ?", userID).
		Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count shares: %w", err)
	}

	err := query.Order("created_at desc").Order("id desc").
		Offset(offset).Limit(pageSize).
		Preload("Dive").Preload("SharedWith").
		Find(&shares).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list shares: %w", err)
	}
	return shares, total, nil
}

func (r *shareRepository) TokensByDiveID(ctx context.Context, diveID uint64) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&models.Share{}).
		Where("dive_id = ?", diveID).
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, fmt.Errorf("collect share tokens: %w", err)
	}
	return tokens, nil
}

func (r *shareRepository) UpdateVisibility(ctx context.Context, id uint64, visibility models.ShareVisibility) error {
	err := r.db.WithContext(ctx).Model(&models.Share{}).
		Where("id = ?", id).
		Update("visibility", visibility).Error
	if err != nil {
		return fmt.Errorf("update share %d visibility: %w", id, err)
	}
	return nil
}

func (r *shareRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Share{}, id).Error; err != nil {
		return fmt.Errorf("delete share %d: %w", id, err)
	}
	return nil
}

func (r *shareRepository) DeleteByDiveID(ctx context.Context, diveID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("dive_id = ?", diveID).Delete(&models.Share{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete shares of dive %d: %w", diveID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *shareRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expiration_time IS NOT NULL AND expiration_time <= ?", cutoff).
		Delete(&models.Share{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired shares: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// isDuplicateKey recognises unique violations whether or not the dialector
// translates them to gorm.ErrDuplicatedKey.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
