package dive

import (
	"context"
	"strings"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/cache"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"github.com/3Eeeecho/go-divelog/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DiveInput carries the fields of a new dive. A nil DiveNumber continues the
// owner's numbering.
type DiveInput struct {
	DiveNumber  *int
	StartTime   time.Time
	EndTime     time.Time
	MaxDepth    float64
	WeightBelt  string
	Equipment   string
	Visibility  string
	Weather     string
	Location    string
	DivePartner string
	Notes       string
}

// DiveUpdate is a partial update; nil fields are left unchanged.
type DiveUpdate struct {
	DiveNumber  *int
	StartTime   *time.Time
	EndTime     *time.Time
	MaxDepth    *float64
	WeightBelt  *string
	Equipment   *string
	Visibility  *string
	Weather     *string
	Location    *string
	DivePartner *string
	Notes       *string
}

type DiveService interface {
	Create(ctx context.Context, userID uint64, in DiveInput) (*models.Dive, error)
	List(ctx context.Context, userID uint64) ([]models.Dive, error)
	Get(ctx context.Context, diveID, userID uint64) (*models.Dive, error)
	Update(ctx context.Context, diveID, userID uint64, in DiveUpdate) (*models.Dive, error)
	// Delete removes the dive together with all of its shares.
	Delete(ctx context.Context, diveID, userID uint64) error
}

type diveService struct {
	diveRepo   repositories.DiveRepository
	shareRepo  repositories.ShareRepository
	tm         services.TransactionManager
	shareCache cache.ShareCache
}

var _ DiveService = (*diveService)(nil)

func NewDiveService(diveRepo repositories.DiveRepository, shareRepo repositories.ShareRepository, tm services.TransactionManager, shareCache cache.ShareCache) DiveService {
	if shareCache == nil {
		shareCache = cache.NopShareCache()
	}
	return &diveService{
		diveRepo:   diveRepo,
		shareRepo:  shareRepo,
		tm:         tm,
		shareCache: shareCache,
	}
}

func validateDive(d *models.Dive) error {
	if strings.TrimSpace(d.Location) == "" {
		return xerr.Wrapf(xerr.ErrValidationFailed, "location is required")
	}
	if d.MaxDepth <= 0 {
		return xerr.Wrapf(xerr.ErrValidationFailed, "max_depth must be greater than zero")
	}
	if d.StartTime.IsZero() || d.EndTime.IsZero() {
		return xerr.Wrapf(xerr.ErrValidationFailed, "start_time and end_time are required")
	}
	if !d.EndTime.After(d.StartTime) {
		return xerr.Wrapf(xerr.ErrValidationFailed, "end_time must be after start_time")
	}
	return nil
}

func (s *diveService) Create(ctx context.Context, userID uint64, in DiveInput) (*models.Dive, error) {
	dive := &models.Dive{
		UserID:          userID,
		StartTime:       in.StartTime.UTC(),
		EndTime:         in.EndTime.UTC(),
		MaxDepth:        in.MaxDepth,
		WeightBelt:      in.WeightBelt,
		Equipment:       in.Equipment,
		WaterVisibility: in.Visibility,
		Weather:         in.Weather,
		Location:        strings.TrimSpace(in.Location),
		DivePartner:     in.DivePartner,
		Notes:           in.Notes,
	}
	if err := validateDive(dive); err != nil {
		return nil, err
	}

	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		dives := s.diveRepo.WithTx(tx)
		if in.DiveNumber != nil {
			dive.DiveNumber = *in.DiveNumber
		} else {
			last, err := dives.MaxDiveNumber(ctx, userID)
			if err != nil {
				return err
			}
			dive.DiveNumber = last + 1
		}
		return dives.Create(ctx, dive)
	})
	if err != nil {
		logger.Error("CreateDive: failed to create dive", zap.Uint64("userID", userID), zap.Error(err))
		return nil, err
	}

	logger.Info("CreateDive: dive created", zap.Uint64("diveID", dive.ID), zap.Uint64("userID", userID))
	return dive, nil
}

func (s *diveService) List(ctx context.Context, userID uint64) ([]models.Dive, error) {
	return s.diveRepo.FindByUserID(ctx, userID)
}

func (s *diveService) Get(ctx context.Context, diveID, userID uint64) (*models.Dive, error) {
	dive, err := s.diveRepo.FindByID(ctx, diveID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(dive, userID); err != nil {
		return nil, err
	}
	return dive, nil
}

func checkOwner(dive *models.Dive, userID uint64) error {
	if dive == nil {
		return xerr.ErrDiveNotFound
	}
	if dive.UserID != userID {
		return xerr.Wrapf(xerr.ErrPermissionDenied, "you do not have access to this dive")
	}
	return nil
}

func (s *diveService) Update(ctx context.Context, diveID, userID uint64, in DiveUpdate) (*models.Dive, error) {
	var dive *models.Dive
	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		dives := s.diveRepo.WithTx(tx)
		var err error
		dive, err = dives.FindByIDForUpdate(ctx, diveID)
		if err != nil {
			return err
		}
		if err := checkOwner(dive, userID); err != nil {
			return err
		}

		applyUpdate(dive, in)
		if err := validateDive(dive); err != nil {
			return err
		}
		return dives.Update(ctx, dive)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("UpdateDive: dive updated", zap.Uint64("diveID", diveID))
	return dive, nil
}

func applyUpdate(d *models.Dive, in DiveUpdate) {
	if in.DiveNumber != nil {
		d.DiveNumber = *in.DiveNumber
	}
	if in.StartTime != nil {
		d.StartTime = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		d.EndTime = in.EndTime.UTC()
	}
	if in.MaxDepth != nil {
		d.MaxDepth = *in.MaxDepth
	}
	if in.WeightBelt != nil {
		d.WeightBelt = *in.WeightBelt
	}
	if in.Equipment != nil {
		d.Equipment = *in.Equipment
	}
	if in.Visibility != nil {
		d.WaterVisibility = *in.Visibility
	}
	if in.Weather != nil {
		d.Weather = *in.Weather
	}
	if in.Location != nil {
		d.Location = strings.TrimSpace(*in.Location)
	}
	if in.DivePartner != nil {
		d.DivePartner = *in.DivePartner
	}
	if in.Notes != nil {
		d.Notes = *in.Notes
	}
}

func (s *diveService) Delete(ctx context.Context, diveID, userID uint64) error {
	var tokens []string
	var removed int64
	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		dive, err := s.diveRepo.WithTx(tx).FindByIDForUpdate(ctx, diveID)
		if err != nil {
			return err
		}
		if err := checkOwner(dive, userID); err != nil {
			return err
		}

		shares := s.shareRepo.WithTx(tx)
		if tokens, err = shares.TokensByDiveID(ctx, diveID); err != nil {
			return err
		}
		// shares go first so the dive row is never referenced while deleted
		if removed, err = shares.DeleteByDiveID(ctx, diveID); err != nil {
			return err
		}
		return s.diveRepo.WithTx(tx).Delete(ctx, diveID)
	})
	if err != nil {
		return err
	}

	cache.LogFailure("DeleteDive", s.shareCache.InvalidateTokens(ctx, tokens...), zap.Uint64("diveID", diveID))
	logger.Info("DeleteDive: dive deleted",
		zap.Uint64("diveID", diveID),
		zap.Int64("sharesDeleted", removed))
	return nil
}
