package share

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/cache"
	"github.com/3Eeeecho/go-divelog/internal/pkg/clock"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/metrics"
	"github.com/3Eeeecho/go-divelog/internal/pkg/notify"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"github.com/3Eeeecho/go-divelog/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTokenAttempts          = 3
	tokenSavepoint            = "share_token"
	defaultPurgeRetentionDays = 30
)

// ShareService creates, resolves and manages the share grants of dives.
// Every operation receives the acting identity explicitly.
type ShareService interface {
	// CreatePublicShare issues a token anyone can resolve.
	CreatePublicShare(ctx context.Context, diveID, requesterID uint64, expiry Expiry) (*models.Share, error)
	// CreateUserShare grants a dive to the user named by recipient, a
	// username or an email address. It is idempotent while a grant is active.
	CreateUserShare(ctx context.Context, diveID, requesterID uint64, recipient string) (*UserShareResult, error)
	// ResolveShare returns the dive behind token. Unknown tokens fail with
	// xerr.ErrShareNotFound, expired ones with xerr.ErrShareExpired.
	ResolveShare(ctx context.Context, token string) (*SharedDive, error)
	// UpdateVisibility changes the visibility of shareID, or of the dive's
	// oldest share when shareID is nil.
	UpdateVisibility(ctx context.Context, diveID, requesterID uint64, visibility models.ShareVisibility, shareID *uint64) (*models.Share, error)
	ListSharedWithMe(ctx context.Context, userID uint64) ([]SharedWithMeItem, error)
	ListMyShares(ctx context.Context, userID uint64, page, pageSize int) ([]models.Share, int64, error)
	RevokeShare(ctx context.Context, shareID, requesterID uint64) error
	// PurgeExpired deletes shares that expired more than the configured
	// retention ago. Younger expired shares stay so they resolve as expired.
	PurgeExpired(ctx context.Context) (int64, error)
}

// ShareServiceDeps holds the optional collaborators of the share service.
// Nil members fall back to crypto/rand tokens, the real clock, no cache, no
// notifications and no metrics.
type ShareServiceDeps struct {
	Tokens   TokenGenerator
	Clock    clock.Clock
	Cache    cache.ShareCache
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

type shareService struct {
	shareRepo repositories.ShareRepository
	diveRepo  repositories.DiveRepository
	userRepo  repositories.UserRepository
	tm        services.TransactionManager
	tokens    TokenGenerator
	clock     clock.Clock
	cache     cache.ShareCache
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	cfg       *config.ShareConfig
}

var _ ShareService = (*shareService)(nil)

func NewShareService(
	shareRepo repositories.ShareRepository,
	diveRepo repositories.DiveRepository,
	userRepo repositories.UserRepository,
	tm services.TransactionManager,
	cfg *config.ShareConfig,
	deps ShareServiceDeps,
) ShareService {
	s := &shareService{
		shareRepo: shareRepo,
		diveRepo:  diveRepo,
		userRepo:  userRepo,
		tm:        tm,
		tokens:    deps.Tokens,
		clock:     deps.Clock,
		cache:     deps.Cache,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		cfg:       cfg,
	}
	if s.tokens == nil {
		s.tokens = NewTokenGenerator()
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.cache == nil {
		s.cache = cache.NopShareCache()
	}
	if s.notifier == nil {
		s.notifier = notify.Nop()
	}
	return s
}

func (s *shareService) CreatePublicShare(ctx context.Context, diveID, requesterID uint64, expiry Expiry) (*models.Share, error) {
	now := s.clock.Now()
	expiresAt, err := expiry.At(now, s.cfg.PublicExpirationDays, s.cfg.MaxExpirationDays)
	if err != nil {
		return nil, err
	}

	share := &models.Share{
		DiveID:         diveID,
		CreatorUserID:  requesterID,
		Visibility:     models.VisibilityPublic,
		ExpirationTime: expiresAt,
		CreatedAt:      now,
	}
	err = s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockOwnedDive(ctx, tx, diveID, requesterID, "only the owner may share their own dive"); err != nil {
			return err
		}
		return s.insertWithFreshToken(ctx, tx, share)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ShareCreated(string(models.VisibilityPublic))
	logger.Info("CreatePublicShare: share created",
		zap.Uint64("shareID", share.ID),
		zap.Uint64("diveID", diveID),
		zap.Uint64("userID", requesterID))
	return share, nil
}

func (s *shareService) CreateUserShare(ctx context.Context, diveID, requesterID uint64, recipient string) (*UserShareResult, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, xerr.Wrapf(xerr.ErrValidationFailed, "recipient username or email is required")
	}
	field := "username"
	if strings.Contains(recipient, "@") {
		field = "email"
	}

	now := s.clock.Now()
	result := &UserShareResult{}
	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockOwnedDive(ctx, tx, diveID, requesterID, "only the owner may share their own dive"); err != nil {
			return err
		}

		users := s.userRepo.WithTx(tx)
		var user *models.User
		var err error
		if field == "email" {
			user, err = users.GetUserByEmail(ctx, recipient)
		} else {
			user, err = users.GetUserByUsername(ctx, recipient)
		}
		if err != nil {
			return fmt.Errorf("look up recipient: %w", err)
		}
		if user == nil || !user.IsActive() {
			return xerr.Wrapf(xerr.ErrUserNotFound, "user with %s %s not found", field, recipient)
		}
		if user.ID == requesterID {
			return xerr.ErrSelfShare
		}
		result.Recipient = user

		existing, err := s.shareRepo.WithTx(tx).FindActiveForRecipient(ctx, diveID, requesterID, user.ID, now)
		if err != nil {
			return err
		}
		if existing != nil {
			result.Share = existing
			result.AlreadyShared = true
			return nil
		}

		expiresAt := now.AddDate(0, 0, s.cfg.UserExpirationDays)
		recipientID := user.ID
		share := &models.Share{
			DiveID:           diveID,
			CreatorUserID:    requesterID,
			SharedWithUserID: &recipientID,
			Visibility:       models.VisibilityUserSpecific,
			ExpirationTime:   &expiresAt,
			CreatedAt:        now,
		}
		if err := s.insertWithFreshToken(ctx, tx, share); err != nil {
			return err
		}
		result.Share = share
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyShared {
		logger.Info("CreateUserShare: dive already shared with recipient",
			zap.Uint64("shareID", result.Share.ID),
			zap.Uint64("diveID", diveID),
			zap.Uint64("recipientID", result.Recipient.ID))
		return result, nil
	}

	s.metrics.ShareCreated(string(models.VisibilityUserSpecific))
	evt := notify.ShareCreated{
		ShareID:          result.Share.ID,
		DiveID:           diveID,
		CreatorUserID:    requesterID,
		SharedWithUserID: result.Recipient.ID,
		ExpirationTime:   result.Share.ExpirationTime,
		CreatedAt:        result.Share.CreatedAt,
	}
	if err := s.notifier.ShareCreated(ctx, evt); err != nil {
		logger.Warn("CreateUserShare: failed to publish share notification",
			zap.Uint64("shareID", result.Share.ID), zap.Error(err))
	}
	logger.Info("CreateUserShare: share created",
		zap.Uint64("shareID", result.Share.ID),
		zap.Uint64("diveID", diveID),
		zap.Uint64("recipientID", result.Recipient.ID))
	return result, nil
}

// lockOwnedDive loads the dive with a row lock and checks it belongs to userID.
func (s *shareService) lockOwnedDive(ctx context.Context, tx *gorm.DB, diveID, userID uint64, deniedMsg string) (*models.Dive, error) {
	dive, err := s.diveRepo.WithTx(tx).FindByIDForUpdate(ctx, diveID)
	if err != nil {
		return nil, err
	}
	if dive == nil {
		return nil, xerr.ErrDiveNotFound
	}
	if dive.UserID != userID {
		logger.Warn("share operation denied",
			zap.Uint64("diveID", diveID),
			zap.Uint64("userID", userID),
			zap.Uint64("ownerID", dive.UserID))
		return nil, xerr.Wrapf(xerr.ErrPermissionDenied, "%s", deniedMsg)
	}
	return dive, nil
}

// insertWithFreshToken persists share under a new token. A token collision
// rolls back to a savepoint and retries with another token.
func (s *shareService) insertWithFreshToken(ctx context.Context, tx *gorm.DB, share *models.Share) error {
	repo := s.shareRepo.WithTx(tx)
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := s.tokens.Generate()
		if err != nil {
			return fmt.Errorf("generate share token: %w", err)
		}
		share.ID = 0
		share.Token = token

		if err := tx.SavePoint(tokenSavepoint).Error; err != nil {
			return fmt.Errorf("create savepoint: %w", err)
		}
		err = repo.Create(ctx, share)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicateToken) {
			return err
		}
		if err := tx.RollbackTo(tokenSavepoint).Error; err != nil {
			return fmt.Errorf("rollback to savepoint: %w", err)
		}
		logger.Warn("share token collision, regenerating", zap.Int("attempt", attempt))
	}
	return fmt.Errorf("no unique share token after %d attempts", maxTokenAttempts)
}

func (s *shareService) ResolveShare(ctx context.Context, token string) (*SharedDive, error) {
	share, err := s.cache.GetShare(ctx, token)
	if err == nil {
		// a cached row can outlive a failed invalidation
		share, err = s.shareRepo.FindByID(ctx, share.ID)
		if err != nil {
			return nil, err
		}
		if share == nil || share.Token != token {
			cache.LogFailure("ResolveShare", s.cache.InvalidateTokens(ctx, token))
			s.metrics.ShareResolved(metrics.OutcomeNotFound)
			return nil, xerr.ErrShareNotFound
		}
	} else {
		cache.LogFailure("ResolveShare", err)
		share, err = s.shareRepo.FindByToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if share == nil {
			s.metrics.ShareResolved(metrics.OutcomeNotFound)
			return nil, xerr.ErrShareNotFound
		}
		cache.LogFailure("ResolveShare", s.cache.SetShare(ctx, share))
	}

	if !share.IsActive(s.clock.Now()) {
		s.metrics.ShareResolved(metrics.OutcomeExpired)
		return nil, xerr.ErrShareExpired
	}

	dive, err := s.diveRepo.FindByID(ctx, share.DiveID)
	if err != nil {
		return nil, err
	}
	if dive == nil {
		// stale cache entry of a deleted dive
		cache.LogFailure("ResolveShare", s.cache.InvalidateTokens(ctx, token))
		s.metrics.ShareResolved(metrics.OutcomeNotFound)
		return nil, xerr.ErrShareNotFound
	}

	creator, err := s.userRepo.GetUserByID(ctx, share.CreatorUserID)
	if err != nil {
		return nil, err
	}

	s.metrics.ShareResolved(metrics.OutcomeOK)
	return &SharedDive{
		Dive:            *dive,
		ShareID:         share.ID,
		SharedBy:        sharerOf(creator, share.CreatorUserID),
		SharedAt:        share.CreatedAt,
		ShareVisibility: share.Visibility,
		ExpirationTime:  share.ExpirationTime,
	}, nil
}

func (s *shareService) UpdateVisibility(ctx context.Context, diveID, requesterID uint64, visibility models.ShareVisibility, shareID *uint64) (*models.Share, error) {
	if !visibility.Valid() {
		return nil, xerr.ErrInvalidVisibility
	}

	var target *models.Share
	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockOwnedDive(ctx, tx, diveID, requesterID, "only the owner may change share visibility"); err != nil {
			return err
		}

		shares := s.shareRepo.WithTx(tx)
		var err error
		if shareID != nil {
			target, err = shares.FindByID(ctx, *shareID)
			if err != nil {
				return err
			}
			if target == nil || target.DiveID != diveID {
				return xerr.Wrapf(xerr.ErrShareNotFound, "share %d not found for dive %d", *shareID, diveID)
			}
		} else {
			target, err = shares.FindPrimaryByDiveID(ctx, diveID)
			if err != nil {
				return err
			}
			if target == nil {
				return xerr.Wrapf(xerr.ErrShareNotFound, "no share record found")
			}
		}

		if err := shares.UpdateVisibility(ctx, target.ID, visibility); err != nil {
			return err
		}
		target.Visibility = visibility
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.LogFailure("UpdateVisibility", s.cache.InvalidateTokens(ctx, target.Token), zap.Uint64("shareID", target.ID))
	logger.Info("UpdateVisibility: share visibility changed",
		zap.Uint64("shareID", target.ID),
		zap.String("visibility", string(visibility)))
	return target, nil
}

func (s *shareService) ListSharedWithMe(ctx context.Context, userID uint64) ([]SharedWithMeItem, error) {
	shares, err := s.shareRepo.ListSharedWithUser(ctx, userID, s.clock.Now())
	if err != nil {
		logger.Error("ListSharedWithMe: query failed", zap.Uint64("userID", userID), zap.Error(err))
		return nil, err
	}

	items := make([]SharedWithMeItem, 0, len(shares))
	for i := range shares {
		sh := &shares[i]
		if sh.Dive == nil {
			continue
		}
		items = append(items, SharedWithMeItem{
			ShareID:        sh.ID,
			Dive:           sh.Dive,
			SharedBy:       sharerOf(sh.Creator, sh.CreatorUserID),
			SharedAt:       sh.CreatedAt,
			Token:          sh.Token,
			ExpirationTime: sh.ExpirationTime,
		})
	}
	return items, nil
}

func (s *shareService) ListMyShares(ctx context.Context, userID uint64, page, pageSize int) ([]models.Share, int64, error) {
	logger.Debug("ListMyShares called", zap.Uint64("userID", userID), zap.Int("page", page), zap.Int("pageSize", pageSize))
	shares, total, err := s.shareRepo.ListByCreator(ctx, userID, page, pageSize)
	if err != nil {
		logger.Error("ListMyShares: query failed", zap.Uint64("userID", userID), zap.Error(err))
		return nil, 0, err
	}
	return shares, total, nil
}

func (s *shareService) RevokeShare(ctx context.Context, shareID, requesterID uint64) error {
	share, err := s.shareRepo.FindByID(ctx, shareID)
	if err != nil {
		return err
	}
	if share == nil {
		return xerr.ErrShareNotFound
	}
	if share.CreatorUserID != requesterID {
		return xerr.Wrapf(xerr.ErrPermissionDenied, "only the creator may revoke this share")
	}

	if err := s.shareRepo.Delete(ctx, shareID); err != nil {
		logger.Error("RevokeShare: delete failed", zap.Uint64("shareID", shareID), zap.Error(err))
		return err
	}
	cache.LogFailure("RevokeShare", s.cache.InvalidateTokens(ctx, share.Token), zap.Uint64("shareID", shareID))

	logger.Info("RevokeShare: share revoked", zap.Uint64("shareID", shareID), zap.Uint64("userID", requesterID))
	return nil
}

func (s *shareService) PurgeExpired(ctx context.Context) (int64, error) {
	retention := s.cfg.PurgeRetentionDays
	if retention < 1 {
		retention = defaultPurgeRetentionDays
	}
	n, err := s.shareRepo.DeleteExpired(ctx, s.clock.Now().AddDate(0, 0, -retention))
	if err != nil {
		return 0, err
	}
	s.metrics.SharesPurged(n)
	if n > 0 {
		logger.Info("PurgeExpired: expired shares deleted", zap.Int64("count", n))
	}
	return n, nil
}
