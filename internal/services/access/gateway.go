// Package access decides who may see a dive: its owner by id, or anyone
// holding a valid share token.
package access

import (
	"context"

	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"github.com/3Eeeecho/go-divelog/internal/services/share"
	"go.uber.org/zap"
)

type Gateway interface {
	// AuthorizeDirect admits only the owner of the dive. Shares never grant
	// access through the dive id.
	AuthorizeDirect(ctx context.Context, diveID, userID uint64) (*models.Dive, error)
	// AuthorizeToken resolves a share token. Possession of the token is the
	// credential; no session is consulted.
	AuthorizeToken(ctx context.Context, token string) (*share.SharedDive, error)
}

type gateway struct {
	diveRepo repositories.DiveRepository
	shares   share.ShareService
}

var _ Gateway = (*gateway)(nil)

func NewGateway(diveRepo repositories.DiveRepository, shares share.ShareService) Gateway {
	return &gateway{diveRepo: diveRepo, shares: shares}
}

func (g *gateway) AuthorizeDirect(ctx context.Context, diveID, userID uint64) (*models.Dive, error) {
	dive, err := g.diveRepo.FindByID(ctx, diveID)
	if err != nil {
		return nil, err
	}
	if dive == nil {
		return nil, xerr.ErrDiveNotFound
	}
	if dive.UserID != userID {
		logger.Warn("AuthorizeDirect: access denied",
			zap.Uint64("diveID", diveID),
			zap.Uint64("userID", userID),
			zap.Uint64("ownerID", dive.UserID))
		return nil, xerr.Wrapf(xerr.ErrPermissionDenied, "you do not have access to this dive")
	}
	return dive, nil
}

func (g *gateway) AuthorizeToken(ctx context.Context, token string) (*share.SharedDive, error) {
	if token == "" {
		return nil, xerr.ErrShareNotFound
	}
	return g.shares.ResolveShare(ctx, token)
}
