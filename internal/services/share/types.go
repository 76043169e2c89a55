package share

import (
	"time"

	"github.com/3Eeeecho/go-divelog/internal/models"
)

// Sharer identifies the user who created a share.
type Sharer struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

func sharerOf(u *models.User, fallbackID uint64) Sharer {
	if u == nil {
		return Sharer{ID: fallbackID}
	}
	return Sharer{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

// SharedDive is what a token resolves to: the full dive plus share metadata.
// The dive's own "visibility" field is water visibility, hence share_visibility.
type SharedDive struct {
	models.Dive
	ShareID         uint64                 `json:"share_id"`
	SharedBy        Sharer                 `json:"shared_by"`
	SharedAt        time.Time              `json:"shared_at"`
	ShareVisibility models.ShareVisibility `json:"share_visibility"`
	ExpirationTime  *time.Time             `json:"expiration_time"`
}

// SharedWithMeItem is one entry of a recipient's inbox.
type SharedWithMeItem struct {
	ShareID        uint64       `json:"share_id"`
	Dive           *models.Dive `json:"dive"`
	SharedBy       Sharer       `json:"shared_by"`
	SharedAt       time.Time    `json:"shared_at"`
	Token          string       `json:"token"`
	ExpirationTime *time.Time   `json:"expiration_time"`
}

// UserShareResult reports the outcome of CreateUserShare. When AlreadyShared
// is set, Share is the existing active grant and nothing was created.
type UserShareResult struct {
	Share         *models.Share
	Recipient     *models.User
	AlreadyShared bool
}
