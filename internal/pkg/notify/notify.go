// Package notify publishes share lifecycle events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ShareCreated is published when a dive is shared with a specific user.
type ShareCreated struct {
	ShareID          uint64     `json:"share_id"`
	DiveID           uint64     `json:"dive_id"`
	CreatorUserID    uint64     `json:"creator_user_id"`
	SharedWithUserID uint64     `json:"shared_with_user_id"`
	ExpirationTime   *time.Time `json:"expiration_time"`
	CreatedAt        time.Time  `json:"created_at"`
}

type Notifier interface {
	ShareCreated(ctx context.Context, evt ShareCreated) error
}

// Publisher is the subset of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

type natsNotifier struct {
	pub     Publisher
	subject string
}

func NewNATSNotifier(pub Publisher, subject string) Notifier {
	return &natsNotifier{pub: pub, subject: subject}
}

func (n *natsNotifier) ShareCreated(ctx context.Context, evt ShareCreated) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal share event: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

type nopNotifier struct{}

// Nop discards every event.
func Nop() Notifier { return nopNotifier{} }

func (nopNotifier) ShareCreated(context.Context, ShareCreated) error { return nil }
