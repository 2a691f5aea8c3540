package ports

import (
	"context"

	"github.com/okunev/nutfarm/internal/domain"
)

// Message is the narrow view of a platform message the engine consumes:
// who sent it, its text body, and whether an attachment rides along (the
// bot's profile card is an image with a caption).
type Message struct {
	SenderID      int64
	Text          string
	HasAttachment bool
}

// Peer identifies a resolved platform entity.
type Peer struct {
	ID         int64
	AccessHash int64
	Username   string
}

// Group is a disposable group chat created for one farm cycle.
type Group struct {
	ID         int64
	AccessHash int64
	Title      string
}

// Messenger is the platform client capability the farm engine drives. One
// Messenger serves one account and is not safe for concurrent use; every
// call must honor context cancellation and deadlines.
type Messenger interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	ResolvePeer(ctx context.Context, handle string) (Peer, error)
	CreateGroup(ctx context.Context, title string) (Group, error)
	InviteMember(ctx context.Context, group Group, peer Peer) error
	// PromoteSelf grants the account elevated posting rights in the group
	// (post, delete, invite, edit only).
	PromoteSelf(ctx context.Context, group Group) error
	// SendText posts into the group, as the group's anonymous identity when
	// asGroup is set.
	SendText(ctx context.Context, group Group, text string, asGroup bool) error
	// RecentMessages returns up to limit messages, newest first.
	RecentMessages(ctx context.Context, group Group, limit int) ([]Message, error)
	DeleteGroup(ctx context.Context, group Group) error
}

// MessengerFactory opens a Messenger for one account's session.
type MessengerFactory interface {
	Messenger(account domain.Account) (Messenger, error)
}
