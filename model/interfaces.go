package model

import (
	"context"
	"time"
)

// ChatType is the kind of chat the bot moderates.
type ChatType string

const (
	ChatTypePrivate    ChatType = "private"
	ChatTypeGroup      ChatType = "group"
	ChatTypeSupergroup ChatType = "supergroup"
	ChatTypeChannel    ChatType = "channel"
	ChatTypeUnknown    ChatType = "unknown"
)

// Moderatable reports whether sanctions can be applied in a chat of this type.
func (t ChatType) Moderatable() bool {
	return t == ChatTypeSupergroup || t == ChatTypeChannel
}

// Permissions are the send capabilities of a member.
type Permissions struct {
	SendMessages bool
	SendMedia    bool
	SendOther    bool
}

var (
	// NoPermissions removes every send capability.
	NoPermissions = Permissions{}
	// FullPermissions restores every send capability.
	FullPermissions = Permissions{SendMessages: true, SendMedia: true, SendOther: true}
)

// Destination is the recipient of a message: the moderated group or a member's private chat.
type Destination int64

// GroupChat addresses the moderated group.
const GroupChat Destination = 0

// DirectTo addresses the private chat of an account.
func DirectTo(accountID int64) Destination {
	return Destination(accountID)
}

// Platform is the chat platform the sanctions are applied on.
// A zero until means the restriction does not expire by itself.
type Platform interface {
	ChatType(ctx context.Context) (ChatType, error)
	Ban(ctx context.Context, accountID int64, until time.Time, reason string) error
	Unban(ctx context.Context, accountID int64) error
	Restrict(ctx context.Context, accountID int64, perms Permissions, until time.Time) error
	SendMessage(ctx context.Context, dest Destination, text string) error
}

// Directory looks up the account behind a handle on the platform itself.
type Directory interface {
	LookupHandle(ctx context.Context, handle string) (accountID int64, found bool, err error)
}
