package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"group-moderator/model"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// maxTimeout is the longest communication timeout Discord accepts.
const maxTimeout = 28 * 24 * time.Hour

// DiscordPlatform applies sanctions in the configured guild and channel.
type DiscordPlatform struct {
	session *discordgo.Session
	config  func() *model.Config
}

// NewDiscordPlatform creates the platform adapter. config is read on every call so
// reloaded settings apply immediately.
func NewDiscordPlatform(session *discordgo.Session, config func() *model.Config) *DiscordPlatform {
	return &DiscordPlatform{session: session, config: config}
}

func snowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}

func isAPIError(err error, code int) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == code
}

// ChannelChatType maps a Discord channel type onto a chat type.
func ChannelChatType(t discordgo.ChannelType) model.ChatType {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return model.ChatTypeSupergroup
	case discordgo.ChannelTypeGuildNews:
		return model.ChatTypeChannel
	case discordgo.ChannelTypeGroupDM:
		return model.ChatTypeGroup
	case discordgo.ChannelTypeDM:
		return model.ChatTypePrivate
	default:
		return model.ChatTypeUnknown
	}
}

func (p *DiscordPlatform) ChatType(ctx context.Context) (model.ChatType, error) {
	channel, err := p.session.Channel(p.config().GroupChannelID, discordgo.WithContext(ctx))
	if err != nil {
		return model.ChatTypeUnknown, fmt.Errorf("failed to get group channel: %w", err)
	}
	return ChannelChatType(channel.Type), nil
}

// Ban bans the account from the guild. Discord bans have no expiry; temporary bans are
// lifted by the expiry sweeper.
func (p *DiscordPlatform) Ban(ctx context.Context, accountID int64, until time.Time, reason string) error {
	cfg := p.config()
	if err := p.session.GuildBanCreateWithReason(cfg.GuildID, snowflake(accountID), reason, 0, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to ban %d: %w", accountID, err)
	}
	return nil
}

func (p *DiscordPlatform) Unban(ctx context.Context, accountID int64) error {
	err := p.session.GuildBanDelete(p.config().GuildID, snowflake(accountID), discordgo.WithContext(ctx))
	if err != nil && !isAPIError(err, discordgo.ErrCodeUnknownBan) {
		return fmt.Errorf("failed to unban %d: %w", accountID, err)
	}
	return nil
}

// Restrict mutes the member when perms deny sending messages and lifts the mute
// otherwise. The mute role, when configured, carries unbounded mutes past the timeout cap.
func (p *DiscordPlatform) Restrict(ctx context.Context, accountID int64, perms model.Permissions, until time.Time) error {
	cfg := p.config()
	userID := snowflake(accountID)
	opt := discordgo.WithContext(ctx)

	if perms.SendMessages {
		if cfg.MuteRoleID != "" {
			err := p.session.GuildMemberRoleRemove(cfg.GuildID, userID, cfg.MuteRoleID, opt)
			if err != nil && !isAPIError(err, discordgo.ErrCodeUnknownMember) {
				return fmt.Errorf("failed to remove mute role from %d: %w", accountID, err)
			}
		}
		err := p.session.GuildMemberTimeout(cfg.GuildID, userID, nil, opt)
		if err != nil && !isAPIError(err, discordgo.ErrCodeUnknownMember) {
			return fmt.Errorf("failed to clear timeout of %d: %w", accountID, err)
		}
		return nil
	}

	if cfg.MuteRoleID != "" {
		if err := p.session.GuildMemberRoleAdd(cfg.GuildID, userID, cfg.MuteRoleID, opt); err != nil {
			return fmt.Errorf("failed to add mute role to %d: %w", accountID, err)
		}
	}

	limit := time.Now().Add(maxTimeout)
	timeout := until
	if timeout.IsZero() || timeout.After(limit) {
		if cfg.MuteRoleID != "" && timeout.IsZero() {
			return nil
		}
		log.Warn().Int64("account_id", accountID).Msg("mute exceeds the timeout limit, capping at 28 days")
		timeout = limit
	}
	if err := p.session.GuildMemberTimeout(cfg.GuildID, userID, &timeout, opt); err != nil {
		return fmt.Errorf("failed to time out %d: %w", accountID, err)
	}
	return nil
}

func (p *DiscordPlatform) SendMessage(ctx context.Context, dest model.Destination, text string) error {
	opt := discordgo.WithContext(ctx)
	channelID := p.config().GroupChannelID
	if dest != model.GroupChat {
		channel, err := p.session.UserChannelCreate(snowflake(int64(dest)), opt)
		if err != nil {
			return fmt.Errorf("failed to open private channel with %d: %w", dest, err)
		}
		channelID = channel.ID
	}
	if _, err := p.session.ChannelMessageSend(channelID, text, opt); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return nil
}

// LookupHandle searches the guild for a member whose username is exactly handle.
func (p *DiscordPlatform) LookupHandle(ctx context.Context, handle string) (int64, bool, error) {
	members, err := p.session.GuildMembersSearch(p.config().GuildID, handle, 10, discordgo.WithContext(ctx))
	if err != nil {
		return 0, false, fmt.Errorf("failed to search members: %w", err)
	}
	for _, member := range members {
		if member.User == nil || !strings.EqualFold(member.User.Username, handle) {
			continue
		}
		id, err := strconv.ParseInt(member.User.ID, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid user id %q: %w", member.User.ID, err)
		}
		return id, true, nil
	}
	return 0, false, nil
}
