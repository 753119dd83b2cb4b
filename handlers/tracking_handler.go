package handlers

import (
	"context"
	"fmt"
	"strconv"

	"group-moderator/bot"
	"group-moderator/filter"
	"group-moderator/metrics"
	"group-moderator/model"
	"group-moderator/moderation"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

func handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate, b *bot.Bot) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		handleWizardMessage(s, m, b)
		return
	}

	cfg := b.GetConfig()
	if m.GuildID != cfg.GuildID {
		return
	}
	trackUser(b, m.Author)

	if !shouldAutoBan(cfg, b.Words, m.Message) {
		return
	}
	metrics.ForbiddenWordHitsTotal.Inc()

	id, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	summary, err := b.Engine.Ban(ctx, moderation.ByID(id), 0, moderation.ForbiddenWordReason)
	if err != nil {
		b.LogError("Forbidden words", "auto ban", err.Error())
		return
	}
	b.LogInfo("Forbidden words", "auto ban", fmt.Sprintf("%s\nMessage: %s", summary, m.Content))
}

// shouldAutoBan reports whether m is a message in the moderated channel that contains a
// forbidden word and was not written by an administrator.
func shouldAutoBan(cfg *model.Config, words *filter.WordList, m *discordgo.Message) bool {
	if m.ChannelID != cfg.GroupChannelID || m.Author == nil || cfg.IsAdmin(m.Author.ID) {
		return false
	}
	return words.ContainsForbidden(m.Content)
}

func handleGuildMemberAdd(m *discordgo.GuildMemberAdd, b *bot.Bot) {
	if m.Member == nil || m.User == nil || m.GuildID != b.GetConfig().GuildID {
		return
	}
	trackUser(b, m.User)
}

// trackUser records the current username of user so handles can be resolved later.
func trackUser(b *bot.Bot, user *discordgo.User) {
	if user.Bot {
		return
	}
	id, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	if err := b.Resolver.Track(ctx, id, user.Username); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to track member")
	}
}
