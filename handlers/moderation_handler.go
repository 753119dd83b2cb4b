package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"group-moderator/bot"
	"group-moderator/model"
	"group-moderator/moderation"
	"group-moderator/utils"
	"group-moderator/wizard"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const operationTimeout = 30 * time.Second

type sanctioner interface {
	Ban(ctx context.Context, target moderation.Target, d time.Duration, reason string) (string, error)
	Unban(ctx context.Context, target moderation.Target) (string, error)
	Mute(ctx context.Context, target moderation.Target, d time.Duration, reason string) (string, error)
	Unmute(ctx context.Context, target moderation.Target) (string, error)
	Warn(ctx context.Context, target moderation.Target, d time.Duration, reason string) (string, error)
	Unwarn(ctx context.Context, target moderation.Target) (string, error)
}

// runSanction dispatches action to the engine.
func runSanction(ctx context.Context, e sanctioner, action wizard.Action, target moderation.Target, d time.Duration, reason string) (string, error) {
	switch action {
	case wizard.ActionBan:
		return e.Ban(ctx, target, d, reason)
	case wizard.ActionUnban:
		return e.Unban(ctx, target)
	case wizard.ActionMute:
		return e.Mute(ctx, target, d, reason)
	case wizard.ActionUnmute:
		return e.Unmute(ctx, target)
	case wizard.ActionWarn:
		return e.Warn(ctx, target, d, reason)
	case wizard.ActionUnwarn:
		return e.Unwarn(ctx, target)
	}
	return "", fmt.Errorf("%w: %s", wizard.ErrUnknownAction, action)
}

type sanctionOptions struct {
	Target   moderation.Target
	Duration time.Duration
	Reason   string
}

func parseSanctionOptions(options []*discordgo.ApplicationCommandInteractionDataOption) (sanctionOptions, error) {
	var opts sanctionOptions
	var rawTarget string
	for _, opt := range options {
		switch opt.Name {
		case "target":
			rawTarget = opt.StringValue()
		case "duration":
			opts.Duration = utils.ParseDuration(opt.StringValue())
		case "reason":
			opts.Reason = strings.TrimSpace(opt.StringValue())
		}
	}
	target, err := moderation.ParseTarget(rawTarget)
	if err != nil {
		return sanctionOptions{}, err
	}
	opts.Target = target
	return opts, nil
}

func handleSanctionCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, action wizard.Action) {
	opts, err := parseSanctionOptions(i.ApplicationCommandData().Options)
	if err != nil {
		utils.SendErrorResponse(s, i, err.Error())
		return
	}
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Error().Err(err).Str("action", string(action)).Msg("failed to defer sanction command")
		return
	}

	summary, err := executeSanction(b, utils.InteractionUserID(i), action, opts)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, err.Error())
		return
	}
	utils.SendFollowUp(s, i.Interaction, "✅ "+summary)
}

// executeSanction runs one engine operation on behalf of adminID and reports it to the
// log channel.
func executeSanction(b *bot.Bot, adminID string, action wizard.Action, opts sanctionOptions) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	summary, err := runSanction(ctx, b.Engine, action, opts.Target, opts.Duration, opts.Reason)
	if err != nil {
		return "", err
	}
	b.LogInfo("Moderation", string(action), fmt.Sprintf("%s\nBy: <@%s>", summary, adminID))
	return summary, nil
}

func handleWarningsCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	opts, err := parseSanctionOptions(i.ApplicationCommandData().Options)
	if err != nil {
		utils.SendErrorResponse(s, i, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	ledger, err := b.Engine.Warnings(ctx, opts.Target)
	if err != nil {
		utils.SendErrorResponse(s, i, err.Error())
		return
	}
	utils.SendSimpleResponse(s, i, formatWarnings(opts.Target.String(), ledger))
}

func formatWarnings(who string, ledger model.WarningLedger) string {
	if ledger.Count == 0 {
		return fmt.Sprintf("User %s has no active warnings.", who)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User %s has %d of %d warnings.", who, ledger.Count, model.MaxWarnings)
	if ledger.Count >= model.MaxWarnings {
		b.WriteString("\nThe warning limit was reached and the user was banned.")
		return b.String()
	}

	timed := 0
	for slot, expiry := range ledger.Slots() {
		if expiry == 0 {
			continue
		}
		timed++
		fmt.Fprintf(&b, "\nSlot %d expires <t:%d:R>.", slot+1, expiry)
	}
	if permanent := ledger.Count - timed; permanent > 0 {
		fmt.Fprintf(&b, "\n%d warning(s) never expire.", permanent)
	}
	return b.String()
}

func handleGroupInfoCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	channel, err := s.Channel(b.GetConfig().GroupChannelID)
	if err != nil {
		utils.SendErrorResponse(s, i, fmt.Sprintf("Error: %v", err))
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("Chat ID: %s\nType: %s\nTitle: %s",
		channel.ID, bot.ChannelChatType(channel.Type), channel.Name))
}
