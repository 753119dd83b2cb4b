package handlers

import (
	"context"
	"testing"
	"time"

	"group-moderator/filter"
	"group-moderator/model"
	"group-moderator/moderation"
	"group-moderator/wizard"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Action   wizard.Action
	Target   moderation.Target
	Duration time.Duration
	Reason   string
}

type fakeSanctioner struct {
	calls []recordedCall
}

func (f *fakeSanctioner) record(action wizard.Action, target moderation.Target, d time.Duration, reason string) (string, error) {
	f.calls = append(f.calls, recordedCall{Action: action, Target: target, Duration: d, Reason: reason})
	return string(action) + " done", nil
}

func (f *fakeSanctioner) Ban(ctx context.Context, target moderation.Target, d time.Duration, reason string) (string, error) {
	return f.record(wizard.ActionBan, target, d, reason)
}

func (f *fakeSanctioner) Unban(ctx context.Context, target moderation.Target) (string, error) {
	return f.record(wizard.ActionUnban, target, 0, "")
}

func (f *fakeSanctioner) Mute(ctx context.Context, target moderation.Target, d time.Duration, reason string) (string, error) {
	return f.record(wizard.ActionMute, target, d, reason)
}

func (f *fakeSanctioner) Unmute(ctx context.Context, target moderation.Target) (string, error) {
	return f.record(wizard.ActionUnmute, target, 0, "")
}

func (f *fakeSanctioner) Warn(ctx context.Context, target moderation.Target, d time.Duration, reason string) (string, error) {
	return f.record(wizard.ActionWarn, target, d, reason)
}

func (f *fakeSanctioner) Unwarn(ctx context.Context, target moderation.Target) (string, error) {
	return f.record(wizard.ActionUnwarn, target, 0, "")
}

func TestRunSanction(t *testing.T) {
	ctx := context.Background()
	target := moderation.ByHandle("alice")

	for _, action := range wizard.Actions {
		t.Run(string(action), func(t *testing.T) {
			f := &fakeSanctioner{}
			summary, err := runSanction(ctx, f, action, target, time.Hour, "r")
			require.NoError(t, err)
			assert.Equal(t, string(action)+" done", summary)
			require.Len(t, f.calls, 1)
			assert.Equal(t, action, f.calls[0].Action)
			assert.Equal(t, target, f.calls[0].Target)
		})
	}

	_, err := runSanction(ctx, &fakeSanctioner{}, wizard.Action("kick"), target, 0, "")
	assert.ErrorIs(t, err, wizard.ErrUnknownAction)
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func TestParseSanctionOptions(t *testing.T) {
	opts, err := parseSanctionOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		stringOption("target", "<@!123>"),
		stringOption("duration", "30m"),
		stringOption("reason", "  flood "),
	})
	require.NoError(t, err)
	assert.Equal(t, sanctionOptions{Target: moderation.ByID(123), Duration: 30 * time.Minute, Reason: "flood"}, opts)

	opts, err = parseSanctionOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		stringOption("target", "@bob"),
		stringOption("duration", "forever"),
	})
	require.NoError(t, err)
	assert.Equal(t, moderation.ByHandle("bob"), opts.Target)
	assert.Zero(t, opts.Duration)

	_, err = parseSanctionOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		stringOption("target", "bob"),
	})
	assert.ErrorIs(t, err, moderation.ErrInvalidTarget)
}

func TestFormatWarnings(t *testing.T) {
	assert.Equal(t, "User @a has no active warnings.", formatWarnings("@a", model.WarningLedger{}))

	ledger := model.WarningLedger{Count: 2, Slot1Expiry: 0, Slot2Expiry: 1700000000}
	text := formatWarnings("@a", ledger)
	assert.Contains(t, text, "2 of 3 warnings")
	assert.Contains(t, text, "Slot 2 expires <t:1700000000:R>")
	assert.Contains(t, text, "1 warning(s) never expire")

	text = formatWarnings("@a", model.WarningLedger{Count: 3})
	assert.Contains(t, text, "banned")
}

func TestBuildBlacklistEmbed(t *testing.T) {
	embed := buildBlacklistEmbed(nil, 1, 0)
	assert.Equal(t, "The blacklist is empty.", embed.Description)
	assert.Nil(t, embed.Footer)

	embed = buildBlacklistEmbed([]model.Ban{
		{AccountID: 1, Handle: "alice", Until: 0, Reason: "spam"},
		{AccountID: 2, Until: 1700000000, Reason: "unspecified"},
	}, 2, 3)
	assert.Contains(t, embed.Description, "@alice (1)")
	assert.Contains(t, embed.Description, "permanent")
	assert.Contains(t, embed.Description, "<@2>")
	assert.Contains(t, embed.Description, "until <t:1700000000:f>")
	assert.Equal(t, "Page 2 of 3", embed.Footer.Text)
}

func TestShouldAutoBan(t *testing.T) {
	cfg := &model.Config{GroupChannelID: "chat", AdminIDs: []string{"1"}}
	words := filter.NewWordList("spam")

	message := func(channelID, authorID, content string) *discordgo.Message {
		return &discordgo.Message{ChannelID: channelID, Author: &discordgo.User{ID: authorID}, Content: content}
	}

	assert.True(t, shouldAutoBan(cfg, words, message("chat", "2", "buy SPAM")))
	assert.False(t, shouldAutoBan(cfg, words, message("chat", "1", "buy spam")), "admins are exempt")
	assert.False(t, shouldAutoBan(cfg, words, message("other", "2", "buy spam")))
	assert.False(t, shouldAutoBan(cfg, words, message("chat", "2", "hello")))
}

func TestSplitCustomID(t *testing.T) {
	prefix, args := splitCustomID("wizard:start:ban")
	assert.Equal(t, "wizard", prefix)
	assert.Equal(t, []string{"start", "ban"}, args)

	prefix, args = splitCustomID("blacklist_page")
	assert.Equal(t, "blacklist_page", prefix)
	assert.Empty(t, args)
}

func TestWizardComponents(t *testing.T) {
	rows := menuComponents()
	require.Len(t, rows, 4)
	first := rows[0].(discordgo.ActionsRow)
	assert.Equal(t, "wizard:start:warn", first.Components[0].(discordgo.Button).CustomID)

	row := promptComponents(wizard.Session{Step: wizard.StepDuration})[0].(discordgo.ActionsRow)
	assert.Equal(t, "wizard:nolimit", row.Components[0].(discordgo.Button).CustomID)
	assert.Equal(t, "wizard:cancel", row.Components[1].(discordgo.Button).CustomID)

	row = promptComponents(wizard.Session{Step: wizard.StepReason})[0].(discordgo.ActionsRow)
	assert.Equal(t, "wizard:skip", row.Components[0].(discordgo.Button).CustomID)

	row = promptComponents(wizard.Session{Step: wizard.StepTarget})[0].(discordgo.ActionsRow)
	assert.Len(t, row.Components, 1)
}
