package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	bans, muted, warned int
	err                 error
}

func (f fakeCounter) CountBans(context.Context) (int, error)   { return f.bans, f.err }
func (f fakeCounter) CountMuted(context.Context) (int, error)  { return f.muted, nil }
func (f fakeCounter) CountWarned(context.Context) (int, error) { return f.warned, nil }

type fakePoster struct {
	sent    int
	edited  int
	editErr error
}

func (f *fakePoster) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent++
	return &discordgo.Message{ID: "msg", ChannelID: channelID}, nil
}

func (f *fakePoster) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edited++
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

var reportTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateEmbed(t *testing.T) {
	report := NewSanctionReport(fakeCounter{bans: 2, muted: 1, warned: 4}, &fakePoster{})

	embed, err := report.GenerateEmbed(context.Background(), reportTime)
	require.NoError(t, err)
	assert.Equal(t, "Sanction report", embed.Title)
	assert.Contains(t, embed.Description, "**Total: 7**")
	assert.Contains(t, embed.Description, "Banned: 2")
	assert.Contains(t, embed.Description, "Muted: 1")
	assert.Contains(t, embed.Description, "With warnings: 4")
	assert.Equal(t, reportTime.Format(time.RFC3339), embed.Timestamp)
}

func TestGenerateEmbed_CountError(t *testing.T) {
	report := NewSanctionReport(fakeCounter{err: errors.New("db closed")}, &fakePoster{})

	_, err := report.GenerateEmbed(context.Background(), reportTime)
	assert.ErrorContains(t, err, "db closed")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("no channel is a no-op", func(t *testing.T) {
		poster := &fakePoster{}
		report := NewSanctionReport(fakeCounter{}, poster)
		require.NoError(t, report.Update(ctx, "", reportTime))
		assert.Zero(t, poster.sent)
	})

	t.Run("second update edits the first message", func(t *testing.T) {
		poster := &fakePoster{}
		report := NewSanctionReport(fakeCounter{bans: 1}, poster)
		require.NoError(t, report.Update(ctx, "log", reportTime))
		require.NoError(t, report.Update(ctx, "log", reportTime.Add(time.Hour)))
		assert.Equal(t, 1, poster.sent)
		assert.Equal(t, 1, poster.edited)
	})

	t.Run("failed edit posts a new message", func(t *testing.T) {
		poster := &fakePoster{editErr: errors.New("unknown message")}
		report := NewSanctionReport(fakeCounter{}, poster)
		require.NoError(t, report.Update(ctx, "log", reportTime))
		require.NoError(t, report.Update(ctx, "log", reportTime))
		assert.Equal(t, 2, poster.sent)
	})

	t.Run("changed channel posts a new message", func(t *testing.T) {
		poster := &fakePoster{}
		report := NewSanctionReport(fakeCounter{}, poster)
		require.NoError(t, report.Update(ctx, "log", reportTime))
		require.NoError(t, report.Update(ctx, "other", reportTime))
		assert.Equal(t, 2, poster.sent)
		assert.Zero(t, poster.edited)
	})
}
