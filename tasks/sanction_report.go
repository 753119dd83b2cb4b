package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// SanctionCounter reports how many sanctions are currently active.
type SanctionCounter interface {
	CountBans(ctx context.Context) (int, error)
	CountMuted(ctx context.Context) (int, error)
	CountWarned(ctx context.Context) (int, error)
}

// EmbedPoster is the part of the Discord session the report needs.
type EmbedPoster interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SanctionReport keeps a single summary message in the log channel up to date.
type SanctionReport struct {
	counter SanctionCounter
	poster  EmbedPoster

	mu        sync.Mutex
	channelID string
	messageID string
}

// NewSanctionReport creates a report backed by counter and posted through poster.
func NewSanctionReport(counter SanctionCounter, poster EmbedPoster) *SanctionReport {
	return &SanctionReport{counter: counter, poster: poster}
}

// GenerateEmbed builds the summary of the active sanctions.
func (r *SanctionReport) GenerateEmbed(ctx context.Context, now time.Time) (*discordgo.MessageEmbed, error) {
	bans, err := r.counter.CountBans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bans: %w", err)
	}
	muted, err := r.counter.CountMuted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count mutes: %w", err)
	}
	warned, err := r.counter.CountWarned(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count warnings: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("### Active sanctions\n")
	builder.WriteString(fmt.Sprintf("**Total: %d**\n\n", bans+muted+warned))
	builder.WriteString(fmt.Sprintf("Banned: %d\n", bans))
	builder.WriteString(fmt.Sprintf("Muted: %d\n", muted))
	builder.WriteString(fmt.Sprintf("With warnings: %d\n", warned))

	return &discordgo.MessageEmbed{
		Title:       "Sanction report",
		Description: builder.String(),
		Timestamp:   now.Format(time.RFC3339),
		Color:       0x00ff00,
	}, nil
}

// Update posts the report to channelID, editing the previous report when there is one.
func (r *SanctionReport) Update(ctx context.Context, channelID string, now time.Time) error {
	if channelID == "" {
		return nil
	}
	embed, err := r.GenerateEmbed(ctx, now)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.messageID != "" && r.channelID == channelID {
		_, err := r.poster.ChannelMessageEditEmbed(channelID, r.messageID, embed, discordgo.WithContext(ctx))
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Str("channel_id", channelID).Str("message_id", r.messageID).Msg("failed to edit sanction report, posting a new one")
	}

	msg, err := r.poster.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send sanction report to channel %s: %w", channelID, err)
	}
	r.channelID = channelID
	r.messageID = msg.ID
	return nil
}

// Run refreshes the report every interval until ctx is cancelled.
func (r *SanctionReport) Run(ctx context.Context, interval time.Duration, channelID func() string) {
	if interval <= 0 {
		log.Info().Msg("sanction report disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := r.Update(ctx, channelID(), now); err != nil {
				log.Error().Err(err).Msg("failed to update sanction report")
			}
		}
	}
}
