package bot

import (
	"context"
	"fmt"

	"group-moderator/commands"
	"group-moderator/utils"

	"github.com/rs/zerolog/log"
)

type logLevel int

const (
	infoLevel logLevel = iota
	errorLevel
)

func logToChannel(b *Bot, level logLevel, module, operation, extraInfo string) {
	channelID := b.GetConfig().LogChannelID
	if channelID == "" {
		return
	}
	if level == errorLevel {
		utils.LogError(b.Session, channelID, module, operation, extraInfo)
		return
	}
	utils.LogInfo(b.Session, channelID, module, operation, extraInfo)
}

// Run connects to Discord and serves until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	defer b.Close()

	if err := b.RefreshCommands(commands.GuildCommands(), commands.GlobalCommands()); err != nil {
		log.Error().Err(err).Msg("failed to register commands")
	}

	b.scheduler.Start(ctx)

	log.Info().Str("guild_id", b.GetConfig().GuildID).Msg("bot is now running")
	b.LogInfo("System", "Startup", fmt.Sprintf("Bot has started. %d forbidden words loaded.", b.Words.Len()))

	<-ctx.Done()
	return nil
}
