package handlers

import (
	"strings"

	"group-moderator/bot"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// splitCustomID splits "prefix:arg1:arg2" into the prefix and its arguments.
func splitCustomID(customID string) (string, []string) {
	parts := strings.Split(customID, ":")
	return parts[0], parts[1:]
}

func handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		if h, ok := b.CommandHandlers[name]; ok {
			h(s, i)
			return
		}
		log.Warn().Str("command", name).Msg("no handler for command")
	case discordgo.InteractionMessageComponent:
		prefix, args := splitCustomID(i.MessageComponentData().CustomID)
		if h, ok := b.ComponentHandlers[prefix]; ok {
			h(s, i, args)
			return
		}
		log.Warn().Str("custom_id", i.MessageComponentData().CustomID).Msg("no handler for component")
	}
}
