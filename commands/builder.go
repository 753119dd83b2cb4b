package commands

import (
	"group-moderator/commands/defs"

	"github.com/bwmarrin/discordgo"
)

// GuildCommands returns the commands registered in the moderated guild.
func GuildCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.Ban,
		defs.Unban,
		defs.Mute,
		defs.Unmute,
		defs.Warn,
		defs.Unwarn,
		defs.Warnings,
		defs.Blacklist,
		defs.GroupInfo,
		defs.SystemInfo,
	}
}

// GlobalCommands returns the commands available in direct messages with the bot.
func GlobalCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.Moderate,
	}
}
