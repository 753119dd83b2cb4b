package defs

import "github.com/bwmarrin/discordgo"

var (
	targetOption = &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "target",
		Description: "User mention, @username or numeric ID",
		Required:    true,
	}
	durationOption = &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "duration",
		Description: "Duration such as 30m, 2h or 7d. Empty or 0 means no limit",
		Required:    false,
	}
	reasonOption = &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason shown to the group and the user",
		Required:    false,
	}
)

func sanctionCommand(name, description string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     []*discordgo.ApplicationCommandOption{targetOption, durationOption, reasonOption},
	}
}

func liftCommand(name, description string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     []*discordgo.ApplicationCommandOption{targetOption},
	}
}

var (
	Ban    = sanctionCommand("ban", "Ban a user from the group")
	Unban  = liftCommand("unban", "Lift the ban of a user")
	Mute   = sanctionCommand("mute", "Stop a user from writing in the group")
	Unmute = liftCommand("unmute", "Let a muted user write again")
	Warn   = sanctionCommand("warn", "Warn a user. The third warning bans them")
	Unwarn = liftCommand("unwarn", "Remove the latest warning of a user")

	Warnings = liftCommand("warnings", "Show the active warnings of a user")
)

var Blacklist = &discordgo.ApplicationCommand{
	Name:        "blacklist",
	Description: "List banned users",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "page",
			Description: "Page number",
			Required:    false,
			MinValue:    &minPage,
		},
	},
}

var minPage = float64(1)

var GroupInfo = &discordgo.ApplicationCommand{
	Name:        "groupinfo",
	Description: "Show the id, type and title of the moderated chat",
}

// Moderate opens the step-by-step moderation menu in a direct message with the bot.
var Moderate = &discordgo.ApplicationCommand{
	Name:        "moderate",
	Description: "Open the moderation menu",
	Contexts:    &[]discordgo.InteractionContextType{discordgo.InteractionContextBotDM},
}
