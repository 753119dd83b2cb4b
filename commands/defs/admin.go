package defs

import "github.com/bwmarrin/discordgo"

var SystemInfo = &discordgo.ApplicationCommand{
	Name:        "sysinfo",
	Description: "Display bot, database and system status information",
}
