package handlers

import (
	"group-moderator/bot"
	"group-moderator/utils"
	"group-moderator/wizard"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

type commandHandler = func(s *discordgo.Session, i *discordgo.InteractionCreate)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	b.ComponentHandlers = componentHandlers(b)
	addHandlers(b)
}

// adminOnly rejects everyone outside the administrator allow-list.
func adminOnly(b *bot.Bot, h commandHandler) commandHandler {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if utils.CheckPermission(b.GetConfig(), utils.InteractionUserID(i)) != utils.AdminPermission {
			utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
			return
		}
		h(s, i)
	}
}

func commandHandlers(b *bot.Bot) map[string]commandHandler {
	handlers := map[string]commandHandler{
		"warnings": adminOnly(b, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleWarningsCommand(s, i, b)
		}),
		"blacklist": adminOnly(b, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleBlacklistCommand(s, i, b)
		}),
		"groupinfo": adminOnly(b, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleGroupInfoCommand(s, i, b)
		}),
		"sysinfo": adminOnly(b, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			SystemInfoHandler(s, i, b)
		}),
		"moderate": adminOnly(b, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleModerateCommand(s, i, b)
		}),
	}
	for _, action := range wizard.Actions {
		handlers[string(action)] = adminOnly(b, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleSanctionCommand(s, i, b, action)
		})
	}
	return handlers
}

func componentHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate, args []string){
		blacklistPagePrefix: func(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
			adminOnly(b, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
				handleBlacklistPage(s, i, b, args)
			})(s, i)
		},
		wizardPrefix: func(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
			adminOnly(b, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
				handleWizardComponent(s, i, b, args)
			})(s, i)
		},
	}
}

func addHandlers(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.Username).Msg("logged in")
	})
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteractionCreate(s, i, b)
	})
	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handleMessageCreate(s, m, b)
	})
	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		handleGuildMemberAdd(m, b)
	})
}
