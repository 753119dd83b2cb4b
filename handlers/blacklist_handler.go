package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"group-moderator/bot"
	"group-moderator/model"
	"group-moderator/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	blacklistPagePrefix = "blacklist_page"
	blacklistPageSize   = 10
)

func handleBlacklistCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	page := 1
	if opt := i.ApplicationCommandData().GetOption("page"); opt != nil {
		page = int(opt.IntValue())
	}
	embed, components, err := blacklistPage(b, page)
	if err != nil {
		utils.SendErrorResponse(s, i, err.Error())
		return
	}
	utils.SendEmbedResponse(s, i, embed, components, true)
}

func handleBlacklistPage(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, args []string) {
	if len(args) != 1 {
		log.Warn().Strs("args", args).Msg("invalid blacklist page button")
		return
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		log.Warn().Str("page", args[0]).Msg("invalid blacklist page number")
		return
	}
	embed, components, err := blacklistPage(b, page)
	if err != nil {
		utils.SendErrorResponse(s, i, err.Error())
		return
	}
	utils.UpdateComponentMessage(s, i, "", embed, components)
}

// blacklistPage loads the 1-based page, clamped to the available pages.
func blacklistPage(b *bot.Bot, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	bans, pages, err := b.Engine.Blacklist(ctx, page-1, blacklistPageSize)
	if err != nil {
		return nil, nil, err
	}
	if pages > 0 && page > pages {
		page = pages
		if bans, _, err = b.Engine.Blacklist(ctx, page-1, blacklistPageSize); err != nil {
			return nil, nil, err
		}
	}
	return buildBlacklistEmbed(bans, page, pages), utils.CreatePaginationComponents(page, pages, blacklistPagePrefix), nil
}

func buildBlacklistEmbed(bans []model.Ban, page, pages int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Blacklist",
		Color: 0xE74C3C,
	}
	if len(bans) == 0 {
		embed.Description = "The blacklist is empty."
		return embed
	}

	var lines []string
	for _, ban := range bans {
		who := "<@" + strconv.FormatInt(ban.AccountID, 10) + ">"
		if ban.Handle != "" {
			who = fmt.Sprintf("@%s (%d)", ban.Handle, ban.AccountID)
		}
		until := "permanent"
		if !ban.Permanent() {
			until = fmt.Sprintf("until <t:%d:f>", ban.Until)
		}
		lines = append(lines, fmt.Sprintf("**%s** · %s · %s", who, until, ban.Reason))
	}
	embed.Description = strings.Join(lines, "\n")
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d of %d", page, pages),
	}
	return embed
}
