package handlers

import (
	"errors"
	"strings"

	"group-moderator/bot"
	"group-moderator/utils"
	"group-moderator/wizard"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const wizardPrefix = "wizard"

var actionLabels = map[wizard.Action]string{
	wizard.ActionWarn:   "Warn",
	wizard.ActionUnwarn: "Remove warning",
	wizard.ActionMute:   "Mute",
	wizard.ActionUnmute: "Unmute",
	wizard.ActionBan:    "Ban",
	wizard.ActionUnban:  "Unban",
}

func wizardButton(label string, style discordgo.ButtonStyle, args ...string) discordgo.Button {
	return discordgo.Button{
		Label:    label,
		Style:    style,
		CustomID: wizardPrefix + ":" + strings.Join(args, ":"),
	}
}

// menuComponents lays the actions out in pairs, as sanction and lift.
func menuComponents() []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for n := 0; n < len(wizard.Actions); n += 2 {
		var buttons []discordgo.MessageComponent
		for _, action := range wizard.Actions[n:min(n+2, len(wizard.Actions))] {
			buttons = append(buttons, wizardButton(actionLabels[action], discordgo.PrimaryButton, "start", string(action)))
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		wizardButton("Blacklist", discordgo.SecondaryButton, "blacklist"),
	}})
	return rows
}

// promptComponents returns the shortcut buttons of the current step.
func promptComponents(session wizard.Session) []discordgo.MessageComponent {
	buttons := []discordgo.MessageComponent{}
	switch session.Step {
	case wizard.StepDuration:
		buttons = append(buttons, wizardButton("No limit", discordgo.PrimaryButton, "nolimit"))
	case wizard.StepReason:
		buttons = append(buttons, wizardButton("Skip reason", discordgo.PrimaryButton, "skip"))
	}
	buttons = append(buttons, wizardButton("Cancel", discordgo.DangerButton, "cancel"))
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func handleModerateCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "Moderation menu:",
			Components: menuComponents(),
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to send moderation menu")
	}
}

func handleWizardComponent(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, args []string) {
	if len(args) == 0 {
		return
	}
	adminID := utils.InteractionUserID(i)

	var session wizard.Session
	var err error
	switch args[0] {
	case "start":
		if len(args) != 2 {
			return
		}
		session, err = b.Wizard.Start(adminID, wizard.Action(args[1]))
	case "nolimit":
		session, err = b.Wizard.NoLimit(adminID)
	case "skip":
		session, err = b.Wizard.SkipReason(adminID)
	case "cancel":
		b.Wizard.Cancel(adminID)
		utils.UpdateComponentMessage(s, i, "Cancelled.", nil, nil)
		return
	case "blacklist":
		embed, components, err := blacklistPage(b, 1)
		if err != nil {
			utils.SendErrorResponse(s, i, err.Error())
			return
		}
		utils.SendEmbedResponse(s, i, embed, components, false)
		return
	default:
		log.Warn().Strs("args", args).Msg("unknown wizard button")
		return
	}
	if err != nil {
		utils.SendErrorResponse(s, i, err.Error())
		return
	}

	if args[0] == "start" {
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    session.Prompt(),
				Components: promptComponents(session),
			},
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to send wizard prompt")
		}
		return
	}

	if !session.Done() {
		utils.UpdateComponentMessage(s, i, session.Prompt(), nil, promptComponents(session))
		return
	}
	utils.UpdateComponentMessage(s, i, finishWizard(b, session), nil, nil)
}

// handleWizardMessage feeds a direct message from an administrator into their session.
func handleWizardMessage(s *discordgo.Session, m *discordgo.MessageCreate, b *bot.Bot) {
	if !b.GetConfig().IsAdmin(m.Author.ID) {
		return
	}
	if _, ok := b.Wizard.Get(m.Author.ID); !ok {
		return
	}

	session, err := b.Wizard.Input(m.Author.ID, m.Content)
	reply := &discordgo.MessageSend{}
	switch {
	case errors.Is(err, wizard.ErrNoSession):
		return
	case err != nil:
		reply.Content = "❌ " + err.Error() + "\n" + session.Prompt()
		reply.Components = promptComponents(session)
	case session.Done():
		reply.Content = finishWizard(b, session)
	default:
		reply.Content = session.Prompt()
		reply.Components = promptComponents(session)
	}
	if _, err := s.ChannelMessageSendComplex(m.ChannelID, reply); err != nil {
		log.Error().Err(err).Str("admin_id", m.Author.ID).Msg("failed to answer wizard message")
	}
}

func finishWizard(b *bot.Bot, session wizard.Session) string {
	summary, err := executeSanction(b, session.AdminID, session.Action, sanctionOptions{
		Target:   session.Target,
		Duration: session.Duration,
		Reason:   session.Reason,
	})
	if err != nil {
		return "❌ " + err.Error()
	}
	return "✅ " + summary
}
