package bot

import (
	"fmt"
	"sync"
	"sync/atomic"

	"group-moderator/filter"
	"group-moderator/model"
	"group-moderator/moderation"
	"group-moderator/scanner"
	"group-moderator/tasks"
	"group-moderator/utils"
	"group-moderator/utils/database/sanctions"
	"group-moderator/wizard"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	resolverCacheSize = 1024
	wizardSessions    = 256
)

type Bot struct {
	Session            *discordgo.Session
	RegisteredCommands []*discordgo.ApplicationCommand
	config             atomic.Value // *model.Config
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
	ComponentHandlers  map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate, args []string)

	Store    *sanctions.Store
	Platform *DiscordPlatform
	Resolver *moderation.CachingResolver
	Engine   *moderation.Engine
	Wizard   *wizard.Manager
	Words    *filter.WordList
	Sweeper  *scanner.ExpirySweeper
	Report   *tasks.SanctionReport

	scheduler *Scheduler
	closeOnce sync.Once
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

// SetConfig swaps the configuration used by every component.
func (b *Bot) SetConfig(cfg *model.Config) {
	b.config.Store(cfg)
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

// New opens the store and wires the sanction engine to a Discord session.
func New(cfg *model.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	dg.StateEnabled = true

	store, err := sanctions.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sanction store: %w", err)
	}
	words, err := filter.Load(cfg.ForbiddenWordsPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	b := &Bot{
		Session: dg,
		Store:   store,
		Words:   words,
		Wizard:  wizard.NewManager(wizardSessions, cfg.WizardTTL),
	}
	b.config.Store(cfg)

	b.Platform = NewDiscordPlatform(dg, b.GetConfig)
	b.Resolver = moderation.NewCachingResolver(store, b.Platform, resolverCacheSize, cfg.ResolverCacheTTL)
	locks := utils.NewTargetLocks()
	b.Engine = moderation.NewEngine(b.Platform, store, b.Resolver, moderation.WithLocks(locks))
	b.Sweeper = scanner.NewExpirySweeper(b.Platform, store, locks, cfg.SweepInterval)
	b.Sweeper.OnFailure(func(kind string, err error) {
		b.LogError("Expiry sweeper", kind+" sweep", err.Error())
	})
	b.Report = tasks.NewSanctionReport(store, dg)
	b.scheduler = NewScheduler(b)
	return b, nil
}

// LogInfo posts to the log channel, if one is configured.
func (b *Bot) LogInfo(module, operation, extraInfo string) {
	logToChannel(b, infoLevel, module, operation, extraInfo)
}

// LogError posts to the log channel, if one is configured.
func (b *Bot) LogError(module, operation, extraInfo string) {
	logToChannel(b, errorLevel, module, operation, extraInfo)
}

func (b *Bot) Close() {
	b.closeOnce.Do(func() {
		log.Info().Msg("gracefully shutting down")
		b.scheduler.Stop()
		if err := b.Session.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close discord session")
		}
		if err := b.Store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close sanction store")
		}
	})
}

// RefreshCommands registers the guild and DM commands, replacing stale ones.
func (b *Bot) RefreshCommands(guildCmds, globalCmds []*discordgo.ApplicationCommand) error {
	appID := b.Session.State.User.ID
	guildID := b.GetConfig().GuildID

	log.Info().Int("count", len(guildCmds)).Str("guild_id", guildID).Msg("registering guild commands")
	registered, err := b.Session.ApplicationCommandBulkOverwrite(appID, guildID, guildCmds)
	if err != nil {
		return fmt.Errorf("cannot update commands for guild %s: %w", guildID, err)
	}
	global, err := b.Session.ApplicationCommandBulkOverwrite(appID, "", globalCmds)
	if err != nil {
		return fmt.Errorf("cannot update global commands: %w", err)
	}
	b.RegisteredCommands = append(registered, global...)
	return nil
}
