package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Scheduler manages the background tasks of the bot.
type Scheduler struct {
	bot    *Bot
	done   chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

// NewScheduler creates a new scheduler.
func NewScheduler(bot *Bot) *Scheduler {
	return &Scheduler{
		bot:  bot,
		done: make(chan struct{}),
	}
}

// Start begins the expiry sweeper, the forbidden word watcher and the sanction report.
func (s *Scheduler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.wg.Add(3)

	go func() {
		defer s.wg.Done()
		s.bot.Sweeper.Run(ctx, s.done)
	}()

	go func() {
		defer s.wg.Done()
		if err := s.bot.Words.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("forbidden word watcher stopped")
		}
	}()

	go func() {
		defer s.wg.Done()
		s.bot.Report.Run(ctx, s.bot.GetConfig().ReportInterval, func() string {
			return s.bot.GetConfig().LogChannelID
		})
	}()
}

// Stop terminates all scheduled tasks gracefully.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		log.Info().Msg("stopping scheduler")
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		log.Info().Msg("scheduler stopped")
	})
}
