package scanner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"group-moderator/metrics"
	"group-moderator/model"
	"group-moderator/utils"
	"group-moderator/utils/database/sanctions"

	"github.com/rs/zerolog/log"
)

// SweepStore is the part of the sanction store the sweeper reconciles.
type SweepStore interface {
	ExpiredBans(ctx context.Context, now int64) ([]model.Ban, error)
	GetBan(ctx context.Context, accountID int64) (model.Ban, error)
	DeleteExpiredBans(ctx context.Context, accountIDs []int64, now int64) ([]int64, error)
	ExpiredMutes(ctx context.Context, now int64) ([]model.Member, error)
	GetMember(ctx context.Context, accountID int64) (model.Member, error)
	ClearExpiredMutes(ctx context.Context, accountIDs []int64, now int64) ([]int64, error)
	AccountsWithExpiredWarnings(ctx context.Context, now int64) ([]int64, error)
	ExpireWarnings(ctx context.Context, accountID int64, now int64) (model.WarningExpiry, error)
}

// ExpirySweeper periodically lifts bans, mutes and warnings whose time is up.
type ExpirySweeper struct {
	platform model.Platform
	store    SweepStore
	locks    *utils.TargetLocks
	interval time.Duration
	now      func() time.Time
	alert    func(kind string, err error)
}

// NewExpirySweeper creates a sweeper that ticks every interval. Each record is lifted
// while holding its entry in locks, which the sanction engine shares.
func NewExpirySweeper(platform model.Platform, store SweepStore, locks *utils.TargetLocks, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if locks == nil {
		locks = utils.NewTargetLocks()
	}
	return &ExpirySweeper{
		platform: platform,
		store:    store,
		locks:    locks,
		interval: interval,
		now:      time.Now,
	}
}

// OnFailure registers fn to be called when a sweep fails or panics.
func (s *ExpirySweeper) OnFailure(fn func(kind string, err error)) {
	s.alert = fn
}

// Run sweeps once per interval until ctx is cancelled or done is closed.
func (s *ExpirySweeper) Run(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("expiry sweeper started")
	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-done:
			log.Info().Msg("expiry sweeper stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("expiry sweeper stopped")
			return
		}
	}
}

// Tick runs the ban, mute and warning sweeps once. A failing sweep never stops the others.
func (s *ExpirySweeper) Tick(ctx context.Context) {
	start := time.Now()
	now := s.now().Unix()

	s.guard(ctx, "ban", now, s.sweepBans)
	s.guard(ctx, "mute", now, s.sweepMutes)
	s.guard(ctx, "warning", now, s.sweepWarnings)

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
}

func (s *ExpirySweeper) guard(ctx context.Context, kind string, now int64, sweep func(context.Context, int64) error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("kind", kind).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("expiry sweep panicked")
			s.failed(kind, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := sweep(ctx, now); err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("expiry sweep failed")
		s.failed(kind, err)
	}
}

func (s *ExpirySweeper) failed(kind string, err error) {
	metrics.SweepErrorsTotal.WithLabelValues(kind).Inc()
	if s.alert != nil {
		s.alert(kind, err)
	}
}

func (s *ExpirySweeper) sweepBans(ctx context.Context, now int64) error {
	bans, err := s.store.ExpiredBans(ctx, now)
	if err != nil {
		return err
	}

	var lifted int
	for _, candidate := range bans {
		ban, ok, err := s.liftBan(ctx, candidate.AccountID, now)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		lifted++
		s.notify(ctx, ban.AccountID,
			fmt.Sprintf("The ban of %s has expired.", display(ban.AccountID, ban.Handle)),
			"Your ban has expired. You can rejoin the group.")
		log.Info().Int64("account_id", ban.AccountID).Str("handle", ban.Handle).Msg("ban expired")
	}
	metrics.ExpiredTotal.WithLabelValues("ban").Add(float64(lifted))
	return nil
}

// liftBan unbans one account if its ban is still expired once the target is locked.
// A platform failure keeps the record for the next tick.
func (s *ExpirySweeper) liftBan(ctx context.Context, accountID, now int64) (model.Ban, bool, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	ban, err := s.store.GetBan(ctx, accountID)
	if errors.Is(err, sanctions.ErrNotFound) {
		return model.Ban{}, false, nil
	}
	if err != nil {
		return model.Ban{}, false, err
	}
	if ban.Permanent() || ban.Until >= now {
		log.Debug().Int64("account_id", accountID).Msg("ban renewed before expiry, skipping")
		return model.Ban{}, false, nil
	}

	if err := s.platform.Unban(ctx, accountID); err != nil {
		log.Warn().Err(err).Int64("account_id", accountID).Msg("failed to lift expired ban")
		return model.Ban{}, false, nil
	}
	deleted, err := s.store.DeleteExpiredBans(ctx, []int64{accountID}, now)
	if err != nil {
		return model.Ban{}, false, err
	}
	return ban, len(deleted) > 0, nil
}

func (s *ExpirySweeper) sweepMutes(ctx context.Context, now int64) error {
	members, err := s.store.ExpiredMutes(ctx, now)
	if err != nil {
		return err
	}

	var restored int
	for _, candidate := range members {
		member, ok, err := s.liftMute(ctx, candidate.AccountID, now)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		restored++
		s.notify(ctx, member.AccountID,
			fmt.Sprintf("The mute of %s has expired.", display(member.AccountID, member.Handle)),
			"Your mute has expired. You can write in the group again.")
		log.Info().Int64("account_id", member.AccountID).Str("handle", member.Handle).Msg("mute expired")
	}
	metrics.ExpiredTotal.WithLabelValues("mute").Add(float64(restored))
	return nil
}

// liftMute restores the permissions of one account if its mute is still expired once
// the target is locked. A platform failure keeps the mute for the next tick.
func (s *ExpirySweeper) liftMute(ctx context.Context, accountID, now int64) (model.Member, bool, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	member, err := s.store.GetMember(ctx, accountID)
	if errors.Is(err, sanctions.ErrNotFound) {
		return model.Member{}, false, nil
	}
	if err != nil {
		return model.Member{}, false, err
	}
	if member.MuteUntil <= 0 || member.MuteUntil >= now {
		log.Debug().Int64("account_id", accountID).Msg("mute renewed or lifted before expiry, skipping")
		return model.Member{}, false, nil
	}

	if err := s.platform.Restrict(ctx, accountID, model.FullPermissions, time.Time{}); err != nil {
		log.Warn().Err(err).Int64("account_id", accountID).Msg("failed to restore permissions of expired mute")
		return model.Member{}, false, nil
	}
	cleared, err := s.store.ClearExpiredMutes(ctx, []int64{accountID}, now)
	if err != nil {
		return model.Member{}, false, err
	}
	return member, len(cleared) > 0, nil
}

func (s *ExpirySweeper) sweepWarnings(ctx context.Context, now int64) error {
	ids, err := s.store.AccountsWithExpiredWarnings(ctx, now)
	if err != nil {
		return err
	}

	for _, id := range ids {
		unlock := s.locks.Lock(id)
		e, err := s.store.ExpireWarnings(ctx, id, now)
		unlock()
		if err != nil {
			return err
		}
		if e.Expired == 0 {
			continue
		}
		metrics.ExpiredTotal.WithLabelValues("warning").Add(float64(e.Expired))
		s.notify(ctx, e.AccountID,
			fmt.Sprintf("%d warning(s) of %s expired. Active warnings: %d.", e.Expired, display(e.AccountID, e.Handle), e.Remaining),
			fmt.Sprintf("%d of your warnings expired. Active warnings: %d.", e.Expired, e.Remaining))
		log.Info().Int64("account_id", e.AccountID).Int("expired", e.Expired).Int("remaining", e.Remaining).Msg("warnings expired")
	}
	return nil
}

func (s *ExpirySweeper) notify(ctx context.Context, accountID int64, chat, direct string) {
	if err := s.platform.SendMessage(ctx, model.GroupChat, chat); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("group").Inc()
		log.Warn().Err(err).Int64("account_id", accountID).Msg("failed to notify the group")
	}
	if err := s.platform.SendMessage(ctx, model.DirectTo(accountID), direct); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("direct").Inc()
		log.Warn().Err(err).Int64("account_id", accountID).Msg("failed to send private message")
	}
}

func display(accountID int64, handle string) string {
	if handle != "" {
		return "@" + handle
	}
	return fmt.Sprint(accountID)
}
