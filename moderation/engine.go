package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"group-moderator/metrics"
	"group-moderator/model"
	"group-moderator/utils"
	"group-moderator/utils/database/sanctions"

	"github.com/rs/zerolog/log"
)

// Store is the durable state the engine reads and writes.
type Store interface {
	HandleByAccountID(ctx context.Context, accountID int64) (string, error)
	SetMute(ctx context.Context, accountID int64, handle string, until int64, reason string) error
	ClearMute(ctx context.Context, accountID int64) (bool, error)
	PutBan(ctx context.Context, ban model.Ban) error
	DeleteBan(ctx context.Context, accountID int64) (bool, error)
	ListBans(ctx context.Context, offset, limit int) ([]model.Ban, int, error)
	Warnings(ctx context.Context, accountID int64) (model.WarningLedger, error)
	AddWarning(ctx context.Context, accountID int64, expiry int64) (int, error)
	EscalateWarnings(ctx context.Context, ban model.Ban) error
	DecrementWarnings(ctx context.Context, accountID int64) (int, error)
	ResetWarnings(ctx context.Context, accountID int64) error
}

// Resolver maps a handle to an account id.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (int64, error)
}

// Engine applies bans, mutes and warnings on the platform and keeps the store in sync.
// Operations never return raw errors: failures are *OpError values whose text can be
// shown to the administrator.
type Engine struct {
	platform model.Platform
	store    Store
	resolver Resolver
	locks    *utils.TargetLocks
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLocks shares the per-target locks with other writers such as the expiry sweeper.
func WithLocks(locks *utils.TargetLocks) Option {
	return func(e *Engine) {
		if locks != nil {
			e.locks = locks
		}
	}
}

// NewEngine creates a sanction engine.
func NewEngine(platform model.Platform, store Store, resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		platform: platform,
		store:    store,
		resolver: resolver,
		locks:    utils.NewTargetLocks(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// expiry returns the absolute end of a sanction lasting d, or zero when unbounded.
func (e *Engine) expiry(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return e.now().Add(d).Truncate(time.Second)
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func (e *Engine) checkChat(ctx context.Context, op string) error {
	chatType, err := e.platform.ChatType(ctx)
	if err != nil {
		return e.fail(op, Target{}, operationFailed(op, err))
	}
	if !chatType.Moderatable() {
		msg := fmt.Sprintf("Error: sanctions are only available in supergroups and channels. Chat type: %s.", chatType)
		return e.fail(op, Target{}, &OpError{Op: op, Kind: ErrWrongChatType, Message: msg})
	}
	return nil
}

func (e *Engine) resolve(ctx context.Context, op string, target Target) (account, error) {
	if target.IsHandle() {
		id, err := e.resolver.Resolve(ctx, target.Handle)
		if errors.Is(err, ErrTargetNotFound) {
			return account{}, e.fail(op, target, targetNotFound(op, target, err))
		}
		if err != nil {
			return account{}, e.fail(op, target, operationFailed(op, err))
		}
		return account{ID: id, Handle: target.Handle}, nil
	}

	if target.AccountID <= 0 {
		return account{}, e.fail(op, target, targetNotFound(op, target, ErrInvalidTarget))
	}
	handle, err := e.store.HandleByAccountID(ctx, target.AccountID)
	if err != nil && !errors.Is(err, sanctions.ErrNotFound) {
		return account{}, e.fail(op, target, operationFailed(op, err))
	}
	return account{ID: target.AccountID, Handle: handle}, nil
}

// prepare runs the checks shared by every operation and locks the target.
func (e *Engine) prepare(ctx context.Context, op string, target Target) (account, func(), error) {
	if err := e.checkChat(ctx, op); err != nil {
		return account{}, nil, err
	}
	acct, err := e.resolve(ctx, op, target)
	if err != nil {
		return account{}, nil, err
	}
	return acct, e.locks.Lock(acct.ID), nil
}

func (e *Engine) fail(op string, target Target, opErr *OpError) *OpError {
	metrics.SanctionErrorsTotal.WithLabelValues(op, kindLabel(opErr.Kind)).Inc()
	event := log.Warn()
	if errors.Is(opErr.Kind, ErrOperationFailed) {
		event = log.Error()
	}
	event.Err(opErr.Err).Str("op", op).Str("target", target.String()).Str("kind", kindLabel(opErr.Kind)).Msg("sanction operation failed")
	return opErr
}

func (e *Engine) succeed(op string, acct account, summary string) (string, error) {
	metrics.SanctionsTotal.WithLabelValues(op).Inc()
	log.Info().Str("op", op).Int64("account_id", acct.ID).Str("handle", acct.Handle).Msg("sanction operation applied")
	return summary, nil
}

// notify tells the group and the member. Both deliveries are best-effort.
func (e *Engine) notify(ctx context.Context, accountID int64, chat, direct string) {
	if err := e.platform.SendMessage(ctx, model.GroupChat, chat); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("group").Inc()
		log.Warn().Err(err).Int64("account_id", accountID).Msg("failed to notify the group")
	}
	if err := e.platform.SendMessage(ctx, model.DirectTo(accountID), direct); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("direct").Inc()
		log.Warn().Err(err).Int64("account_id", accountID).Msg("failed to send private message")
	}
}

func orDefault(reason string) string {
	if reason == "" {
		return DefaultReason
	}
	return reason
}

// Ban bans the target for d (0 = permanently) and records it in the blacklist.
func (e *Engine) Ban(ctx context.Context, target Target, d time.Duration, reason string) (string, error) {
	const op = "ban"
	acct, unlock, err := e.prepare(ctx, op, target)
	if err != nil {
		return "", err
	}
	defer unlock()

	until := e.expiry(d)
	if err := e.applyBan(ctx, acct, until, orDefault(reason)); err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}

	chat, direct, summary := banMessages(target.String(), d, reason)
	e.notify(ctx, acct.ID, chat, direct)
	return e.succeed(op, acct, summary)
}

func (e *Engine) applyBan(ctx context.Context, acct account, until time.Time, reason string) error {
	if err := e.platform.Ban(ctx, acct.ID, until, reason); err != nil {
		return err
	}
	return e.store.PutBan(ctx, model.Ban{
		AccountID: acct.ID,
		Handle:    acct.Handle,
		Until:     unix(until),
		Reason:    reason,
	})
}

// Unban lifts the ban of the target and removes it from the blacklist. A member banned
// for reaching the warning limit also gets a clean warning ledger.
func (e *Engine) Unban(ctx context.Context, target Target) (string, error) {
	const op = "unban"
	acct, unlock, err := e.prepare(ctx, op, target)
	if err != nil {
		return "", err
	}
	defer unlock()

	if err := e.platform.Unban(ctx, acct.ID); err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}
	if _, err := e.store.DeleteBan(ctx, acct.ID); err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}
	ledger, err := e.store.Warnings(ctx, acct.ID)
	if err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}
	if ledger.Count >= model.MaxWarnings {
		if err := e.store.ResetWarnings(ctx, acct.ID); err != nil {
			return "", e.fail(op, target, operationFailed(op, err))
		}
	}

	chat, direct, summary := unbanMessages(target.String())
	e.notify(ctx, acct.ID, chat, direct)
	return e.succeed(op, acct, summary)
}

// Mute removes the send permissions of the target for d (0 = until unmuted).
func (e *Engine) Mute(ctx context.Context, target Target, d time.Duration, reason string) (string, error) {
	const op = "mute"
	acct, unlock, err := e.prepare(ctx, op, target)
	if err != nil {
		return "", err
	}
	defer unlock()

	until := e.expiry(d)
	if err := e.platform.Restrict(ctx, acct.ID, model.NoPermissions, until); err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}
	if err := e.store.SetMute(ctx, acct.ID, acct.Handle, unix(until), orDefault(reason)); err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}

	chat, direct, summary := muteMessages(target.String(), d, reason)
	e.notify(ctx, acct.ID, chat, direct)
	return e.succeed(op, acct, summary)
}

// Unmute restores the send permissions of the target.
func (e *Engine) Unmute(ctx context.Context, target Target) (string, error) {
	const op = "unmute"
	acct, unlock, err := e.prepare(ctx, op, target)
	if err != nil {
		return "", err
	}
	defer unlock()

	if err := e.platform.Restrict(ctx, acct.ID, model.FullPermissions, time.Time{}); err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}
	if _, err := e.store.ClearMute(ctx, acct.ID); err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}

	chat, direct, summary := unmuteMessages(target.String())
	e.notify(ctx, acct.ID, chat, direct)
	return e.succeed(op, acct, summary)
}

// Warn adds a warning that expires after d (0 = never). The warning that brings the
// count to model.MaxWarnings bans the target permanently instead.
func (e *Engine) Warn(ctx context.Context, target Target, d time.Duration, reason string) (string, error) {
	const op = "warn"
	acct, unlock, err := e.prepare(ctx, op, target)
	if err != nil {
		return "", err
	}
	defer unlock()

	ledger, err := e.store.Warnings(ctx, acct.ID)
	if err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}
	if ledger.Count+1 >= model.MaxWarnings {
		if err := e.escalate(ctx, acct); err != nil {
			return "", e.fail(op, target, operationFailed(op, err))
		}
		metrics.EscalationsTotal.Inc()

		chat, direct, summary := escalationMessages(target.String())
		e.notify(ctx, acct.ID, chat, direct)
		return e.succeed(op, acct, summary)
	}

	count, err := e.store.AddWarning(ctx, acct.ID, unix(e.expiry(d)))
	if err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}

	chat, direct, summary := warnMessages(target.String(), d, reason, count)
	e.notify(ctx, acct.ID, chat, direct)
	return e.succeed(op, acct, summary)
}

// escalate bans the target permanently for reaching the warning limit. The ledger only
// changes once the platform ban is in place, and a failed write lifts the ban again.
func (e *Engine) escalate(ctx context.Context, acct account) error {
	if err := e.platform.Ban(ctx, acct.ID, time.Time{}, EscalationReason); err != nil {
		return err
	}
	err := e.store.EscalateWarnings(ctx, model.Ban{
		AccountID: acct.ID,
		Handle:    acct.Handle,
		Reason:    EscalationReason,
	})
	if err != nil {
		if unbanErr := e.platform.Unban(ctx, acct.ID); unbanErr != nil {
			log.Error().Err(unbanErr).Int64("account_id", acct.ID).Msg("failed to revert escalation ban")
		}
		return err
	}
	return nil
}

// Unwarn removes the most recent warning slot of the target.
func (e *Engine) Unwarn(ctx context.Context, target Target) (string, error) {
	const op = "unwarn"
	acct, unlock, err := e.prepare(ctx, op, target)
	if err != nil {
		return "", err
	}
	defer unlock()

	previous, err := e.store.DecrementWarnings(ctx, acct.ID)
	if errors.Is(err, sanctions.ErrNoWarnings) {
		msg := fmt.Sprintf("User %s has no warnings to remove.", target)
		return "", e.fail(op, target, &OpError{Op: op, Kind: ErrInvalidState, Message: msg, Err: err})
	}
	if err != nil {
		return "", e.fail(op, target, operationFailed(op, err))
	}

	chat, direct, summary := unwarnMessages(target.String(), previous-1)
	e.notify(ctx, acct.ID, chat, direct)
	return e.succeed(op, acct, summary)
}

// Warnings returns the warning ledger of the target.
func (e *Engine) Warnings(ctx context.Context, target Target) (model.WarningLedger, error) {
	const op = "warnings"
	acct, err := e.resolve(ctx, op, target)
	if err != nil {
		return model.WarningLedger{}, err
	}
	ledger, err := e.store.Warnings(ctx, acct.ID)
	if err != nil {
		return model.WarningLedger{}, e.fail(op, target, operationFailed(op, err))
	}
	return ledger, nil
}

// Blacklist returns page (0-based) of the ban records and the total number of pages.
func (e *Engine) Blacklist(ctx context.Context, page, pageSize int) ([]model.Ban, int, error) {
	const op = "blacklist"
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	bans, total, err := e.store.ListBans(ctx, page*pageSize, pageSize)
	if err != nil {
		return nil, 0, e.fail(op, Target{}, operationFailed(op, err))
	}
	pages := (total + pageSize - 1) / pageSize
	return bans, pages, nil
}
