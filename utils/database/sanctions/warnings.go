package sanctions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"group-moderator/model"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNoWarnings is returned when a warning is removed from a member that has none.
	ErrNoWarnings = errors.New("member has no warnings")
	// ErrWarningLimit is returned by AddWarning when the next warning must escalate.
	ErrWarningLimit = errors.New("warning limit reached")
)

// Warnings returns the ledger of an account. An account without a ledger has a zero one.
func (s *Store) Warnings(ctx context.Context, accountID int64) (model.WarningLedger, error) {
	return getLedger(ctx, s.db, accountID)
}

type queryerContext interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func getLedger(ctx context.Context, q queryerContext, accountID int64) (model.WarningLedger, error) {
	var ledger model.WarningLedger
	err := q.GetContext(ctx, &ledger, "SELECT * FROM warnings WHERE account_id = ?", accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WarningLedger{AccountID: accountID}, nil
	}
	if err != nil {
		return model.WarningLedger{}, fmt.Errorf("failed to get warnings of %d: %w", accountID, err)
	}
	return ledger, nil
}

func putLedger(ctx context.Context, tx *sqlx.Tx, ledger model.WarningLedger) error {
	query := `INSERT INTO warnings (account_id, count, slot_1_expiry, slot_2_expiry, slot_3_expiry)
	          VALUES (:account_id, :count, :slot_1_expiry, :slot_2_expiry, :slot_3_expiry)
	          ON CONFLICT(account_id) DO UPDATE SET count = excluded.count,
	              slot_1_expiry = excluded.slot_1_expiry,
	              slot_2_expiry = excluded.slot_2_expiry,
	              slot_3_expiry = excluded.slot_3_expiry`
	if _, err := tx.NamedExecContext(ctx, query, ledger); err != nil {
		return fmt.Errorf("failed to put warnings of %d: %w", ledger.AccountID, err)
	}
	return nil
}

// updateLedger runs fn on the ledger of an account inside one transaction and stores the result.
func (s *Store) updateLedger(ctx context.Context, accountID int64, fn func(*model.WarningLedger) error) (model.WarningLedger, error) {
	s.warningsMu.Lock()
	defer s.warningsMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.WarningLedger{}, fmt.Errorf("failed to begin warnings update: %w", err)
	}
	defer tx.Rollback()

	ledger, err := getLedger(ctx, tx, accountID)
	if err != nil {
		return model.WarningLedger{}, err
	}
	if err := fn(&ledger); err != nil {
		return model.WarningLedger{}, err
	}
	if err := putLedger(ctx, tx, ledger); err != nil {
		return model.WarningLedger{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.WarningLedger{}, fmt.Errorf("failed to commit warnings of %d: %w", accountID, err)
	}
	return ledger, nil
}

// AddWarning adds one warning that expires at expiry (0 = never) and returns the new
// count. The count and its slot are written in one transaction. The last slot is kept
// for EscalateWarnings, so a ledger one warning below the limit returns ErrWarningLimit.
func (s *Store) AddWarning(ctx context.Context, accountID int64, expiry int64) (int, error) {
	ledger, err := s.updateLedger(ctx, accountID, func(l *model.WarningLedger) error {
		if l.Count >= model.MaxWarnings-1 {
			return ErrWarningLimit
		}
		l.Count++
		slots := l.Slots()
		slots[l.Count-1] = expiry
		l.SetSlots(slots)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return ledger.Count, nil
}

// EscalateWarnings records the ban that ends a full ledger. The ledger is set to the
// limit with no expiring slots and the ban is written in the same transaction.
func (s *Store) EscalateWarnings(ctx context.Context, ban model.Ban) error {
	s.bansMu.Lock()
	defer s.bansMu.Unlock()
	s.warningsMu.Lock()
	defer s.warningsMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin escalation of %d: %w", ban.AccountID, err)
	}
	defer tx.Rollback()

	if err := putLedger(ctx, tx, model.WarningLedger{AccountID: ban.AccountID, Count: model.MaxWarnings}); err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, putBanQuery, ban); err != nil {
		return fmt.Errorf("failed to put ban for %d: %w", ban.AccountID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit escalation of %d: %w", ban.AccountID, err)
	}
	return nil
}

// DecrementWarnings removes one warning and clears the slot it occupied. It returns the
// count before the removal, or ErrNoWarnings when the count is already zero.
func (s *Store) DecrementWarnings(ctx context.Context, accountID int64) (int, error) {
	var previous int
	_, err := s.updateLedger(ctx, accountID, func(l *model.WarningLedger) error {
		if l.Count <= 0 {
			return ErrNoWarnings
		}
		previous = l.Count
		slots := l.Slots()
		slots[previous-1] = 0
		l.SetSlots(slots)
		l.Count--
		return nil
	})
	if err != nil {
		return 0, err
	}
	return previous, nil
}

// ResetWarnings zeroes the ledger of an account.
func (s *Store) ResetWarnings(ctx context.Context, accountID int64) error {
	_, err := s.updateLedger(ctx, accountID, func(l *model.WarningLedger) error {
		*l = model.WarningLedger{AccountID: accountID}
		return nil
	})
	return err
}

// AccountsWithExpiredWarnings lists the accounts holding a slot that expired before now.
func (s *Store) AccountsWithExpiredWarnings(ctx context.Context, now int64) ([]int64, error) {
	var ids []int64
	query := `SELECT account_id FROM warnings
	          WHERE (slot_1_expiry > 0 AND slot_1_expiry < ?)
	             OR (slot_2_expiry > 0 AND slot_2_expiry < ?)
	             OR (slot_3_expiry > 0 AND slot_3_expiry < ?)
	          ORDER BY account_id`
	if err := s.db.SelectContext(ctx, &ids, query, now, now, now); err != nil {
		return nil, fmt.Errorf("failed to get expired warnings: %w", err)
	}
	return ids, nil
}

// ExpireWarnings zeroes the slots of an account whose expiry lies before now and lowers
// the count by their number, in one transaction. Expired is 0 when nothing was due.
func (s *Store) ExpireWarnings(ctx context.Context, accountID int64, now int64) (model.WarningExpiry, error) {
	s.warningsMu.Lock()
	defer s.warningsMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.WarningExpiry{}, fmt.Errorf("failed to begin warning expiry of %d: %w", accountID, err)
	}
	defer tx.Rollback()

	ledger, err := getLedger(ctx, tx, accountID)
	if err != nil {
		return model.WarningExpiry{}, err
	}
	result := model.WarningExpiry{AccountID: accountID, Remaining: ledger.Count}
	expired := ExpireSlots(&ledger, now)
	if expired == 0 {
		return result, nil
	}
	if err := putLedger(ctx, tx, ledger); err != nil {
		return model.WarningExpiry{}, err
	}

	var handle string
	if err := tx.GetContext(ctx, &handle, "SELECT handle FROM members WHERE account_id = ?", accountID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.WarningExpiry{}, fmt.Errorf("failed to get handle of %d: %w", accountID, err)
	}
	if err := tx.Commit(); err != nil {
		return model.WarningExpiry{}, fmt.Errorf("failed to commit warning expiry of %d: %w", accountID, err)
	}
	result.Handle = handle
	result.Expired = expired
	result.Remaining = ledger.Count
	return result, nil
}

// ExpireSlots zeroes the slots of ledger that expired before now, lowers the count by
// their number with a floor of zero, and returns how many expired.
func ExpireSlots(ledger *model.WarningLedger, now int64) int {
	slots := ledger.Slots()
	expired := 0
	for i, expiry := range slots {
		if expiry > 0 && expiry < now {
			slots[i] = 0
			expired++
		}
	}
	ledger.SetSlots(slots)
	ledger.Count -= expired
	if ledger.Count < 0 {
		ledger.Count = 0
	}
	return expired
}

// CountWarned returns the number of members with at least one warning.
func (s *Store) CountWarned(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM warnings WHERE count > 0"); err != nil {
		return 0, fmt.Errorf("failed to count warned members: %w", err)
	}
	return count, nil
}
