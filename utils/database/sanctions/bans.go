package sanctions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"group-moderator/model"
)

const putBanQuery = `INSERT INTO bans (account_id, handle, until, reason) VALUES (:account_id, :handle, :until, :reason)
	ON CONFLICT(account_id) DO UPDATE SET handle = excluded.handle, until = excluded.until, reason = excluded.reason`

// PutBan writes or overwrites the ban record of an account.
func (s *Store) PutBan(ctx context.Context, ban model.Ban) error {
	s.bansMu.Lock()
	defer s.bansMu.Unlock()

	if _, err := s.db.NamedExecContext(ctx, putBanQuery, ban); err != nil {
		return fmt.Errorf("failed to put ban for %d: %w", ban.AccountID, err)
	}
	return nil
}

// GetBan retrieves the ban record of an account.
func (s *Store) GetBan(ctx context.Context, accountID int64) (model.Ban, error) {
	var ban model.Ban
	err := s.db.GetContext(ctx, &ban, "SELECT * FROM bans WHERE account_id = ?", accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ban{}, fmt.Errorf("ban of %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return model.Ban{}, fmt.Errorf("failed to get ban of %d: %w", accountID, err)
	}
	return ban, nil
}

// DeleteBan removes the ban record of an account. It reports whether a record existed.
func (s *Store) DeleteBan(ctx context.Context, accountID int64) (bool, error) {
	s.bansMu.Lock()
	defer s.bansMu.Unlock()

	result, err := s.db.ExecContext(ctx, "DELETE FROM bans WHERE account_id = ?", accountID)
	if err != nil {
		return false, fmt.Errorf("failed to delete ban of %d: %w", accountID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for ban of %d: %w", accountID, err)
	}
	return rowsAffected > 0, nil
}

// ListBans returns one page of the blacklist ordered by handle, and the total number of bans.
func (s *Store) ListBans(ctx context.Context, offset, limit int) ([]model.Ban, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM bans"); err != nil {
		return nil, 0, fmt.Errorf("failed to count bans: %w", err)
	}

	var bans []model.Ban
	query := "SELECT * FROM bans ORDER BY handle COLLATE NOCASE, account_id LIMIT ? OFFSET ?"
	if err := s.db.SelectContext(ctx, &bans, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list bans: %w", err)
	}
	return bans, total, nil
}

// ExpiredBans lists timed bans that ended before now.
func (s *Store) ExpiredBans(ctx context.Context, now int64) ([]model.Ban, error) {
	var bans []model.Ban
	query := "SELECT * FROM bans WHERE until > 0 AND until < ? ORDER BY account_id"
	if err := s.db.SelectContext(ctx, &bans, query, now); err != nil {
		return nil, fmt.Errorf("failed to get expired bans: %w", err)
	}
	return bans, nil
}

// DeleteExpiredBans removes, in one transaction, the bans of the given accounts that are
// still expired at now. Bans replaced in the meantime are kept. It returns the accounts
// whose record was removed.
func (s *Store) DeleteExpiredBans(ctx context.Context, accountIDs []int64, now int64) ([]int64, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	s.bansMu.Lock()
	defer s.bansMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ban sweep: %w", err)
	}
	defer tx.Rollback()

	var removed []int64
	for _, id := range accountIDs {
		result, err := tx.ExecContext(ctx, "DELETE FROM bans WHERE account_id = ? AND until > 0 AND until < ?", id, now)
		if err != nil {
			return nil, fmt.Errorf("failed to delete expired ban of %d: %w", id, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			removed = append(removed, id)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ban sweep: %w", err)
	}
	return removed, nil
}

// CountBans returns the number of ban records.
func (s *Store) CountBans(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM bans"); err != nil {
		return 0, fmt.Errorf("failed to count bans: %w", err)
	}
	return count, nil
}
