package sanctions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"group-moderator/model"
)

// NormalizeHandle strips the leading '@' and surrounding spaces.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// TrackMember records that handle currently belongs to accountID. A handle that moved
// to a new account is released from the old one.
func (s *Store) TrackMember(ctx context.Context, accountID int64, handle string) error {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return nil
	}

	s.membersMu.Lock()
	defer s.membersMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin member tracking: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE members SET handle = '' WHERE handle = ? COLLATE NOCASE AND account_id != ?`, handle, accountID); err != nil {
		return fmt.Errorf("failed to release handle @%s: %w", handle, err)
	}
	query := `INSERT INTO members (account_id, handle) VALUES (?, ?)
	          ON CONFLICT(account_id) DO UPDATE SET handle = excluded.handle`
	if _, err := tx.ExecContext(ctx, query, accountID, handle); err != nil {
		return fmt.Errorf("failed to track member %d: %w", accountID, err)
	}
	return tx.Commit()
}

// GetMember retrieves a member by account id.
func (s *Store) GetMember(ctx context.Context, accountID int64) (model.Member, error) {
	var member model.Member
	err := s.db.GetContext(ctx, &member, "SELECT * FROM members WHERE account_id = ?", accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, fmt.Errorf("member %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return model.Member{}, fmt.Errorf("failed to get member %d: %w", accountID, err)
	}
	return member, nil
}

// AccountIDByHandle resolves a handle to the account that last used it.
func (s *Store) AccountIDByHandle(ctx context.Context, handle string) (int64, error) {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return 0, fmt.Errorf("empty handle: %w", ErrNotFound)
	}
	var accountID int64
	err := s.db.GetContext(ctx, &accountID, "SELECT account_id FROM members WHERE handle = ? COLLATE NOCASE LIMIT 1", handle)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("handle @%s: %w", handle, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve handle @%s: %w", handle, err)
	}
	return accountID, nil
}

// HandleByAccountID returns the known handle of an account.
func (s *Store) HandleByAccountID(ctx context.Context, accountID int64) (string, error) {
	member, err := s.GetMember(ctx, accountID)
	if err != nil {
		return "", err
	}
	if member.Handle == "" {
		return "", fmt.Errorf("handle of %d: %w", accountID, ErrNotFound)
	}
	return member.Handle, nil
}

// SetMute creates or updates the mute fields of a member. A non-empty handle is
// recorded as well and released from any other account.
func (s *Store) SetMute(ctx context.Context, accountID int64, handle string, until int64, reason string) error {
	handle = NormalizeHandle(handle)

	s.membersMu.Lock()
	defer s.membersMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin mute of member %d: %w", accountID, err)
	}
	defer tx.Rollback()

	if handle != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE members SET handle = '' WHERE handle = ? COLLATE NOCASE AND account_id != ?`, handle, accountID); err != nil {
			return fmt.Errorf("failed to release handle @%s: %w", handle, err)
		}
	}
	query := `INSERT INTO members (account_id, handle, mute_until, mute_reason) VALUES (?, ?, ?, ?)
	          ON CONFLICT(account_id) DO UPDATE SET
	              handle = CASE WHEN excluded.handle != '' THEN excluded.handle ELSE members.handle END,
	              mute_until = excluded.mute_until, mute_reason = excluded.mute_reason`
	if _, err := tx.ExecContext(ctx, query, accountID, handle, until, reason); err != nil {
		return fmt.Errorf("failed to set mute for member %d: %w", accountID, err)
	}
	return tx.Commit()
}

// ClearMute resets the mute fields of a member. It reports whether the member exists.
func (s *Store) ClearMute(ctx context.Context, accountID int64) (bool, error) {
	s.membersMu.Lock()
	defer s.membersMu.Unlock()

	result, err := s.db.ExecContext(ctx, "UPDATE members SET mute_until = 0, mute_reason = '' WHERE account_id = ?", accountID)
	if err != nil {
		return false, fmt.Errorf("failed to clear mute for member %d: %w", accountID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for member %d: %w", accountID, err)
	}
	return rowsAffected > 0, nil
}

// ExpiredMutes lists members whose timed mute ended before now.
func (s *Store) ExpiredMutes(ctx context.Context, now int64) ([]model.Member, error) {
	var members []model.Member
	query := "SELECT * FROM members WHERE mute_until > 0 AND mute_until < ? ORDER BY account_id"
	if err := s.db.SelectContext(ctx, &members, query, now); err != nil {
		return nil, fmt.Errorf("failed to get expired mutes: %w", err)
	}
	return members, nil
}

// ClearExpiredMutes clears, in one transaction, the mutes of the given accounts that are
// still expired at now. Mutes renewed in the meantime are left alone. It returns the
// accounts that were cleared.
func (s *Store) ClearExpiredMutes(ctx context.Context, accountIDs []int64, now int64) ([]int64, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	s.membersMu.Lock()
	defer s.membersMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin mute sweep: %w", err)
	}
	defer tx.Rollback()

	var cleared []int64
	for _, id := range accountIDs {
		result, err := tx.ExecContext(ctx, `UPDATE members SET mute_until = 0, mute_reason = ''
		                                    WHERE account_id = ? AND mute_until > 0 AND mute_until < ?`, id, now)
		if err != nil {
			return nil, fmt.Errorf("failed to clear expired mute for member %d: %w", id, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			cleared = append(cleared, id)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit mute sweep: %w", err)
	}
	return cleared, nil
}

// CountMuted returns the number of members carrying a mute.
func (s *Store) CountMuted(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM members WHERE mute_until != 0 OR mute_reason != ''"); err != nil {
		return 0, fmt.Errorf("failed to count muted members: %w", err)
	}
	return count, nil
}
