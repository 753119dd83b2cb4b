package sanctions

import (
	"context"
	"path/filepath"
	"testing"

	"group-moderator/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.PutBan(context.Background(), model.Ban{AccountID: 1, Handle: "alice", Reason: "spam"}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	ban, err := store.GetBan(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "spam", ban.Reason)
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	t.Run("track and resolve", func(t *testing.T) {
		require.NoError(t, store.TrackMember(ctx, 100, "@Alice"))

		id, err := store.AccountIDByHandle(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(100), id)

		handle, err := store.HandleByAccountID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "Alice", handle)
	})

	t.Run("unknown handle", func(t *testing.T) {
		_, err := store.AccountIDByHandle(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.AccountIDByHandle(ctx, "@")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("handle moves to another account", func(t *testing.T) {
		require.NoError(t, store.TrackMember(ctx, 200, "bob"))
		require.NoError(t, store.TrackMember(ctx, 201, "bob"))

		id, err := store.AccountIDByHandle(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(201), id)

		_, err = store.HandleByAccountID(ctx, 200)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("tracking keeps mute state", func(t *testing.T) {
		require.NoError(t, store.SetMute(ctx, 300, "carol", 5000, "flood"))
		require.NoError(t, store.TrackMember(ctx, 300, "carol2"))

		member, err := store.GetMember(ctx, 300)
		require.NoError(t, err)
		assert.Equal(t, "carol2", member.Handle)
		assert.Equal(t, int64(5000), member.MuteUntil)
		assert.Equal(t, "flood", member.MuteReason)
	})

	t.Run("mute takes over a tracked handle", func(t *testing.T) {
		require.NoError(t, store.TrackMember(ctx, 400, "dave"))
		require.NoError(t, store.SetMute(ctx, 401, "@Dave", 0, "spam"))

		id, err := store.AccountIDByHandle(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, int64(401), id)

		_, err = store.HandleByAccountID(ctx, 400)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mute without handle keeps the known one", func(t *testing.T) {
		require.NoError(t, store.TrackMember(ctx, 500, "erin"))
		require.NoError(t, store.SetMute(ctx, 500, "", 0, "spam"))

		handle, err := store.HandleByAccountID(ctx, 500)
		require.NoError(t, err)
		assert.Equal(t, "erin", handle)
	})

	t.Run("handles are unique regardless of case", func(t *testing.T) {
		require.NoError(t, store.TrackMember(ctx, 600, "frank"))
		_, err := store.db.ExecContext(ctx, "INSERT INTO members (account_id, handle) VALUES (601, 'FRANK')")
		assert.Error(t, err)

		_, err = store.db.ExecContext(ctx, "INSERT INTO members (account_id, handle) VALUES (602, ''), (603, '')")
		assert.NoError(t, err)
	})

	t.Run("absent member is distinct from zero member", func(t *testing.T) {
		_, err := store.GetMember(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)

		existed, err := store.ClearMute(ctx, 999)
		require.NoError(t, err)
		assert.False(t, existed)
	})
}

func TestOpen_ReleasesDuplicateHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.db.Exec("DROP INDEX idx_members_handle_unique")
	require.NoError(t, err)
	_, err = store.db.Exec("INSERT INTO members (account_id, handle) VALUES (1, 'gina'), (2, 'Gina')")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	id, err := store.AccountIDByHandle(context.Background(), "gina")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	_, err = store.HandleByAccountID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMuteExpiry(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.SetMute(ctx, 1, "expired", 99, "r"))
	require.NoError(t, store.SetMute(ctx, 2, "future", 200, "r"))
	require.NoError(t, store.SetMute(ctx, 3, "forever", 0, "r"))

	expired, err := store.ExpiredMutes(ctx, 100)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(1), expired[0].AccountID)

	// Account 2 is not expired at 100 and must survive even if asked for.
	cleared, err := store.ClearExpiredMutes(ctx, []int64{1, 2}, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, cleared)

	member, err := store.GetMember(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), member.MuteUntil)
	assert.Equal(t, "", member.MuteReason)

	member, err = store.GetMember(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(200), member.MuteUntil)

	count, err := store.CountMuted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBans(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.PutBan(ctx, model.Ban{AccountID: 1, Handle: "zed", Until: 50, Reason: "a"}))
	require.NoError(t, store.PutBan(ctx, model.Ban{AccountID: 2, Handle: "amy", Until: 0, Reason: "b"}))
	require.NoError(t, store.PutBan(ctx, model.Ban{AccountID: 3, Handle: "max", Until: 500, Reason: "c"}))

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.PutBan(ctx, model.Ban{AccountID: 3, Handle: "max", Until: 600, Reason: "d"}))
		ban, err := store.GetBan(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(600), ban.Until)
		assert.Equal(t, "d", ban.Reason)
	})

	t.Run("list pages", func(t *testing.T) {
		page, total, err := store.ListBans(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		assert.Equal(t, "amy", page[0].Handle)
		assert.Equal(t, "max", page[1].Handle)

		page, _, err = store.ListBans(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "zed", page[0].Handle)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := store.ExpiredBans(ctx, 100)
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, int64(1), expired[0].AccountID)

		removed, err := store.DeleteExpiredBans(ctx, []int64{1, 2, 3}, 100)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, removed)

		count, err := store.CountBans(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("delete", func(t *testing.T) {
		existed, err := store.DeleteBan(ctx, 2)
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = store.DeleteBan(ctx, 2)
		require.NoError(t, err)
		assert.False(t, existed)

		_, err = store.GetBan(ctx, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestWarnings(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	t.Run("fresh ledger is zero", func(t *testing.T) {
		ledger, err := store.Warnings(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.WarningLedger{AccountID: 1}, ledger)
	})

	t.Run("add fills slots up to the escalation slot", func(t *testing.T) {
		for want, expiry := range []int64{111, 222} {
			count, err := store.AddWarning(ctx, 1, expiry)
			require.NoError(t, err)
			assert.Equal(t, want+1, count)
		}
		before, err := store.Warnings(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, [3]int64{111, 222, 0}, before.Slots())

		_, err = store.AddWarning(ctx, 1, 333)
		assert.ErrorIs(t, err, ErrWarningLimit)
		after, err := store.Warnings(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("escalation writes ledger and ban together", func(t *testing.T) {
		require.NoError(t, store.EscalateWarnings(ctx, model.Ban{AccountID: 1, Handle: "alice", Reason: "3 rule violations"}))

		ledger, err := store.Warnings(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.MaxWarnings, ledger.Count)
		assert.Equal(t, [3]int64{}, ledger.Slots())

		ban, err := store.GetBan(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ban.Permanent())
		assert.Equal(t, "3 rule violations", ban.Reason)
	})

	t.Run("slot expiry and decrement", func(t *testing.T) {
		_, err := store.AddWarning(ctx, 2, 111)
		require.NoError(t, err)
		_, err = store.AddWarning(ctx, 2, 222)
		require.NoError(t, err)

		previous, err := store.DecrementWarnings(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, previous)

		ledger, err := store.Warnings(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, ledger.Count)
		assert.Equal(t, [3]int64{111, 0, 0}, ledger.Slots())
	})

	t.Run("decrement at zero", func(t *testing.T) {
		_, err := store.DecrementWarnings(ctx, 3)
		assert.ErrorIs(t, err, ErrNoWarnings)

		ledger, err := store.Warnings(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, ledger.Count)
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, store.ResetWarnings(ctx, 1))
		ledger, err := store.Warnings(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, ledger.Count)
	})
}

func addWarnings(t *testing.T, store *Store, accountID int64, expiries ...int64) {
	t.Helper()
	for _, expiry := range expiries {
		_, err := store.AddWarning(context.Background(), accountID, expiry)
		require.NoError(t, err)
	}
}

func TestExpireWarnings(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.TrackMember(ctx, 10, "dave"))
	addWarnings(t, store, 10, 50, 500)
	addWarnings(t, store, 11, 0)

	ids, err := store.AccountsWithExpiredWarnings(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ids)

	expiry, err := store.ExpireWarnings(ctx, 10, 100)
	require.NoError(t, err)
	assert.Equal(t, model.WarningExpiry{AccountID: 10, Handle: "dave", Expired: 1, Remaining: 1}, expiry)

	expiry, err = store.ExpireWarnings(ctx, 11, 100)
	require.NoError(t, err)
	assert.Zero(t, expiry.Expired)
	assert.Equal(t, 1, expiry.Remaining)

	ledger, err := store.Warnings(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Count)
	assert.Equal(t, [3]int64{0, 500, 0}, ledger.Slots())

	ledger, err = store.Warnings(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Count)

	count, err := store.CountWarned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestExpireSlots(t *testing.T) {
	ledger := model.WarningLedger{Count: 1, Slot1Expiry: 10, Slot2Expiry: 20, Slot3Expiry: 0}
	expired := ExpireSlots(&ledger, 100)
	assert.Equal(t, 2, expired)
	assert.Equal(t, 0, ledger.Count)
	assert.Equal(t, [3]int64{0, 0, 0}, ledger.Slots())
}
