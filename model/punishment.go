package model

// MaxWarnings is the number of active warnings that escalates to a permanent ban.
const MaxWarnings = 3

// Member is a tracked group member. MuteUntil == 0 means not muted.
// The table is named 'members'.
type Member struct {
	AccountID  int64  `db:"account_id"` // Primary Key
	Handle     string `db:"handle"`     // without the leading '@'; empty when never observed
	MuteUntil  int64  `db:"mute_until"` // unix seconds
	MuteReason string `db:"mute_reason"`
}

// Muted reports whether the member carries a mute record.
func (m Member) Muted() bool {
	return m.MuteUntil != 0 || m.MuteReason != ""
}

// Ban is a blacklist entry. Until == 0 means permanent.
// The table is named 'bans'.
type Ban struct {
	AccountID int64  `db:"account_id"` // Primary Key
	Handle    string `db:"handle"`
	Until     int64  `db:"until"` // unix seconds
	Reason    string `db:"reason"`
}

// Permanent reports whether the ban never expires.
func (b Ban) Permanent() bool {
	return b.Until == 0
}

// WarningLedger holds the active warning count of a member and one expiry per slot.
// Warning N stores its expiry in slot N. A zero expiry never expires.
// The table is named 'warnings'.
type WarningLedger struct {
	AccountID   int64 `db:"account_id"` // Primary Key
	Count       int   `db:"count"`
	Slot1Expiry int64 `db:"slot_1_expiry"`
	Slot2Expiry int64 `db:"slot_2_expiry"`
	Slot3Expiry int64 `db:"slot_3_expiry"`
}

// Slots returns the three slot expiries in slot order.
func (w WarningLedger) Slots() [MaxWarnings]int64 {
	return [MaxWarnings]int64{w.Slot1Expiry, w.Slot2Expiry, w.Slot3Expiry}
}

// SetSlots replaces the three slot expiries.
func (w *WarningLedger) SetSlots(slots [MaxWarnings]int64) {
	w.Slot1Expiry, w.Slot2Expiry, w.Slot3Expiry = slots[0], slots[1], slots[2]
}

// WarningExpiry describes the warnings of one member that expired during a sweep.
type WarningExpiry struct {
	AccountID int64
	Handle    string
	Expired   int
	Remaining int
}
