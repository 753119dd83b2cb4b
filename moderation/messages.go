package moderation

import (
	"fmt"
	"time"

	"group-moderator/model"
	"group-moderator/utils"
)

const (
	// DefaultReason is stored when a sanction is applied without a reason.
	DefaultReason = "unspecified"
	// EscalationReason is the reason of the permanent ban issued on the last warning.
	EscalationReason = "3 rule violations"
	// ForbiddenWordReason is the reason of the automatic ban for forbidden content.
	ForbiddenWordReason = "Forbidden word used"
)

// sanctionText builds the common "<kind> <for 1 h> <for: reason>" fragments.
type sanctionText struct {
	kind   string // "temporarily" or "permanently"
	period string // " for 1 h" or ""
	reason string // " for: spam" or ""
}

func describe(d time.Duration, reason string) sanctionText {
	t := sanctionText{kind: "permanently"}
	if d > 0 {
		t.kind = "temporarily"
		t.period = " for " + utils.FormatDuration(d)
	}
	if reason != "" {
		t.reason = " for: " + reason
	}
	return t
}

func reasonLine(reason string) string {
	if reason == "" {
		return ""
	}
	return "\nReason: " + reason
}

func banMessages(who string, d time.Duration, reason string) (chat, direct, summary string) {
	t := describe(d, reason)
	chat = fmt.Sprintf("User %s has been banned %s%s%s.", who, t.kind, t.period, t.reason)
	direct = fmt.Sprintf("You have been banned %s%s%s.", t.kind, t.period, t.reason)
	summary = fmt.Sprintf("User %s banned %s%s and added to the blacklist.%s", who, t.kind, t.period, reasonLine(reason))
	return chat, direct, summary
}

func unbanMessages(who string) (chat, direct, summary string) {
	return fmt.Sprintf("User %s has been unbanned.", who),
		"You have been unbanned.",
		fmt.Sprintf("User %s unbanned and removed from the blacklist.", who)
}

func muteMessages(who string, d time.Duration, reason string) (chat, direct, summary string) {
	t := describe(d, reason)
	chat = fmt.Sprintf("User %s has been muted %s%s%s.", who, t.kind, t.period, t.reason)
	direct = fmt.Sprintf("You have been muted %s%s%s.", t.kind, t.period, t.reason)
	summary = fmt.Sprintf("User %s muted %s%s.%s", who, t.kind, t.period, reasonLine(reason))
	return chat, direct, summary
}

func unmuteMessages(who string) (chat, direct, summary string) {
	return fmt.Sprintf("User %s is no longer muted.", who),
		"You are no longer muted.",
		fmt.Sprintf("User %s unmuted.", who)
}

func warnMessages(who string, d time.Duration, reason string, count int) (chat, direct, summary string) {
	kind := "a permanent"
	if d > 0 {
		kind = "a temporary"
	}
	t := describe(d, reason)
	remaining := model.MaxWarnings - count
	chat = fmt.Sprintf("User %s received %s warning%s%s.\nWarnings left before a ban: %d.", who, kind, t.period, t.reason, remaining)
	direct = fmt.Sprintf("You received %s warning%s%s.\nWarnings left before a ban: %d.", kind, t.period, t.reason, remaining)
	summary = fmt.Sprintf("User %s received %s warning%s.%s\nWarnings left before a ban: %d.", who, kind, t.period, reasonLine(reason), remaining)
	return chat, direct, summary
}

func escalationMessages(who string) (chat, direct, summary string) {
	return fmt.Sprintf("User %s has been banned permanently for: %s.", who, EscalationReason),
		fmt.Sprintf("You have been banned permanently for: %s.", EscalationReason),
		fmt.Sprintf("User %s banned permanently and added to the blacklist.\nReason: %s.", who, EscalationReason)
}

func unwarnMessages(who string, remaining int) (chat, direct, summary string) {
	return fmt.Sprintf("One warning was removed from %s.", who),
		"One of your warnings was removed.",
		fmt.Sprintf("One warning removed from %s. Active warnings: %d.", who, remaining)
}
