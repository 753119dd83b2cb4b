package moderation

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidTarget is returned by ParseTarget for input that is neither an id nor a handle.
var ErrInvalidTarget = errors.New("invalid format: enter a numeric ID or @handle")

// Target names the member a sanction applies to, either by account id or by handle.
type Target struct {
	AccountID int64
	Handle    string
}

// ByID targets an account id.
func ByID(accountID int64) Target {
	return Target{AccountID: accountID}
}

// ByHandle targets a handle, with or without the leading '@'.
func ByHandle(handle string) Target {
	return Target{Handle: strings.TrimPrefix(strings.TrimSpace(handle), "@")}
}

// ParseTarget reads "12345" as an account id and "@name" as a handle.
func ParseTarget(input string) (Target, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "@") && len(input) > 1 && !strings.ContainsAny(input, " \t\n") {
		return ByHandle(input), nil
	}
	// Discord mentions look like <@123> or <@!123>.
	if strings.HasPrefix(input, "<@") && strings.HasSuffix(input, ">") {
		input = strings.TrimPrefix(strings.TrimSuffix(input[2:], ">"), "!")
	}
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil || id <= 0 {
		return Target{}, ErrInvalidTarget
	}
	return ByID(id), nil
}

// IsHandle reports whether the target is addressed by handle.
func (t Target) IsHandle() bool {
	return t.Handle != ""
}

func (t Target) String() string {
	if t.IsHandle() {
		return "@" + t.Handle
	}
	return strconv.FormatInt(t.AccountID, 10)
}

// account is a resolved target.
type account struct {
	ID     int64
	Handle string
}

func (a account) display() string {
	if a.Handle != "" {
		return "@" + a.Handle
	}
	return strconv.FormatInt(a.ID, 10)
}
