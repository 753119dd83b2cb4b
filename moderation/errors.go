package moderation

import (
	"errors"
	"fmt"
)

// Error kinds. Every failed operation returns an *OpError wrapping one of them.
var (
	ErrTargetNotFound  = errors.New("target not found")
	ErrWrongChatType   = errors.New("wrong chat type")
	ErrInvalidState    = errors.New("invalid state")
	ErrOperationFailed = errors.New("operation failed")
)

// OpError is the result of a failed sanction operation. Its Error text is meant to be
// shown to the administrator as-is.
type OpError struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *OpError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is and errors.As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func kindLabel(kind error) string {
	switch {
	case errors.Is(kind, ErrTargetNotFound):
		return "target_not_found"
	case errors.Is(kind, ErrWrongChatType):
		return "wrong_chat_type"
	case errors.Is(kind, ErrInvalidState):
		return "invalid_state"
	default:
		return "operation_failed"
	}
}

func targetNotFound(op string, target Target, cause error) *OpError {
	msg := fmt.Sprintf("User %s was not found. They may not have written in the group yet. Try their numeric ID instead.", target)
	return &OpError{Op: op, Kind: ErrTargetNotFound, Message: msg, Err: cause}
}

func operationFailed(op string, cause error) *OpError {
	msg := fmt.Sprintf("Error: %v. Check the bot permissions and the group ID.", cause)
	return &OpError{Op: op, Kind: ErrOperationFailed, Message: msg, Err: cause}
}
