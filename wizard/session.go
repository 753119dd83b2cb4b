package wizard

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"group-moderator/moderation"
	"group-moderator/utils"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Action is a sanction operation started from the wizard.
type Action string

const (
	ActionBan    Action = "ban"
	ActionUnban  Action = "unban"
	ActionMute   Action = "mute"
	ActionUnmute Action = "unmute"
	ActionWarn   Action = "warn"
	ActionUnwarn Action = "unwarn"
)

// Actions lists every action in menu order.
var Actions = []Action{ActionWarn, ActionUnwarn, ActionMute, ActionUnmute, ActionBan, ActionUnban}

// ParseAction validates s as an action name.
func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// TakesDuration reports whether the action collects a duration and a reason.
func (a Action) TakesDuration() bool {
	return a == ActionBan || a == ActionMute || a == ActionWarn
}

// Step is the piece of input a session is waiting for.
type Step int

const (
	StepTarget Step = iota
	StepDuration
	StepReason
	StepDone
)

var (
	ErrNoSession       = errors.New("no moderation in progress, start one with /moderate")
	ErrUnexpectedInput = errors.New("this button does not apply to the current step")
	ErrUnknownAction   = errors.New("unknown action")
)

// Session is the input collected so far for one administrator.
type Session struct {
	AdminID  string
	Action   Action
	Step     Step
	Target   moderation.Target
	Duration time.Duration
	Reason   string
}

// Done reports whether every input was collected.
func (s Session) Done() bool {
	return s.Step == StepDone
}

// Prompt is the question for the current step.
func (s Session) Prompt() string {
	switch s.Step {
	case StepTarget:
		return "Enter the @username or numeric ID of the user:"
	case StepDuration:
		return fmt.Sprintf("Enter the %s duration as Nt (for example 1h for one hour, 30m for 30 minutes):", s.Action)
	case StepReason:
		return fmt.Sprintf("Enter the %s reason:", s.Action)
	default:
		return ""
	}
}

// Summary describes the collected input.
func (s Session) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", s.Action, s.Target)
	if s.Action.TakesDuration() {
		if s.Duration > 0 {
			fmt.Fprintf(&b, " for %s", utils.FormatDuration(s.Duration))
		} else {
			b.WriteString(" with no limit")
		}
		if s.Reason != "" {
			fmt.Fprintf(&b, " (%s)", s.Reason)
		}
	}
	return b.String()
}

// Manager keeps one session per administrator. Idle sessions expire after the TTL.
type Manager struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, Session]
}

// NewManager creates a session manager.
func NewManager(capacity int, ttl time.Duration) *Manager {
	return &Manager{
		sessions: expirable.NewLRU[string, Session](capacity, nil, ttl),
	}
}

// Start begins a new session, replacing any previous one of the administrator.
func (m *Manager) Start(adminID string, action Action) (Session, error) {
	if _, ok := ParseAction(string(action)); !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	s := Session{AdminID: adminID, Action: action, Step: StepTarget}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Add(adminID, s)
	return s, nil
}

// Get returns the session of adminID, if any.
func (m *Manager) Get(adminID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Get(adminID)
}

// Cancel drops the session of adminID.
func (m *Manager) Cancel(adminID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Remove(adminID)
}

// Input feeds a typed message into the session. An invalid target keeps the session on
// the target step.
func (m *Manager) Input(adminID, text string) (Session, error) {
	return m.advance(adminID, func(s *Session) error {
		text = strings.TrimSpace(text)
		switch s.Step {
		case StepTarget:
			target, err := moderation.ParseTarget(text)
			if err != nil {
				return err
			}
			s.Target = target
			if s.Action.TakesDuration() {
				s.Step = StepDuration
			} else {
				s.Step = StepDone
			}
		case StepDuration:
			s.Duration = utils.ParseDuration(text)
			s.Step = StepReason
		case StepReason:
			s.Reason = text
			s.Step = StepDone
		}
		return nil
	})
}

// NoLimit answers the duration step with an unbounded duration.
func (m *Manager) NoLimit(adminID string) (Session, error) {
	return m.advance(adminID, func(s *Session) error {
		if s.Step != StepDuration {
			return ErrUnexpectedInput
		}
		s.Duration = 0
		s.Step = StepReason
		return nil
	})
}

// SkipReason answers the reason step with an empty reason.
func (m *Manager) SkipReason(adminID string) (Session, error) {
	return m.advance(adminID, func(s *Session) error {
		if s.Step != StepReason {
			return ErrUnexpectedInput
		}
		s.Reason = ""
		s.Step = StepDone
		return nil
	})
}

// advance applies fn to the stored session. Completed sessions are removed and returned.
func (m *Manager) advance(adminID string, fn func(s *Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Get(adminID)
	if !ok {
		return Session{}, ErrNoSession
	}
	if err := fn(&s); err != nil {
		return s, err
	}
	if s.Done() {
		m.sessions.Remove(adminID)
	} else {
		m.sessions.Add(adminID, s)
	}
	return s, nil
}
