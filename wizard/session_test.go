package wizard

import (
	"testing"
	"time"

	"group-moderator/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanFlow(t *testing.T) {
	m := NewManager(8, time.Minute)

	s, err := m.Start("admin", ActionBan)
	require.NoError(t, err)
	assert.Equal(t, StepTarget, s.Step)
	assert.Contains(t, s.Prompt(), "@username")

	s, err = m.Input("admin", "@alice")
	require.NoError(t, err)
	assert.Equal(t, StepDuration, s.Step)
	assert.Equal(t, moderation.ByHandle("alice"), s.Target)

	s, err = m.Input("admin", "2h")
	require.NoError(t, err)
	assert.Equal(t, StepReason, s.Step)
	assert.Equal(t, 2*time.Hour, s.Duration)

	s, err = m.Input("admin", "  spam  ")
	require.NoError(t, err)
	assert.True(t, s.Done())
	assert.Equal(t, "spam", s.Reason)
	assert.Equal(t, "ban @alice for 2 h (spam)", s.Summary())

	_, ok := m.Get("admin")
	assert.False(t, ok, "completed sessions are removed")
}

func TestButtons(t *testing.T) {
	m := NewManager(8, time.Minute)

	_, err := m.Start("admin", ActionMute)
	require.NoError(t, err)

	_, err = m.NoLimit("admin")
	assert.ErrorIs(t, err, ErrUnexpectedInput)
	_, err = m.SkipReason("admin")
	assert.ErrorIs(t, err, ErrUnexpectedInput)

	_, err = m.Input("admin", "42")
	require.NoError(t, err)

	s, err := m.NoLimit("admin")
	require.NoError(t, err)
	assert.Equal(t, StepReason, s.Step)
	assert.Zero(t, s.Duration)

	s, err = m.SkipReason("admin")
	require.NoError(t, err)
	assert.True(t, s.Done())
	assert.Equal(t, "mute 42 with no limit", s.Summary())
}

func TestTargetOnlyActions(t *testing.T) {
	for _, action := range []Action{ActionUnban, ActionUnmute, ActionUnwarn} {
		t.Run(string(action), func(t *testing.T) {
			m := NewManager(8, time.Minute)
			_, err := m.Start("admin", action)
			require.NoError(t, err)

			s, err := m.Input("admin", "@bob")
			require.NoError(t, err)
			assert.True(t, s.Done())
			assert.Equal(t, string(action)+" @bob", s.Summary())
		})
	}
}

func TestInvalidTargetKeepsStep(t *testing.T) {
	m := NewManager(8, time.Minute)
	_, err := m.Start("admin", ActionWarn)
	require.NoError(t, err)

	_, err = m.Input("admin", "not a user")
	assert.ErrorIs(t, err, moderation.ErrInvalidTarget)

	s, ok := m.Get("admin")
	require.True(t, ok)
	assert.Equal(t, StepTarget, s.Step)
}

func TestNoSession(t *testing.T) {
	m := NewManager(8, time.Minute)

	_, err := m.Input("admin", "@alice")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Start("admin", Action("kick"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestCancelAndExpiry(t *testing.T) {
	m := NewManager(8, 50*time.Millisecond)

	_, err := m.Start("a", ActionBan)
	require.NoError(t, err)
	assert.True(t, m.Cancel("a"))
	_, ok := m.Get("a")
	assert.False(t, ok)

	_, err = m.Start("b", ActionBan)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, ok := m.Get("b")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewManager(8, time.Minute)
	_, err := m.Start("a", ActionBan)
	require.NoError(t, err)
	_, err = m.Start("b", ActionUnban)
	require.NoError(t, err)

	s, err := m.Input("b", "7")
	require.NoError(t, err)
	assert.True(t, s.Done())

	s, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, StepTarget, s.Step)
}
