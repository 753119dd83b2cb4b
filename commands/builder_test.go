package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, cmd := range append(GuildCommands(), GlobalCommands()...) {
		assert.False(t, seen[cmd.Name], "duplicate command %s", cmd.Name)
		seen[cmd.Name] = true
		assert.NotEmpty(t, cmd.Description, cmd.Name)
	}
	for _, name := range []string{"ban", "unban", "mute", "unmute", "warn", "unwarn", "blacklist", "moderate"} {
		assert.True(t, seen[name], "missing command %s", name)
	}
}
