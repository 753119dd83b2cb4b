package utils

import (
	"testing"

	"group-moderator/model"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestCheckPermission(t *testing.T) {
	cfg := &model.Config{AdminIDs: []string{"1", "2"}}

	assert.Equal(t, AdminPermission, CheckPermission(cfg, "2"))
	assert.Equal(t, UserPermission, CheckPermission(cfg, "3"))
	assert.Equal(t, UserPermission, CheckPermission(cfg, ""))
}

func TestInteractionUserID(t *testing.T) {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "10"}},
	}}
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		User: &discordgo.User{ID: "20"},
	}}
	empty := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}

	assert.Equal(t, "10", InteractionUserID(guild))
	assert.Equal(t, "20", InteractionUserID(dm))
	assert.Equal(t, "", InteractionUserID(empty))
}
