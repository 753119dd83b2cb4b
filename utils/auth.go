package utils

import (
	"group-moderator/model"

	"github.com/bwmarrin/discordgo"
)

// Permission levels
const (
	AdminPermission = "admin"
	UserPermission  = "user"
)

// CheckPermission returns the permission level of userID. Only the configured
// administrator allow-list grants AdminPermission.
func CheckPermission(cfg *model.Config, userID string) string {
	if userID != "" && cfg.IsAdmin(userID) {
		return AdminPermission
	}
	return UserPermission
}

// InteractionUser returns the user behind an interaction in a guild or a DM.
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// InteractionUserID returns the id of the user behind an interaction, or "".
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if user := InteractionUser(i); user != nil {
		return user.ID
	}
	return ""
}
