package bot

import (
	"errors"
	"fmt"
	"testing"

	"group-moderator/model"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestChannelChatType(t *testing.T) {
	tests := map[discordgo.ChannelType]model.ChatType{
		discordgo.ChannelTypeGuildText:         model.ChatTypeSupergroup,
		discordgo.ChannelTypeGuildNews:         model.ChatTypeChannel,
		discordgo.ChannelTypeGroupDM:           model.ChatTypeGroup,
		discordgo.ChannelTypeDM:                model.ChatTypePrivate,
		discordgo.ChannelTypeGuildVoice:        model.ChatTypeUnknown,
		discordgo.ChannelTypeGuildPublicThread: model.ChatTypeUnknown,
	}
	for channelType, want := range tests {
		assert.Equal(t, want, ChannelChatType(channelType), "channel type %d", channelType)
	}
}

func TestIsAPIError(t *testing.T) {
	restErr := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownBan}}

	assert.True(t, isAPIError(restErr, discordgo.ErrCodeUnknownBan))
	assert.True(t, isAPIError(fmt.Errorf("wrapped: %w", restErr), discordgo.ErrCodeUnknownBan))
	assert.False(t, isAPIError(restErr, discordgo.ErrCodeUnknownMember))
	assert.False(t, isAPIError(&discordgo.RESTError{}, discordgo.ErrCodeUnknownBan))
	assert.False(t, isAPIError(errors.New("plain"), discordgo.ErrCodeUnknownBan))
}
