package utils

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

func getColor(level LogLevel) int {
	switch level {
	case Info:
		return 3066993 // Green
	case Warn:
		return 15105570 // Orange
	case Error:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

// LogEmbed builds the embed posted to the log channel.
func LogEmbed(level LogLevel, module, operation, extraInfo string) *discordgo.MessageEmbed {
	if extraInfo == "" {
		extraInfo = "-"
	}
	return &discordgo.MessageEmbed{
		Title:     string(level) + " Log",
		Color:     getColor(level),
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module, Inline: true},
			{Name: "Operation", Value: operation, Inline: true},
			{Name: "Details", Value: extraInfo},
		},
	}
}

func sendLog(s *discordgo.Session, channelID string, level LogLevel, module, operation, extraInfo string) error {
	if channelID == "" {
		return nil
	}
	_, err := s.ChannelMessageSendEmbed(channelID, LogEmbed(level, module, operation, extraInfo))
	if err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("failed to post to the log channel")
	}
	return err
}

func LogInfo(s *discordgo.Session, channelID, module, operation, extraInfo string) error {
	return sendLog(s, channelID, Info, module, operation, extraInfo)
}

func LogWarn(s *discordgo.Session, channelID, module, operation, extraInfo string) error {
	return sendLog(s, channelID, Warn, module, operation, extraInfo)
}

func LogError(s *discordgo.Session, channelID, module, operation, extraInfo string) error {
	return sendLog(s, channelID, Error, module, operation, extraInfo)
}
