package handlers

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"group-moderator/bot"
	"group-moderator/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type sanctionCounts struct {
	bans, muted, warned int
}

func countSanctions(ctx context.Context, b *bot.Bot) (sanctionCounts, error) {
	var c sanctionCounts
	var err error
	if c.bans, err = b.Store.CountBans(ctx); err != nil {
		return c, err
	}
	if c.muted, err = b.Store.CountMuted(ctx); err != nil {
		return c, err
	}
	if c.warned, err = b.Store.CountWarned(ctx); err != nil {
		return c, err
	}
	return c, nil
}

func SystemInfoHandler(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	cpuCount, _ := cpu.Counts(true)
	cpuPercent, _ := cpu.Percent(0, false)
	cpuUsage := 0.0
	if len(cpuPercent) > 0 {
		cpuUsage = cpuPercent[0]
	}

	osVersion, kernelVersion := "unknown", "unknown"
	if hostInfo, err := host.Info(); err == nil {
		osVersion = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
		kernelVersion = hostInfo.KernelVersion
	}
	memory := "unknown"
	if vm, err := mem.VirtualMemory(); err == nil {
		memory = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}

	cfg := b.GetConfig()
	var dbSize int64
	if info, err := os.Stat(cfg.DBPath); err == nil {
		dbSize = info.Size() / 1024
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()
	counts, err := countSanctions(ctx, b)
	if err != nil {
		log.Error().Err(err).Msg("failed to count sanctions")
	}

	embed := &discordgo.MessageEmbed{
		Title: "System information",
		Color: 0x5865F2, // Discord Blurple
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💻 OS", Value: osVersion, Inline: true},
			{Name: "🔧 Kernel", Value: kernelVersion, Inline: true},
			{Name: "🐹 Go", Value: runtime.Version(), Inline: true},
			{Name: "🔼 CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "🔥 CPU usage", Value: fmt.Sprintf("%.1f%%", cpuUsage), Inline: true},
			{Name: "🧠 Memory", Value: memory, Inline: true},
			{Name: "🗃️ Database size", Value: fmt.Sprintf("%d KB", dbSize), Inline: true},
			{Name: "⏱️ WebSocket latency", Value: s.HeartbeatLatency().String(), Inline: true},
			{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "⛔ Banned", Value: fmt.Sprintf("%d", counts.bans), Inline: true},
			{Name: "🔇 Muted", Value: fmt.Sprintf("%d", counts.muted), Inline: true},
			{Name: "⚠️ Warned", Value: fmt.Sprintf("%d", counts.warned), Inline: true},
			{Name: "🚫 Forbidden words", Value: fmt.Sprintf("%d", b.Words.Len()), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("System monitor · %s", time.Now().Format("15:04")),
		},
	}

	utils.SendEmbedResponse(s, i, embed, nil, true)
}
