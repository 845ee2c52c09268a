package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/trustek/src/factcheck"
)

const (
	maxDescription = 4096
	maxFieldValue  = 1024
	maxSources     = 10
)

// VerdictEmbed renders a settled report as a Discord embed.
func VerdictEmbed(report *factcheck.Report) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       report.Label.String(),
		Description: truncate(report.Text, maxDescription),
		Color:       report.Label.Color(),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Trustek • " + report.ID},
	}
	if len(report.Sources) == 0 {
		return embed
	}

	var b strings.Builder
	for i, src := range report.Sources {
		if i == maxSources {
			fmt.Fprintf(&b, "...and %d more", len(report.Sources)-maxSources)
			break
		}
		line := fmt.Sprintf("[%s](%s) · %s\n", escapeMarkdown(src.Title), src.URI, src.Host)
		if b.Len()+len(line) > maxFieldValue {
			break
		}
		b.WriteString(line)
	}
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "Sources", Value: strings.TrimSpace(b.String())}}
	return embed
}

// ErrorEmbed renders a user-facing failure.
func ErrorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Fact check",
		Description: message,
		Color:       0x6B7280,
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

var markdownEscaper = strings.NewReplacer("[", "\\[", "]", "\\]", "*", "\\*", "_", "\\_")

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
