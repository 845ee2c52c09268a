package discord

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandFactCheck = "factcheck"

	OptionClaim = "claim"
	OptionImage = "image"
)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandFactCheck: {
		Name:        CommandFactCheck,
		Description: "Check a claim or an image for authenticity",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionClaim,
				Description: "The claim or text to check",
				MaxLength:   4000,
			},
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        OptionImage,
				Description: "An image to check instead of a claim",
			},
		},
	},
}

var defaultCommandOrder = []string{
	CommandFactCheck,
}

// RegisterSlashCommands registers the requested slash commands for a guild.
// When no command names are provided, all known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, names ...string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to register slash commands")
	}

	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			slog.Warn("discord: unknown slash command", "name", name)
			continue
		}

		_, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				slog.Info("discord: slash command already registered", "name", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			slog.Error("discord: failed to register command", "name", name, "err", err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
