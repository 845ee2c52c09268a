package factcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/trustek/src/ai/core"
	shareddiscord "github.com/stake-plus/trustek/src/discord"
	fc "github.com/stake-plus/trustek/src/factcheck"
)

const maxAttachmentBytes = 20 << 20

func (m *Module) handleFactCheckSlash(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := shareddiscord.InteractionUser(i)
	if user == nil {
		return
	}

	if m.cfg.RoleID != "" && !shareddiscord.HasRole(s, m.cfg.GuildID, user.ID, m.cfg.RoleID) {
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "You don't have permission to use this command.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		m.log.Error("slash ack failed", "err", err)
		return
	}

	req, err := m.requestFromInteraction(ctx, i.ApplicationCommandData())
	if err != nil {
		m.log.Warn("attachment download failed", "user", user.ID, "err", err)
		m.editEmbed(s, i.Interaction, shareddiscord.ErrorEmbed(fc.GenericFailureMessage))
		return
	}

	report, err := m.service.Submit(ctx, "discord:"+user.ID, req)
	if err != nil {
		m.editEmbed(s, i.Interaction, shareddiscord.ErrorEmbed(fc.UserMessage(err)))
		return
	}
	m.editEmbed(s, i.Interaction, shareddiscord.VerdictEmbed(report))
}

func (m *Module) editEmbed(s *discordgo.Session, interaction *discordgo.Interaction, embed *discordgo.MessageEmbed) {
	embeds := []*discordgo.MessageEmbed{embed}
	if _, err := s.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{Embeds: &embeds}); err != nil {
		m.log.Error("interaction edit failed", "err", err)
	}
}

// requestFromInteraction maps the command options onto an AnalysisRequest.
// Validation is left to the service.
func (m *Module) requestFromInteraction(ctx context.Context, data discordgo.ApplicationCommandInteractionData) (core.AnalysisRequest, error) {
	req := core.AnalysisRequest{Mode: core.ModeText}
	for _, opt := range data.Options {
		switch opt.Name {
		case shareddiscord.OptionClaim:
			req.Claim = opt.StringValue()
		case shareddiscord.OptionImage:
			id, _ := opt.Value.(string)
			if data.Resolved == nil || data.Resolved.Attachments[id] == nil {
				continue
			}
			att := data.Resolved.Attachments[id]
			img, err := m.download(ctx, att.URL)
			if err != nil {
				return req, err
			}
			req.Mode = core.ModeImage
			req.Image = img
			req.FileName = att.Filename
		}
	}
	return req, nil
}

func (m *Module) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
}
