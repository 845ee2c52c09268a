package factcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/trustek/src/actions/core"
	shareddiscord "github.com/stake-plus/trustek/src/discord"
	fc "github.com/stake-plus/trustek/src/factcheck"
	"github.com/stake-plus/trustek/src/webclient"
)

var _ core.Module = (*Module)(nil)

// Config selects the guild and optional role for the /factcheck command.
type Config struct {
	Token   string
	GuildID string
	RoleID  string
}

// Module owns the Discord session for the /factcheck command.
type Module struct {
	cfg        Config
	service    *fc.Service
	session    *discordgo.Session
	httpClient *http.Client
	log        *slog.Logger
	cancel     context.CancelFunc
}

// NewModule wires the Discord session to the fact-check service.
func NewModule(cfg Config, service *fc.Service, log *slog.Logger) (*Module, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("factcheck: discord token not configured")
	}
	if service == nil {
		return nil, fmt.Errorf("factcheck: service is nil")
	}
	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("factcheck: discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	return &Module{
		cfg:        cfg,
		service:    service,
		session:    session,
		httpClient: webclient.NewDefault(30 * time.Second),
		log:        log.With("module", "discord"),
	}, nil
}

// Name implements core.Module.
func (m *Module) Name() string { return "discord-factcheck" }

// Start boots the Discord session and registers handlers.
func (m *Module) Start(ctx context.Context) error {
	if m.session == nil {
		return fmt.Errorf("factcheck: session not initialized")
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.initHandlers(sessionCtx)

	if err := m.session.Open(); err != nil {
		cancel()
		return fmt.Errorf("factcheck: discord open: %w", err)
	}

	go func() {
		<-sessionCtx.Done()
		m.session.Close()
	}()

	return nil
}

// Stop closes the Discord session.
func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	if m.session != nil {
		m.session.Close()
	}
}

func (m *Module) initHandlers(ctx context.Context) {
	m.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		m.log.Info("logged in", "user", s.State.User.Username)
		if err := shareddiscord.RegisterSlashCommands(s, m.cfg.GuildID, shareddiscord.CommandFactCheck); err != nil {
			m.log.Error("register commands failed", "err", err)
		}
	})

	m.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if i.ApplicationCommandData().Name == shareddiscord.CommandFactCheck {
			m.handleFactCheckSlash(ctx, s, i)
		}
	})
}
