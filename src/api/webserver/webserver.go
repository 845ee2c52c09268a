// Package webserver exposes the fact-check service over HTTP.
package webserver

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/trustek/src/auth"
	"github.com/stake-plus/trustek/src/factcheck"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Service     *factcheck.Service
	States      auth.StateProvider
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
	Logger      *slog.Logger
}

func New(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	g := gin.New()
	g.Use(RequestLogger(deps.Logger), gin.Recovery())
	attachRoutes(g, deps)
	return g
}
