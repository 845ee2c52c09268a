// Package demo registers a placeholder analyzer that never calls a model.
//
// Image submissions are judged by file name alone: a name containing the
// configured marker is reported as genuine, anything else as manipulated.
// Text claims always come back UNVERIFIED. Use it for UI demos only.
package demo

import (
	"context"
	"fmt"
	"strings"

	"github.com/stake-plus/trustek/src/ai/core"
)

const defaultMarker = "real"

func init() {
	core.RegisterProvider("demo", newClient)
}

type client struct {
	marker string
}

func newClient(cfg core.FactoryConfig) (core.Analyzer, error) {
	marker := strings.ToLower(strings.TrimSpace(cfg.Extra["marker"]))
	if marker == "" {
		marker = defaultMarker
	}
	return &client{marker: marker}, nil
}

func (c *client) Analyze(ctx context.Context, req core.AnalysisRequest, _ core.Options) (core.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return core.AnalysisResult{}, err
	}
	if req.Mode != core.ModeImage {
		return core.AnalysisResult{
			Text:    "No verdict: the demo analyzer does not check text claims.",
			Sources: []core.Source{},
		}, nil
	}
	name := strings.ToLower(req.FileName)
	if strings.Contains(name, c.marker) {
		return core.AnalysisResult{
			Text:    fmt.Sprintf("VERIFIED: %s shows no signs of manipulation.", req.FileName),
			Sources: []core.Source{},
		}, nil
	}
	return core.AnalysisResult{
		Text:    fmt.Sprintf("FALSE: %s appears to be manipulated or AI-generated.", req.FileName),
		Sources: []core.Source{},
	}, nil
}
