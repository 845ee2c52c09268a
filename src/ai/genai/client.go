// Package genai registers an analyzer backed by the official Google GenAI SDK.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/webclient"
	sdk "google.golang.org/genai"
)

const defaultModelName = "gemini-2.5-flash"

func init() {
	core.RegisterProvider("genai", newClient, "gemini-sdk")
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*sdk.Content, config *sdk.GenerateContentConfig) (*sdk.GenerateContentResponse, error)
}

type client struct {
	models   generator
	retry    webclient.Policy
	defaults core.Options
}

func newClient(cfg core.FactoryConfig) (core.Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai: API key not configured")
	}

	sdkCfg := &sdk.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    sdk.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		sdkCfg.HTTPOptions = sdk.HTTPOptions{BaseURL: base}
	}
	c, err := sdk.NewClient(context.Background(), sdkCfg)
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}

	return newWithModels(c.Models, cfg), nil
}

func newWithModels(models generator, cfg core.FactoryConfig) *client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModelName
	}
	systemPrompt := cfg.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = core.DefaultSystemPrompt
	}
	return &client{
		models: models,
		retry:  cfg.Retry,
		defaults: core.Options{
			Model:        model,
			Temperature:  cfg.Temperature,
			SystemPrompt: systemPrompt,
		},
	}
}

func (c *client) Analyze(ctx context.Context, req core.AnalysisRequest, opts core.Options) (core.AnalysisResult, error) {
	merged := c.defaults
	if strings.TrimSpace(opts.Model) != "" {
		merged.Model = opts.Model
	}
	if opts.Temperature != 0 {
		merged.Temperature = opts.Temperature
	}
	if strings.TrimSpace(opts.SystemPrompt) != "" {
		merged.SystemPrompt = opts.SystemPrompt
	}
	merged.DisableSearch = opts.DisableSearch

	contents := buildContents(req)
	config := &sdk.GenerateContentConfig{
		SystemInstruction: sdk.NewContentFromText(merged.SystemPrompt, sdk.RoleUser),
	}
	if merged.Temperature != 0 {
		t := float32(merged.Temperature)
		config.Temperature = &t
	}
	if !merged.DisableSearch {
		config.Tools = []*sdk.Tool{{GoogleSearch: &sdk.GoogleSearch{}}}
	}

	var resp *sdk.GenerateContentResponse
	_, _, err := webclient.DoWithRetry(ctx, c.retry, func() (int, []byte, error) {
		r, err := c.models.GenerateContent(ctx, merged.Model, contents, config)
		if err != nil {
			return statusOf(err), nil, err
		}
		resp = r
		return http.StatusOK, nil, nil
	})
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("genai API error: %w", err)
	}

	return toResult(resp)
}

func buildContents(req core.AnalysisRequest) []*sdk.Content {
	if req.Mode == core.ModeImage {
		mime := req.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts := []*sdk.Part{
			sdk.NewPartFromText(core.ImagePrompt(req.FileName)),
			sdk.NewPartFromBytes(req.Image, mime),
		}
		return []*sdk.Content{sdk.NewContentFromParts(parts, sdk.RoleUser)}
	}
	return sdk.Text(core.ClaimPrompt(req.Claim))
}

func toResult(resp *sdk.GenerateContentResponse) (core.AnalysisResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 || resp.Candidates[0].Content.Parts[0].Text == "" {
		return core.AnalysisResult{}, fmt.Errorf("genai: %w", core.ErrMalformedResponse)
	}
	cand := resp.Candidates[0]
	sources := []core.Source{}
	if gm := cand.GroundingMetadata; gm != nil {
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			sources = append(sources, core.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return core.AnalysisResult{
		Text:    cand.Content.Parts[0].Text,
		Sources: core.FilterSources(sources),
	}, nil
}

// statusOf extracts the HTTP status from SDK errors so the retry classifier
// can tell throttling from bad requests.
func statusOf(err error) int {
	var apiErr sdk.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *sdk.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
