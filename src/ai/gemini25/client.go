package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/webclient"
)

const (
	defaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultModelName = "gemini-2.5-flash"
)

func init() {
	core.RegisterProvider("gemini25", newClient, "gemini")
}

type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      webclient.Policy
	defaults   core.Options
}

func newClient(cfg core.FactoryConfig) (core.Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}

	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = defaultModelName
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = webclient.NewDefault(120 * time.Second)
	}
	systemPrompt := cfg.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = core.DefaultSystemPrompt
	}

	return &client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		httpClient: httpClient,
		retry:      cfg.Retry,
		defaults: core.Options{
			Model:        model,
			Temperature:  cfg.Temperature,
			SystemPrompt: systemPrompt,
		},
	}, nil
}

func (c *client) Analyze(ctx context.Context, req core.AnalysisRequest, opts core.Options) (core.AnalysisResult, error) {
	merged := c.merge(opts)
	body := c.buildRequestBody(merged, req)
	return c.send(ctx, merged.Model, body)
}

func (c *client) buildRequestBody(opts core.Options, req core.AnalysisRequest) map[string]interface{} {
	var parts []map[string]interface{}
	if req.Mode == core.ModeImage {
		mime := req.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = []map[string]interface{}{
			{"text": core.ImagePrompt(req.FileName)},
			{"inline_data": map[string]string{
				"mime_type": mime,
				"data":      base64.StdEncoding.EncodeToString(req.Image),
			}},
		}
	} else {
		parts = []map[string]interface{}{
			{"text": core.ClaimPrompt(req.Claim)},
		}
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": parts},
		},
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]string{
				{"text": opts.SystemPrompt},
			},
		},
	}

	if opts.Temperature != 0 {
		body["generationConfig"] = map[string]interface{}{
			"temperature": opts.Temperature,
		}
	}

	if !opts.DisableSearch {
		body["tools"] = []map[string]interface{}{
			{"google_search": map[string]interface{}{}},
		}
	}

	return body
}

func (c *client) send(ctx context.Context, model string, payload map[string]interface{}) (core.AnalysisResult, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, normalizeModel(model), c.apiKey)

	body, err := webclient.PostJSON(ctx, c.httpClient, url, payload, c.retry)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("gemini API error: %w", err)
	}

	var result generateContentResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return core.AnalysisResult{}, fmt.Errorf("gemini: %w: %v", core.ErrMalformedResponse, err)
	}
	text, ok := result.FirstText()
	if !ok {
		return core.AnalysisResult{}, fmt.Errorf("gemini: %w", core.ErrMalformedResponse)
	}
	return core.AnalysisResult{Text: text, Sources: result.Sources()}, nil
}

func (c *client) merge(opts core.Options) core.Options {
	out := c.defaults
	if strings.TrimSpace(opts.Model) != "" {
		out.Model = opts.Model
	}
	if opts.Temperature != 0 {
		out.Temperature = opts.Temperature
	}
	if strings.TrimSpace(opts.SystemPrompt) != "" {
		out.SystemPrompt = opts.SystemPrompt
	}
	if opts.DisableSearch {
		out.DisableSearch = true
	}
	return out
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return "models/" + defaultModelName
	}
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

type webRef struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type groundingRef struct {
	Web *webRef `json:"web"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingAttributions []groundingRef `json:"groundingAttributions"`
			GroundingChunks       []groundingRef `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// FirstText returns candidates[0].content.parts[0].text.
func (r generateContentResponse) FirstText() (string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := r.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", false
	}
	return text, true
}

// Sources prefers groundingAttributions and falls back to groundingChunks.
func (r generateContentResponse) Sources() []core.Source {
	if len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return []core.Source{}
	}
	gm := r.Candidates[0].GroundingMetadata
	refs := gm.GroundingAttributions
	if len(refs) == 0 {
		refs = gm.GroundingChunks
	}
	out := make([]core.Source, 0, len(refs))
	for _, ref := range refs {
		if ref.Web == nil {
			continue
		}
		out = append(out, core.Source{URI: ref.Web.URI, Title: ref.Web.Title})
	}
	return core.FilterSources(out)
}
