package core

import (
	"context"
	"errors"
	"net/url"
)

// ErrMalformedResponse is returned when a 2xx body lacks the expected fields.
// It is never retried.
var ErrMalformedResponse = errors.New("ai: empty or malformed response")

// Mode selects which half of an AnalysisRequest is populated.
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

// AnalysisRequest carries either a free-text claim or an image, never both.
type AnalysisRequest struct {
	Mode     Mode
	Claim    string
	Image    []byte
	FileName string
	MIMEType string
}

// Source is a grounding citation returned by the model.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Host returns the host name of the source URI, or "" when it does not parse.
func (s Source) Host() string {
	u, err := url.Parse(s.URI)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// AnalysisResult is the verdict text plus its citations in upstream order.
type AnalysisResult struct {
	Text    string
	Sources []Source
}

// Options controls model behavior; fields are optional per provider.
type Options struct {
	Model         string
	Temperature   float64
	SystemPrompt  string
	DisableSearch bool
}

// Analyzer is the provider-agnostic fact-check contract.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest, opts Options) (AnalysisResult, error)
}

// FilterSources drops citations missing a URI or title and keeps order.
func FilterSources(in []Source) []Source {
	out := make([]Source, 0, len(in))
	for _, s := range in {
		if s.URI == "" || s.Title == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
