package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct{ cfg FactoryConfig }

func (s stubAnalyzer) Analyze(context.Context, AnalysisRequest, Options) (AnalysisResult, error) {
	return AnalysisResult{Text: s.cfg.Model}, nil
}

func TestRegistry(t *testing.T) {
	RegisterProvider("stub-test", func(cfg FactoryConfig) (Analyzer, error) {
		return stubAnalyzer{cfg: cfg}, nil
	}, "Stub-Alias")

	a, err := NewAnalyzer(FactoryConfig{Provider: "STUB-TEST", Model: "m1"})
	require.NoError(t, err)
	res, err := a.Analyze(context.Background(), AnalysisRequest{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "m1", res.Text)

	_, err = NewAnalyzer(FactoryConfig{Provider: "stub-alias"})
	require.NoError(t, err)
	assert.Contains(t, Registered(), "stub-alias")

	_, err = NewAnalyzer(FactoryConfig{Provider: "nope"})
	assert.Error(t, err)
}

func TestFilterSourcesKeepsOrder(t *testing.T) {
	in := []Source{
		{URI: "https://a.example/x", Title: "A"},
		{URI: "", Title: "no uri"},
		{URI: "https://b.example/y", Title: ""},
		{URI: "https://c.example/z", Title: "C"},
	}
	out := FilterSources(in)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Title)
	assert.Equal(t, "C", out[1].Title)
}

func TestSourceHost(t *testing.T) {
	assert.Equal(t, "www.bbc.co.uk", Source{URI: "https://www.bbc.co.uk/news/1"}.Host())
	assert.Equal(t, "", Source{URI: "://bad"}.Host())
}

func TestPrompts(t *testing.T) {
	assert.Equal(t, `Analyze the following claim/text for authenticity: "The Eiffel Tower is in Paris"`,
		ClaimPrompt("The Eiffel Tower is in Paris"))
	assert.Contains(t, ImagePrompt("cat.png"), `"cat.png"`)
	assert.Equal(t, "gemini-2.5-flash", ResolveModelName("gemini25", ""))
	assert.Equal(t, "custom", ResolveModelName("gemini25", " custom "))
	assert.Equal(t, "unknown", ResolveModelName("other", ""))
}
