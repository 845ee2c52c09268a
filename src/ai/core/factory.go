package core

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/stake-plus/trustek/src/webclient"
)

// FactoryConfig captures the inputs required to construct a provider client.
type FactoryConfig struct {
	Provider string

	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Temperature  float64

	HTTPClient *http.Client
	Retry      webclient.Policy

	Extra map[string]string
}

// ProviderFactory implements provider-specific Analyzer creation.
type ProviderFactory func(FactoryConfig) (Analyzer, error)

var (
	mu         sync.RWMutex
	providers  = map[string]ProviderFactory{}
	defaultKey = "gemini25"
)

// RegisterProvider registers a provider factory under one or more names.
func RegisterProvider(name string, factory ProviderFactory, aliases ...string) {
	mu.Lock()
	defer mu.Unlock()

	all := append([]string{name}, aliases...)
	for _, n := range all {
		providers[strings.ToLower(n)] = factory
	}
}

// Registered lists the provider names currently registered.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(providers))
	for name := range providers {
		out = append(out, name)
	}
	return out
}

// NewAnalyzer returns a provider-agnostic analyzer.
func NewAnalyzer(cfg FactoryConfig) (Analyzer, error) {
	providerName := cfg.Provider
	if strings.TrimSpace(providerName) == "" {
		providerName = defaultKey
	}

	mu.RLock()
	factory := providers[strings.ToLower(providerName)]
	mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("ai: provider %q not registered", providerName)
	}
	return factory(cfg)
}
