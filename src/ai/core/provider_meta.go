package core

import (
	"fmt"
	"strings"
)

var providerDefaultModels = map[string]string{
	"gemini25": "gemini-2.5-flash",
	"genai":    "gemini-2.5-flash",
	"demo":     "filename-marker",
}

// DefaultSystemPrompt is the Trustek fact-checker instruction.
const DefaultSystemPrompt = "You are Trustek, a dedicated fact-checker and journalist AI. Your task is to analyze the user's provided text or claim. Use Google Search grounding to verify the information. Provide a clear verdict (TRUE, FALSE, or UNVERIFIED) followed by a concise, explanatory summary of why the claim is trustworthy or misleading, citing the sources found."

// ClaimPrompt wraps a claim in the fixed instructional prompt.
func ClaimPrompt(claim string) string {
	return fmt.Sprintf("Analyze the following claim/text for authenticity: \"%s\"", claim)
}

// ImagePrompt is sent alongside an inline image.
func ImagePrompt(fileName string) string {
	if strings.TrimSpace(fileName) == "" {
		return "Analyze the attached image for authenticity. Say whether it appears genuine or manipulated."
	}
	return fmt.Sprintf("Analyze the attached image %q for authenticity. Say whether it appears genuine or manipulated.", fileName)
}

// DefaultModelForProvider returns the baked-in default model for a provider key.
func DefaultModelForProvider(provider string) string {
	key := strings.ToLower(strings.TrimSpace(provider))
	if val, ok := providerDefaultModels[key]; ok {
		return val
	}
	return ""
}

// ResolveModelName picks the configured model if provided, otherwise the provider's default.
func ResolveModelName(provider, configuredModel string) string {
	model := strings.TrimSpace(configuredModel)
	if model != "" {
		return model
	}
	if def := DefaultModelForProvider(provider); def != "" {
		return def
	}
	return "unknown"
}
