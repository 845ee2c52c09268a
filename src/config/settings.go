package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/stake-plus/trustek/src/data"
)

// ApplySettings overlays rows from the settings table (see data.LoadSettings)
// on top of c. Settings win over environment and file values.
func (c *Config) ApplySettings() {
	c.apply(func(key string) string {
		if name, ok := settingNames[key]; ok {
			return data.GetSetting(name)
		}
		return ""
	})
}

// settingNames maps environment keys to settings table names.
var settingNames = map[string]string{
	"TRUSTEK_CORS_ORIGINS": "cors_origins",
	"TRUSTEK_RATE_LIMIT":   "rate_limit",
	"TRUSTEK_RATE_WINDOW":  "rate_window",
	"AI_PROVIDER":          "ai_provider",
	"AI_MODEL":             "ai_model",
	"AI_BASE_URL":          "ai_base_url",
	"AI_SYSTEM_PROMPT":     "ai_system_prompt",
	"AI_TEMPERATURE":       "ai_temperature",
	"AI_TIMEOUT":           "ai_timeout",
	"AI_DEMO_MARKER":       "ai_demo_marker",
	"GEMINI_API_KEY":       "gemini_api_key",
	"RETRY_ATTEMPTS":       "retry_attempts",
	"RETRY_BASE_DELAY":     "retry_base_delay",
	"RETRY_POLICY":         "retry_policy",
	"DISCORD_TOKEN":        "discord_token",
	"GUILD_ID":             "guild_id",
	"FACTCHECK_ROLE_ID":    "factcheck_role_id",
	"LOG_LEVEL":            "log_level",
}

// apply overrides fields whose key resolves to a non-empty value.
func (c *Config) apply(lookup func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, err := strconv.Atoi(strings.TrimSpace(lookup(key))); err == nil {
			*dst = v
		}
	}
	duration := func(key string, dst *Duration) {
		if v, err := time.ParseDuration(strings.TrimSpace(lookup(key))); err == nil {
			*dst = Duration(v)
		}
	}

	integer("PORT", &c.Server.Port)
	str("JWT_SECRET", &c.Server.JWTSecret)
	if v := strings.TrimSpace(lookup("TRUSTEK_CORS_ORIGINS")); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	integer("TRUSTEK_RATE_LIMIT", &c.Server.RateLimit)
	duration("TRUSTEK_RATE_WINDOW", &c.Server.RateWindow)

	str("AI_PROVIDER", &c.AI.Provider)
	str("GEMINI_API_KEY", &c.AI.APIKey)
	str("AI_BASE_URL", &c.AI.BaseURL)
	str("AI_MODEL", &c.AI.Model)
	str("AI_SYSTEM_PROMPT", &c.AI.SystemPrompt)
	if v, err := strconv.ParseFloat(strings.TrimSpace(lookup("AI_TEMPERATURE")), 64); err == nil {
		c.AI.Temperature = v
	}
	duration("AI_TIMEOUT", &c.AI.Timeout)
	str("AI_DEMO_MARKER", &c.AI.DemoMarker)

	integer("RETRY_ATTEMPTS", &c.Retry.Attempts)
	duration("RETRY_BASE_DELAY", &c.Retry.BaseDelay)
	str("RETRY_POLICY", &c.Retry.Policy)

	str("DISCORD_TOKEN", &c.Discord.Token)
	str("GUILD_ID", &c.Discord.GuildID)
	str("FACTCHECK_ROLE_ID", &c.Discord.RoleID)
	str("LOG_LEVEL", &c.Logging.Level)
	str("REDIS_URL", &c.RedisURL)
	str("MYSQL_DSN", &c.MySQLDSN)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
