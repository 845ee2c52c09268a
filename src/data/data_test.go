package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureParam(t *testing.T) {
	assert.Equal(t, "u:p@tcp(db)/trustek?parseTime=true", ensureParam("u:p@tcp(db)/trustek", "parseTime", "true"))
	assert.Equal(t, "u@/x?a=1&parseTime=true", ensureParam("u@/x?a=1", "parseTime", "true"))
	assert.Equal(t, "u@/x?parseTime=false", ensureParam("u@/x?parseTime=false", "parseTime", "true"))
}

func TestSettingsCache(t *testing.T) {
	cacheSettings([]Setting{{Name: "ai_model", Value: "gemini-2.5-pro"}, {Name: "retry_attempts", Value: "5"}})
	assert.Equal(t, "gemini-2.5-pro", GetSetting("ai_model"))
	assert.Equal(t, "5", GetSetting("retry_attempts"))
	assert.Empty(t, GetSetting("missing"))

	cacheSettings(nil)
	assert.Empty(t, GetSetting("ai_model"))
}
