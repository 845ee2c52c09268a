package providers

import (
	_ "github.com/stake-plus/trustek/src/ai/demo"
	_ "github.com/stake-plus/trustek/src/ai/gemini25"
	_ "github.com/stake-plus/trustek/src/ai/genai"
)
