package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectProvider(t *testing.T) {
	cases := []struct {
		url  string
		want ProviderName
	}{
		{"https://api.openai.com/v1", ProviderOpenAI},
		{"https://openrouter.ai/api/v1", ProviderOpenRouter},
		{"https://dashscope.aliyuncs.com/compatible-mode/v1", ProviderAliyun},
		{"https://api.deepseek.com/v1", ProviderDeepSeek},
		{"http://localhost:11434/v1", ProviderGeneric},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectProvider(tc.url))
	}
}

func TestResolveBaseURL(t *testing.T) {
	assert.Equal(t, "https://custom.example.com", ResolveBaseURL(ProviderOpenAI, "https://custom.example.com"))
	assert.Equal(t, "https://api.openai.com/v1", ResolveBaseURL(ProviderOpenAI, ""))
	assert.Equal(t, "", ResolveBaseURL(ProviderGeneric, ""))
}
