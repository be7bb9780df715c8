package llm

import "strings"

// ProviderName identifies one known OpenAI-compatible chat/embedding
// endpoint (spec.md §6's llm.provider / embed.provider configuration
// keys). Grounded on the teacher's internal/models/provider registry
// (one init()-registered Provider per file); consolidated here into a
// single table since this module only needs default base URLs and
// detection, not the teacher's full per-provider validation/routing
// machinery.
type ProviderName string

const (
	ProviderOllama      ProviderName = "ollama"
	ProviderOpenAI      ProviderName = "openai"
	ProviderOpenRouter  ProviderName = "openrouter"
	ProviderAliyun      ProviderName = "aliyun"
	ProviderDeepSeek    ProviderName = "deepseek"
	ProviderGemini      ProviderName = "gemini"
	ProviderVolcengine  ProviderName = "volcengine"
	ProviderHunyuan     ProviderName = "hunyuan"
	ProviderMiniMax     ProviderName = "minimax"
	ProviderMimo        ProviderName = "mimo"
	ProviderSiliconFlow ProviderName = "siliconflow"
	ProviderJina        ProviderName = "jina"
	ProviderGeneric     ProviderName = "generic"
)

// providerDefaultURL maps a known provider to its default OpenAI-compatible
// base URL, carried over from the teacher's DefaultURLs tables.
var providerDefaultURL = map[ProviderName]string{
	ProviderOpenAI:      "https://api.openai.com/v1",
	ProviderOpenRouter:  "https://openrouter.ai/api/v1",
	ProviderAliyun:      "https://dashscope.aliyuncs.com/compatible-mode/v1",
	ProviderDeepSeek:    "https://api.deepseek.com/v1",
	ProviderGemini:      "https://generativelanguage.googleapis.com/v1beta/openai",
	ProviderVolcengine:  "https://ark.cn-beijing.volces.com/api/v3",
	ProviderHunyuan:     "https://api.hunyuan.cloud.tencent.com/v1",
	ProviderMiniMax:     "https://api.minimaxi.com/v1",
	ProviderMimo:        "https://api.xiaomimimo.com/v1",
	ProviderSiliconFlow: "https://api.siliconflow.cn/v1",
	ProviderJina:        "https://api.jina.ai/v1",
}

// providerURLSubstrings matches a configured base URL back to the provider
// that serves it, for cases where only a base URL is configured and the
// provider name is left blank. Order matters: more specific hosts first.
var providerURLSubstrings = []struct {
	substr   string
	provider ProviderName
}{
	{"openrouter.ai", ProviderOpenRouter},
	{"dashscope.aliyuncs.com", ProviderAliyun},
	{"api.deepseek.com", ProviderDeepSeek},
	{"generativelanguage.googleapis.com", ProviderGemini},
	{"volces.com", ProviderVolcengine},
	{"hunyuan.cloud.tencent.com", ProviderHunyuan},
	{"minimaxi.com", ProviderMiniMax},
	{"minimax.io", ProviderMiniMax},
	{"xiaomimimo.com", ProviderMimo},
	{"siliconflow.cn", ProviderSiliconFlow},
	{"api.jina.ai", ProviderJina},
	{"api.openai.com", ProviderOpenAI},
}

// DetectProvider infers a ProviderName from a base URL, falling back to
// ProviderGeneric for anything unrecognized (including local endpoints
// such as Ollama's, which callers select explicitly rather than detect).
func DetectProvider(baseURL string) ProviderName {
	lower := strings.ToLower(baseURL)
	for _, entry := range providerURLSubstrings {
		if strings.Contains(lower, entry.substr) {
			return entry.provider
		}
	}
	return ProviderGeneric
}

// DefaultBaseURL returns the known default base URL for name, or ("",
// false) if name has no fixed default (ProviderGeneric and ProviderOllama
// both require an explicit URL).
func DefaultBaseURL(name ProviderName) (string, bool) {
	url, ok := providerDefaultURL[name]
	return url, ok
}

// ResolveBaseURL fills in a default base URL when both provider and
// baseURL are under-specified: an explicit baseURL always wins, otherwise
// an explicit provider's default is used, otherwise the result is the
// empty string.
func ResolveBaseURL(provider ProviderName, baseURL string) string {
	if baseURL != "" {
		return baseURL
	}
	if url, ok := DefaultBaseURL(provider); ok {
		return url
	}
	return ""
}
