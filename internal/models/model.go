package models

const (
	APISpecOpenAI = "openai"
	APISpecGemini = "gemini"

	DefaultModelID = "gpt-4o-mini"

	DefaultTemperature = 0.7
	MinTemperature     = 0.0
	MaxTemperature     = 1.0
)

type Model struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	ModelID  string `json:"model_id"`
	APIURL   string `json:"api_url,omitempty"`
	APISpec  string `json:"api_spec,omitempty"`

	Temperature float64 `json:"temperature"`
	// HostedSearch enables the provider's own search grounding (Gemini only).
	HostedSearch bool `json:"hosted_search,omitempty"`
}

// ClampTemperature bounds v to [MinTemperature, MaxTemperature].
func ClampTemperature(v float64) float64 {
	if v != v { // NaN
		return DefaultTemperature
	}
	if v < MinTemperature {
		return MinTemperature
	}
	if v > MaxTemperature {
		return MaxTemperature
	}
	return v
}
