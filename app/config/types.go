package config

// FeedsFile is the top-level structure of the feed sources YAML file.
type FeedsFile struct {
	Feeds []FeedSource `yaml:"feeds"`
}

// FeedSource describes one polled RSS/Atom source.
type FeedSource struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Active bool   `yaml:"active"`
	Digest bool   `yaml:"digest"` // items are link collections, not articles
}

// LLMFile is the top-level structure of the LLM configuration YAML file.
type LLMFile struct {
	Providers []Provider            `yaml:"providers"`
	Limits    map[string]ModelLimit `yaml:"limits"` // keyed by "provider:model"
}

// Provider describes one configured AI backend. Lower priority is tried
// first; ties keep the file order.
type Provider struct {
	Name          string   `yaml:"name"`
	Kind          string   `yaml:"kind"` // "openai" or "gemini"
	Priority      int      `yaml:"priority"`
	Active        bool     `yaml:"active"`
	BaseURL       string   `yaml:"base_url"`
	APIKeyEnv     string   `yaml:"api_key_env"`
	Models        []string `yaml:"models"`
	ResetTimezone string   `yaml:"reset_timezone"` // IANA zone for the daily quota window
}

// ModelLimit is the quota rule for one model. A zero value means the
// dimension is unconstrained. CombinedWith lists sibling model keys sharing
// one token budget.
type ModelLimit struct {
	DailyRequests int      `yaml:"daily_requests"`
	DailyTokens   int64    `yaml:"daily_tokens"`
	CombinedWith  []string `yaml:"combined_with"`
}
