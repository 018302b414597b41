package llm

import (
	"fmt"
	"net/http"
	"os"

	"github.com/curation-kr/pipeline/app/config"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// Registry holds one constructed client per configured provider. Clients
// are built even when their API key is absent; invocation then fails and
// the caller's fallback handling applies.
type Registry struct {
	clients map[string]Client
}

func NewRegistry(providers []config.Provider, userAgent string, httpClient *http.Client) (*Registry, error) {
	clients := make(map[string]Client, len(providers))

	for _, p := range providers {
		apiKey := os.Getenv(p.APIKeyEnv)

		switch p.Kind {
		case "openai":
			baseURL := p.BaseURL
			if baseURL == "" {
				baseURL = defaultOpenAIBaseURL
			}
			clients[p.Name] = NewOpenAIClient(baseURL, apiKey, userAgent, httpClient)
		case "gemini":
			clients[p.Name] = NewGeminiClient(p.BaseURL, apiKey, userAgent, httpClient)
		default:
			return nil, fmt.Errorf("provider %q has unknown kind %q", p.Name, p.Kind)
		}
	}

	return &Registry{clients: clients}, nil
}

func (r *Registry) Client(provider string) (Client, error) {
	client, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("no client for provider %q", provider)
	}
	return client, nil
}

// URLAnalyzer returns the first provider client (in the given priority
// order) that can fetch URLs directly and has a credential, or nil when
// none qualifies.
func (r *Registry) URLAnalyzer(providers []config.Provider) (URLAnalyzer, string) {
	for _, p := range providers {
		if !p.Active || len(p.Models) == 0 {
			continue
		}
		client, ok := r.clients[p.Name]
		if !ok {
			continue
		}
		analyzer, ok := client.(URLAnalyzer)
		if !ok || !analyzer.HasCredential() {
			continue
		}
		return analyzer, p.Models[0]
	}
	return nil, ""
}
