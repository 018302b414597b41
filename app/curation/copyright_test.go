package curation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/curation-kr/pipeline/app/config"
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/llm"
)

type fakeUsageRepo struct {
	appended []database.UsageRecord
}

func (f *fakeUsageRepo) Append(rec database.UsageRecord) error {
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeUsageRepo) UsageSince(modelNames []string, since time.Time) (int, int64, error) {
	return 0, 0, nil
}

var _ database.UsageRepository = (*fakeUsageRepo)(nil)

type fakeURLAnalyzer struct {
	calls    *[]string
	response string
	err      error
}

func (f *fakeURLAnalyzer) AnalyzeURL(ctx context.Context, model, system, prompt string, schema json.RawMessage) (string, llm.Usage, error) {
	*f.calls = append(*f.calls, "url")
	return f.response, llm.Usage{}, f.err
}

func (f *fakeURLAnalyzer) HasCredential() bool { return true }

type fakeClient struct {
	calls    *[]string
	response string
	err      error
}

func (f *fakeClient) Invoke(ctx context.Context, model, system, prompt string, schema json.RawMessage) (string, llm.Usage, error) {
	*f.calls = append(*f.calls, "content")
	return f.response, llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, f.err
}

type fakeProviderRegistry struct {
	analyzer llm.URLAnalyzer
	client   llm.Client
}

func (f *fakeProviderRegistry) Client(provider string) (llm.Client, error) {
	return f.client, nil
}

func (f *fakeProviderRegistry) URLAnalyzer(providers []config.Provider) (llm.URLAnalyzer, string) {
	if f.analyzer == nil {
		return nil, ""
	}
	return f.analyzer, "url-model"
}

var _ ProviderRegistry = (*fakeProviderRegistry)(nil)

func TestCopyrightAnalyzer_URLTierFailureFallsBackToContentTier(t *testing.T) {
	providers := []config.Provider{{
		Name:          "fake",
		Kind:          "openai",
		Active:        true,
		Models:        []string{"m"},
		ResetTimezone: "UTC",
	}}
	usage := &fakeUsageRepo{}
	ledger := llm.NewLedger(providers, nil, usage)

	var calls []string
	registry := &fakeProviderRegistry{
		analyzer: &fakeURLAnalyzer{calls: &calls, err: errors.New("overloaded")},
		client: &fakeClient{
			calls:    &calls,
			response: `{"license_type":"CC BY 4.0","is_translation_allowed":true,"attribution_required":true,"confidence_score":0.9,"reasoning":"Explicit license banner"}`,
		},
	}

	analyzer := NewCopyrightAnalyzer(registry, ledger, providers, usage)
	result := analyzer.Analyze(context.Background(), "article body", "https://example.com/post")

	if len(calls) != 2 || calls[0] != "url" || calls[1] != "content" {
		t.Fatalf("Expected url tier before content tier, got %v", calls)
	}
	if result.LicenseType != "CC BY 4.0" {
		t.Errorf("Expected content-tier license, got %q", result.LicenseType)
	}
	if !result.IsTranslationAllowed {
		t.Error("Expected content-tier translation permission to be used")
	}
	if result.ConfidenceScore != 0.9 {
		t.Errorf("Expected content-tier confidence, got %f", result.ConfidenceScore)
	}
	if result.Reasoning != "Explicit license banner" {
		t.Errorf("Expected content-tier reasoning, got %q", result.Reasoning)
	}
	if len(usage.appended) != 1 {
		t.Fatalf("Expected one usage record from the content tier, got %d", len(usage.appended))
	}
	if usage.appended[0].ModelName != "fake:m" {
		t.Errorf("Expected usage recorded against fake:m, got %q", usage.appended[0].ModelName)
	}
}

func TestCopyrightAnalyzer_URLTierSuccessSkipsContentTier(t *testing.T) {
	providers := []config.Provider{{
		Name:          "fake",
		Kind:          "openai",
		Active:        true,
		Models:        []string{"m"},
		ResetTimezone: "UTC",
	}}
	usage := &fakeUsageRepo{}
	ledger := llm.NewLedger(providers, nil, usage)

	var calls []string
	registry := &fakeProviderRegistry{
		analyzer: &fakeURLAnalyzer{
			calls:    &calls,
			response: `{"license_type":"MIT","is_translation_allowed":true,"attribution_required":true,"confidence_score":0.8,"reasoning":"License page found"}`,
		},
		client: &fakeClient{calls: &calls, response: `{}`},
	}

	analyzer := NewCopyrightAnalyzer(registry, ledger, providers, usage)
	result := analyzer.Analyze(context.Background(), "article body", "https://example.com/post")

	if len(calls) != 1 || calls[0] != "url" {
		t.Fatalf("Expected only the url tier to run, got %v", calls)
	}
	if result.LicenseType != "MIT" {
		t.Errorf("Expected url-tier license, got %q", result.LicenseType)
	}
}

func TestCopyrightAnalyzer_NoProvidersYieldsConservativeDefault(t *testing.T) {
	var providers []config.Provider
	registry, err := llm.NewRegistry(providers, "test-agent", http.DefaultClient)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	usage := &fakeUsageRepo{}
	ledger := llm.NewLedger(providers, nil, usage)

	analyzer := NewCopyrightAnalyzer(registry, ledger, providers, usage)

	result := analyzer.Analyze(context.Background(), "some article body", "https://example.com/post")

	if result.LicenseType != "All Rights Reserved" {
		t.Errorf("Expected All Rights Reserved, got %q", result.LicenseType)
	}
	if result.IsTranslationAllowed {
		t.Error("Translation must not be allowed by default")
	}
	if !result.AttributionRequired {
		t.Error("Attribution must be required by default")
	}
	if result.ConfidenceScore != 0.0 {
		t.Errorf("Expected zero confidence, got %f", result.ConfidenceScore)
	}
	if !strings.Contains(result.Reasoning, "Default conservative result") {
		t.Errorf("Reasoning should state the fallback, got %q", result.Reasoning)
	}
	if len(usage.appended) != 0 {
		t.Errorf("No usage should be recorded without an invocation, got %d", len(usage.appended))
	}
}

func TestDefaultCopyrightResult_EmbedsReason(t *testing.T) {
	result := defaultCopyrightResult("Analysis failed: boom")
	if !strings.Contains(result.Reasoning, "Analysis failed: boom") {
		t.Errorf("Reason should be embedded, got %q", result.Reasoning)
	}
}
