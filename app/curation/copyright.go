package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/curation-kr/pipeline/app/config"
	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/llm"
)

const copyrightBodyLimit = 4000

// CopyrightResult is the structured outcome of a licensing analysis.
type CopyrightResult struct {
	LicenseType          string  `json:"license_type"`
	IsTranslationAllowed bool    `json:"is_translation_allowed"`
	AttributionRequired  bool    `json:"attribution_required"`
	ConfidenceScore      float64 `json:"confidence_score"`
	Reasoning            string  `json:"reasoning"`
	CopyrightNotice      string  `json:"copyright_notice"`
	LicenseURL           string  `json:"license_url"`
}

var copyrightSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "license_type": {"type": "string", "description": "The identified license type (e.g. 'MIT', 'CC BY-SA 4.0', 'All Rights Reserved', 'Unknown')"},
    "is_translation_allowed": {"type": "boolean", "description": "Whether translation is permitted based on the license"},
    "attribution_required": {"type": "boolean", "description": "Whether attribution to the original author or source is required"},
    "confidence_score": {"type": "number", "minimum": 0, "maximum": 1, "description": "Confidence level in the analysis"},
    "reasoning": {"type": "string", "description": "Explanation of the analysis and decision"},
    "copyright_notice": {"type": "string", "description": "Any specific copyright notice found in the content"},
    "license_url": {"type": "string", "description": "URL to the license text if found"}
  },
  "required": ["license_type", "is_translation_allowed", "attribution_required", "confidence_score", "reasoning"]
}`)

const copyrightSystemPrompt = `You are a legal AI assistant specialized in copyright and licensing analysis.

Your task is to analyze web content and determine:
1. The copyright license type
2. Whether translation is permitted
3. Whether attribution is required
4. Your confidence in the analysis

IMPORTANT GUIDELINES:
- Be conservative: when in doubt, assume stricter restrictions
- Look for explicit license statements, copyright notices, and terms of use
- Consider common license types: MIT, Apache, GPL, CC (Creative Commons), All Rights Reserved
- If no clear license is found, assume "All Rights Reserved" and no translation permission
- Provide detailed reasoning for your analysis
- Score confidence based on clarity of licensing information found

TRANSLATION PERMISSION RULES:
- MIT, Apache, BSD: allows translation with attribution
- GPL: allows translation but derivative work must be GPL
- CC BY: allows translation with attribution
- CC BY-SA: allows translation with attribution, share-alike
- CC BY-NC: allows translation with attribution, non-commercial only
- All Rights Reserved: no translation without permission
- Unknown/Unclear: assume no permission (be conservative)`

// ProviderRegistry hands out constructed AI clients. Satisfied by
// llm.Registry.
type ProviderRegistry interface {
	Client(provider string) (llm.Client, error)
	URLAnalyzer(providers []config.Provider) (llm.URLAnalyzer, string)
}

// CopyrightAnalyzer decides whether a foreign article may be translated.
// Tier 1 asks a URL-capable backend to read the live page; any failure
// there falls through silently to tier 2, a quota-governed content
// analysis. Absence of licensing information is never read as permission.
type CopyrightAnalyzer struct {
	registry  ProviderRegistry
	ledger    *llm.Ledger
	providers []config.Provider
	usageRepo database.UsageRepository
}

func NewCopyrightAnalyzer(registry ProviderRegistry, ledger *llm.Ledger, providers []config.Provider, usageRepo database.UsageRepository) *CopyrightAnalyzer {
	return &CopyrightAnalyzer{
		registry:  registry,
		ledger:    ledger,
		providers: providers,
		usageRepo: usageRepo,
	}
}

func (a *CopyrightAnalyzer) Analyze(ctx context.Context, body, sourceURL string) *CopyrightResult {
	if result := a.analyzeURL(ctx, sourceURL); result != nil {
		return result
	}
	return a.analyzeContent(ctx, body, sourceURL)
}

// analyzeURL runs the direct-URL tier. It never fails upward: any problem
// means "tier unavailable" and the content tier takes over.
func (a *CopyrightAnalyzer) analyzeURL(ctx context.Context, sourceURL string) *CopyrightResult {
	analyzer, model := a.registry.URLAnalyzer(a.providers)
	if analyzer == nil {
		return nil
	}

	prompt := fmt.Sprintf(`Analyze this webpage's copyright and licensing status: %s

Determine:
1. License type (look for explicit licenses, copyright notices, terms of use)
2. Whether translation is permitted for Korean blog publication
3. Whether attribution is required
4. Your confidence in the analysis
5. Detailed reasoning for your decision

Be conservative: assume stricter restrictions when in doubt.`, sourceURL)

	text, _, err := analyzer.AnalyzeURL(ctx, model, copyrightSystemPrompt, prompt, copyrightSchema)
	if err != nil {
		slog.Warn("Direct URL copyright analysis unavailable", "url", sourceURL, "error", err)
		return nil
	}

	var result CopyrightResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		slog.Warn("Direct URL copyright analysis returned malformed JSON", "url", sourceURL, "error", err)
		return nil
	}

	slog.Info("Copyright analyzed from URL", "url", sourceURL, "license", result.LicenseType, "model", model)
	return &result
}

// analyzeContent runs the quota-governed tier over the crawled body text.
// It always returns a usable result; failures map to the conservative
// default.
func (a *CopyrightAnalyzer) analyzeContent(ctx context.Context, body, sourceURL string) *CopyrightResult {
	provider, model, err := a.ledger.Select()
	if err != nil {
		slog.Error("Quota lookup failed during copyright analysis", "error", err)
		return defaultCopyrightResult(fmt.Sprintf("Quota lookup failed: %v", err))
	}
	if provider == "" {
		return defaultCopyrightResult("No AI provider with available quota")
	}

	client, err := a.registry.Client(provider)
	if err != nil {
		return defaultCopyrightResult(fmt.Sprintf("Provider unavailable: %v", err))
	}

	prompt := fmt.Sprintf("URL: %s\n\nContent to analyze:\n%s", sourceURL, truncateRunes(body, copyrightBodyLimit))

	text, usage, err := client.Invoke(ctx, model, copyrightSystemPrompt, prompt, copyrightSchema)
	if err != nil {
		slog.Error("Copyright analysis invocation failed", "url", sourceURL, "model", llm.ModelKey(provider, model), "error", err)
		return defaultCopyrightResult(fmt.Sprintf("Analysis failed: %v", err))
	}

	recordUsage(a.usageRepo, provider, model, usage)

	var result CopyrightResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		slog.Error("Copyright analysis returned malformed JSON", "url", sourceURL, "error", err)
		return defaultCopyrightResult(fmt.Sprintf("Analysis returned malformed result: %v", err))
	}

	slog.Info("Copyright analyzed from content", "url", sourceURL, "license", result.LicenseType, "model", llm.ModelKey(provider, model))
	return &result
}

// defaultCopyrightResult is the fail-closed answer: no license information
// means no permission.
func defaultCopyrightResult(reason string) *CopyrightResult {
	return &CopyrightResult{
		LicenseType:          "All Rights Reserved",
		IsTranslationAllowed: false,
		AttributionRequired:  true,
		ConfidenceScore:      0.0,
		Reasoning:            "Default conservative result used. " + reason,
	}
}

func recordUsage(repo database.UsageRepository, provider, model string, usage llm.Usage) {
	err := repo.Append(database.UsageRecord{
		ModelName:    llm.ModelKey(provider, model),
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	})
	if err != nil {
		slog.Error("Failed to record model usage", "model", llm.ModelKey(provider, model), "error", err)
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
