package curation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/llm"
)

const summaryBodyLimit = 3000

const summarySystemPrompt = "You are a helpful AI assistant that creates concise, accurate summaries of Korean content."

// Summarizer produces short Korean summaries of Korean articles. An empty
// result means "no provider available right now" or "invocation failed";
// both are deferrals, not errors, and the item stays eligible for a later
// attempt.
type Summarizer struct {
	registry  *llm.Registry
	ledger    *llm.Ledger
	usageRepo database.UsageRepository
}

func NewSummarizer(registry *llm.Registry, ledger *llm.Ledger, usageRepo database.UsageRepository) *Summarizer {
	return &Summarizer{
		registry:  registry,
		ledger:    ledger,
		usageRepo: usageRepo,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	provider, model, err := s.ledger.Select()
	if err != nil {
		return "", fmt.Errorf("failed to select provider: %w", err)
	}
	if provider == "" {
		slog.Info("No provider with available quota for summarization")
		return "", nil
	}

	client, err := s.registry.Client(provider)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`다음 한국어 콘텐츠를 간결하고 정확하게 요약해주세요:

%s

요약 시 다음 사항을 고려해주세요:
1. 핵심 내용과 주요 포인트 포함
2. 2-3문장으로 간결하게 작성
3. 기술적 내용의 경우 주요 개념과 결론 포함
4. 원문의 톤과 맥락 유지`, truncateRunes(text, summaryBodyLimit))

	summary, usage, err := client.Invoke(ctx, model, summarySystemPrompt, prompt, nil)
	if err != nil {
		slog.Error("Summarization invocation failed", "model", llm.ModelKey(provider, model), "error", err)
		return "", nil
	}

	recordUsage(s.usageRepo, provider, model, usage)

	slog.Info("Korean summary generated", "model", llm.ModelKey(provider, model))
	return summary, nil
}
