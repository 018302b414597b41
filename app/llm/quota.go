package llm

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/curation-kr/pipeline/app/config"
	"github.com/curation-kr/pipeline/app/database"
)

// Ledger answers "which provider and model may I use right now" from the
// configured quota table and the append-only usage log. Providers are tried
// in ascending priority order; within a provider the configured model order
// is kept. Exhaustion is not an error: the empty pair means "defer and try
// again next cycle".
type Ledger struct {
	providers []config.Provider
	limits    map[string]config.ModelLimit
	usage     database.UsageRepository
	now       func() time.Time
}

func NewLedger(providers []config.Provider, limits map[string]config.ModelLimit, usage database.UsageRepository) *Ledger {
	return &Ledger{
		providers: providers,
		limits:    limits,
		usage:     usage,
		now:       time.Now,
	}
}

// Select returns the highest-priority provider with at least one model
// still under quota, paired with its first available model. Both strings
// are empty when every provider is exhausted.
func (l *Ledger) Select() (string, string, error) {
	for _, p := range l.providers {
		if !p.Active {
			continue
		}

		models, err := l.availableModels(p)
		if err != nil {
			return "", "", err
		}
		if len(models) > 0 {
			return p.Name, models[0], nil
		}
	}

	slog.Debug("No provider with available quota")
	return "", "", nil
}

// ModelKey is the usage-log key for a provider/model pair.
func ModelKey(provider, model string) string {
	return provider + ":" + model
}

// availableModels filters the provider's configured models against the
// quota table. A model without a table entry is unconstrained, so a
// provider with no entries at all is always available; that keeps a
// fallback provider usable even when everything else is spent.
func (l *Ledger) availableModels(p config.Provider) ([]string, error) {
	windowStart, err := l.windowStart(p.ResetTimezone)
	if err != nil {
		return nil, err
	}

	var available []string
	for _, model := range p.Models {
		ok, err := l.modelAvailable(ModelKey(p.Name, model), windowStart)
		if err != nil {
			return nil, err
		}
		if ok {
			available = append(available, model)
		}
	}

	return available, nil
}

func (l *Ledger) modelAvailable(key string, windowStart time.Time) (bool, error) {
	limit, ok := l.limits[key]
	if !ok {
		return true, nil
	}

	requests, tokens, err := l.usage.UsageSince([]string{key}, windowStart)
	if err != nil {
		return false, fmt.Errorf("failed to read usage for %s: %w", key, err)
	}

	if limit.DailyRequests > 0 && requests >= limit.DailyRequests {
		slog.Debug("Model request quota exhausted", "model", key, "requests", requests, "limit", limit.DailyRequests)
		return false, nil
	}
	if limit.DailyTokens > 0 && tokens >= limit.DailyTokens {
		slog.Debug("Model token quota exhausted", "model", key, "tokens", tokens, "limit", limit.DailyTokens)
		return false, nil
	}

	if len(limit.CombinedWith) > 0 && limit.DailyTokens > 0 {
		group := append([]string{key}, limit.CombinedWith...)
		_, groupTokens, err := l.usage.UsageSince(group, windowStart)
		if err != nil {
			return false, fmt.Errorf("failed to read combined usage for %s: %w", key, err)
		}
		if groupTokens >= limit.DailyTokens {
			slog.Debug("Combined token quota exhausted", "model", key, "group_tokens", groupTokens, "limit", limit.DailyTokens)
			return false, nil
		}
	}

	return true, nil
}

// windowStart is midnight "today" in the provider's reset timezone,
// converted to UTC for the usage query. Different backends reset their
// daily quotas in different zones, so this is per provider, not global.
func (l *Ledger) windowStart(tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reset timezone %q: %w", tz, err)
	}

	now := l.now().In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return midnight.UTC(), nil
}
