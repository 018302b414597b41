package llm

import (
	"testing"
	"time"

	"github.com/curation-kr/pipeline/app/config"
	"github.com/curation-kr/pipeline/app/database"
)

type fakeUsageRepo struct {
	requests map[string]int
	tokens   map[string]int64
	appended []database.UsageRecord
	since    time.Time
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{
		requests: make(map[string]int),
		tokens:   make(map[string]int64),
	}
}

func (f *fakeUsageRepo) Append(rec database.UsageRecord) error {
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeUsageRepo) UsageSince(modelNames []string, since time.Time) (int, int64, error) {
	f.since = since
	var requests int
	var tokens int64
	for _, name := range modelNames {
		requests += f.requests[name]
		tokens += f.tokens[name]
	}
	return requests, tokens, nil
}

func testProviders() []config.Provider {
	return []config.Provider{
		{Name: "gemini", Kind: "gemini", Priority: 1, Active: true, Models: []string{"flash", "flash-lite"}, ResetTimezone: "America/Los_Angeles"},
		{Name: "openai", Kind: "openai", Priority: 2, Active: true, Models: []string{"gpt-4o-mini"}, ResetTimezone: "UTC"},
	}
}

func TestLedger_Select_PriorityOrder(t *testing.T) {
	usage := newFakeUsageRepo()
	ledger := NewLedger(testProviders(), map[string]config.ModelLimit{}, usage)

	provider, model, err := ledger.Select()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if provider != "gemini" || model != "flash" {
		t.Errorf("Expected gemini/flash, got %s/%s", provider, model)
	}
}

func TestLedger_Select_RequestLimitBoundary(t *testing.T) {
	usage := newFakeUsageRepo()
	limits := map[string]config.ModelLimit{
		"gemini:flash":      {DailyRequests: 10},
		"gemini:flash-lite": {DailyRequests: 10},
	}
	ledger := NewLedger(testProviders(), limits, usage)

	// One request below the limit: still available.
	usage.requests["gemini:flash"] = 9
	provider, model, err := ledger.Select()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if provider != "gemini" || model != "flash" {
		t.Errorf("Expected gemini/flash at requests=9, got %s/%s", provider, model)
	}

	// At the limit: the next model takes over.
	usage.requests["gemini:flash"] = 10
	provider, model, err = ledger.Select()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if provider != "gemini" || model != "flash-lite" {
		t.Errorf("Expected gemini/flash-lite at requests=10, got %s/%s", provider, model)
	}
}

func TestLedger_Select_TokenLimitBoundary(t *testing.T) {
	usage := newFakeUsageRepo()
	limits := map[string]config.ModelLimit{
		"gemini:flash": {DailyTokens: 1000},
	}
	ledger := NewLedger(testProviders(), limits, usage)

	usage.tokens["gemini:flash"] = 999
	provider, model, _ := ledger.Select()
	if provider != "gemini" || model != "flash" {
		t.Errorf("Expected gemini/flash at tokens=999, got %s/%s", provider, model)
	}

	usage.tokens["gemini:flash"] = 1000
	provider, model, _ = ledger.Select()
	if model == "flash" {
		t.Errorf("flash should be exhausted at tokens=1000, got %s/%s", provider, model)
	}
}

func TestLedger_Select_CombinedGroupLimit(t *testing.T) {
	usage := newFakeUsageRepo()
	limits := map[string]config.ModelLimit{
		"gemini:flash":      {DailyTokens: 1000, CombinedWith: []string{"gemini:flash-lite"}},
		"gemini:flash-lite": {DailyTokens: 1000, CombinedWith: []string{"gemini:flash"}},
	}
	ledger := NewLedger(testProviders(), limits, usage)

	usage.tokens["gemini:flash"] = 400
	usage.tokens["gemini:flash-lite"] = 599
	provider, model, _ := ledger.Select()
	if provider != "gemini" || model != "flash" {
		t.Errorf("Expected gemini/flash under combined limit, got %s/%s", provider, model)
	}

	// Group total reaches the shared budget: both gemini models go dark,
	// the fallback provider takes over.
	usage.tokens["gemini:flash-lite"] = 600
	provider, model, _ = ledger.Select()
	if provider != "openai" || model != "gpt-4o-mini" {
		t.Errorf("Expected openai fallback at group limit, got %s/%s", provider, model)
	}
}

func TestLedger_Select_UnconstrainedModelAlwaysAvailable(t *testing.T) {
	usage := newFakeUsageRepo()
	usage.requests["openai:gpt-4o-mini"] = 1000000
	ledger := NewLedger(testProviders()[1:], map[string]config.ModelLimit{}, usage)

	provider, model, err := ledger.Select()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if provider != "openai" || model != "gpt-4o-mini" {
		t.Errorf("Model without a limit entry should always be available, got %s/%s", provider, model)
	}
}

func TestLedger_Select_ExhaustionReturnsEmptyPair(t *testing.T) {
	usage := newFakeUsageRepo()
	providers := []config.Provider{
		{Name: "gemini", Kind: "gemini", Priority: 1, Active: true, Models: []string{"flash"}, ResetTimezone: "UTC"},
	}
	limits := map[string]config.ModelLimit{
		"gemini:flash": {DailyRequests: 5},
	}
	usage.requests["gemini:flash"] = 5
	ledger := NewLedger(providers, limits, usage)

	provider, model, err := ledger.Select()
	if err != nil {
		t.Fatalf("Exhaustion must not be an error, got: %v", err)
	}
	if provider != "" || model != "" {
		t.Errorf("Expected empty pair on exhaustion, got %s/%s", provider, model)
	}
}

func TestLedger_Select_InactiveProviderSkipped(t *testing.T) {
	usage := newFakeUsageRepo()
	providers := testProviders()
	providers[0].Active = false
	ledger := NewLedger(providers, map[string]config.ModelLimit{}, usage)

	provider, _, _ := ledger.Select()
	if provider != "openai" {
		t.Errorf("Inactive provider should be skipped, got %s", provider)
	}
}

func TestLedger_WindowStart_PacificReset(t *testing.T) {
	usage := newFakeUsageRepo()
	ledger := NewLedger(testProviders(), map[string]config.ModelLimit{}, usage)

	// 2026-01-15 06:00 UTC is still 2026-01-14 22:00 in Los Angeles, so
	// the quota window opened at LA midnight of the 14th.
	ledger.now = func() time.Time {
		return time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)
	}

	start, err := ledger.windowStart("America/Los_Angeles")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := time.Date(2026, 1, 14, 8, 0, 0, 0, time.UTC)
	if !start.Equal(expected) {
		t.Errorf("Expected window start %v, got %v", expected, start)
	}

	utcStart, err := ledger.windowStart("UTC")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expectedUTC := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if !utcStart.Equal(expectedUTC) {
		t.Errorf("Expected UTC window start %v, got %v", expectedUTC, utcStart)
	}
}

func TestModelKey(t *testing.T) {
	if got := ModelKey("gemini", "flash"); got != "gemini:flash" {
		t.Errorf("Expected gemini:flash, got %s", got)
	}
}
