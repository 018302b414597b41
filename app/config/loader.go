package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFeeds reads and validates the feed sources file.
func LoadFeeds(path string) ([]FeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var file FeedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	seen := make(map[string]bool, len(file.Feeds))
	for i, feed := range file.Feeds {
		if feed.Name == "" {
			return nil, fmt.Errorf("feed %d has no name", i)
		}
		if feed.URL == "" {
			return nil, fmt.Errorf("feed %q has no url", feed.Name)
		}
		if seen[feed.Name] {
			return nil, fmt.Errorf("duplicate feed name %q", feed.Name)
		}
		seen[feed.Name] = true
	}

	return file.Feeds, nil
}

// LoadLLM reads and validates the LLM provider configuration. Providers come
// back sorted by priority; ties keep the file order.
func LoadLLM(path string) (*LLMFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read llm file: %w", err)
	}

	var file LLMFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse llm file: %w", err)
	}

	seen := make(map[string]bool, len(file.Providers))
	for i := range file.Providers {
		p := &file.Providers[i]
		if p.Name == "" {
			return nil, fmt.Errorf("provider %d has no name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate provider name %q", p.Name)
		}
		seen[p.Name] = true

		switch p.Kind {
		case "openai", "gemini":
		default:
			return nil, fmt.Errorf("provider %q has unknown kind %q", p.Name, p.Kind)
		}

		if p.ResetTimezone == "" {
			p.ResetTimezone = "UTC"
		}
		if _, err := time.LoadLocation(p.ResetTimezone); err != nil {
			return nil, fmt.Errorf("provider %q has invalid reset timezone: %w", p.Name, err)
		}
	}

	sort.SliceStable(file.Providers, func(i, j int) bool {
		return file.Providers[i].Priority < file.Providers[j].Priority
	})

	if file.Limits == nil {
		file.Limits = make(map[string]ModelLimit)
	}

	return &file, nil
}
