package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var (
	_ Client      = (*GeminiClient)(nil)
	_ URLAnalyzer = (*GeminiClient)(nil)
)

// GeminiClient speaks the generateContent protocol. It additionally
// implements URLAnalyzer: with the url_context tool enabled the backend
// fetches and reads a page itself, which the copyright analyzer uses as its
// first tier.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

func NewGeminiClient(baseURL, apiKey, userAgent string, httpClient *http.Client) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// HasCredential reports whether an API key is configured. The registry
// checks this before offering the client for the direct-URL tier.
func (c *GeminiClient) HasCredential() bool {
	return c.apiKey != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiTool struct {
	URLContext *struct{} `json:"url_context,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GeminiClient) Invoke(ctx context.Context, model, system, prompt string, schema json.RawMessage) (string, Usage, error) {
	return c.generate(ctx, model, system, prompt, schema, nil)
}

func (c *GeminiClient) AnalyzeURL(ctx context.Context, model, system, prompt string, schema json.RawMessage) (string, Usage, error) {
	tools := []geminiTool{{URLContext: &struct{}{}}}
	return c.generate(ctx, model, system, prompt, schema, tools)
}

func (c *GeminiClient) generate(ctx context.Context, model, system, prompt string, schema json.RawMessage, tools []geminiTool) (string, Usage, error) {
	if c.apiKey == "" {
		return "", Usage{}, fmt.Errorf("no API key configured")
	}

	if schema != nil {
		system = system + "\n\nReturn a single JSON object matching this schema:\n" + string(schema)
	}

	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		Tools: tools,
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	if schema != nil && tools == nil {
		// response_mime_type cannot be combined with tools
		req.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to call generateContent: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", Usage{}, fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, resp.Status, truncateBody(data))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", Usage{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", Usage{}, fmt.Errorf("backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", Usage{}, fmt.Errorf("response contains no candidates")
	}

	usage := Usage{
		InputTokens:  parsed.UsageMetadata.PromptTokenCount,
		OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  parsed.UsageMetadata.TotalTokenCount,
	}

	return parsed.Candidates[0].Content.Parts[0].Text, usage, nil
}
