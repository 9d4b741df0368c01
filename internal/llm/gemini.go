package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiClient classifies through the Gemini API in JSON response mode.
type geminiClient struct {
	client *genai.Client
}

func newGeminiClient(ctx context.Context, cfg Config) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = newHTTPClient(cfg.Timeout)
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiClient{client: client}, nil
}

func (c *geminiClient) classify(ctx context.Context, req Request) (Response, error) {
	// A zero budget turns thinking off; -1 lets the model decide.
	budget := int32(0)
	if req.EnableThinking {
		budget = -1
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(req.Temperature)),
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(budget)},
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.ModelName, genai.Text(buildBatchPrompt(req)), config)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return Response{}, fmt.Errorf("empty response from gemini")
	}

	results, err := parseBatchResults(rawText)
	if err != nil {
		return Response{}, err
	}

	out := Response{
		ModelName: resp.ModelVersion,
		Results:   results,
	}
	if resp.UsageMetadata != nil {
		out.Usage = &Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}
