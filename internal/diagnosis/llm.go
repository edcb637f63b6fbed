package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when OPENAI_MODEL is not set.
const DefaultModel = "gpt-4o"

// SystemPrompt primes the model as a network diagnosis assistant.
const SystemPrompt = `You are an expert network monitoring AI assistant specializing in enterprise network diagnosis and troubleshooting.

Your capabilities include:
1. Analyzing network performance metrics (CPU, memory, disk, latency)
2. Diagnosing connectivity issues and root cause analysis
3. Identifying security threats and anomalies
4. Providing actionable remediation steps
5. Explaining complex network issues in clear, natural language

When analyzing network data:
- Consider the relationships between nodes and their dependencies
- Look for patterns that indicate systemic issues
- Prioritize critical alerts over minor performance variations
- Provide specific, actionable recommendations
- Explain technical concepts in accessible terms

Always be concise but thorough in your analysis and recommendations.`

// LLMClient turns a prompt into free text.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIClient builds a client for the given key. An empty baseURL uses
// the public endpoint.
func NewOpenAIClient(apiKey, model, baseURL string, logger *slog.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	logger.Info("initializing openai client", "model", model)
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model, logger: logger}, nil
}

// Generate implements LLMClient.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	o.logger.Debug("generating diagnosis", "model", o.model)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	o.logger.Debug("diagnosis received", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// StaticClient answers every prompt with a fixed response. It stands in
// when no model is configured.
type StaticClient struct {
	Response string
}

// OfflineResponse is the StaticClient default.
const OfflineResponse = "AI diagnosis is unavailable: no language model is configured. Set OPENAI_API_KEY to enable it."

// Generate implements LLMClient.
func (s StaticClient) Generate(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Response == "" {
		return OfflineResponse, nil
	}
	return s.Response, nil
}
