package openaicompat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/resilience"
)

// Completer generates text through a chat-completions endpoint. The system
// prompt is the instruction channel carrying the agent's behavioral
// contract.
type Completer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	executor    *resilience.Executor
}

type CompleterOptions struct {
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Executor    *resilience.Executor
}

func NewCompleter(baseURL, apiKey, model string, opts CompleterOptions) *Completer {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	return &Completer{
		client:      newClient(baseURL, apiKey),
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		executor:    opts.Executor,
	}
}

func (c *Completer) Complete(ctx context.Context, system string, turns []domain.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, turn := range turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages:    messages,
	}

	var content string
	call := func(callCtx context.Context) error {
		start := time.Now()
		resp, err := c.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chat completion: empty choices")
		}
		content = resp.Choices[0].Message.Content
		slog.Debug("completion received",
			"model", c.model,
			"messages", len(messages),
			"total_tokens", resp.Usage.TotalTokens,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "llm.complete", call, classifyProviderError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}
