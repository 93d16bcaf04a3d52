package llm

import (
	"context"
	"errors"

	openaiapi "github.com/sashabaranov/go-openai"
)

// openAICompleter talks to OpenAI or any server speaking its chat API.
type openAICompleter struct {
	api   *openaiapi.Client
	model string
}

func newOpenAICompleter(token, baseURL, model string) *openAICompleter {
	cfg := openaiapi.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAICompleter{
		api:   openaiapi.NewClientWithConfig(cfg),
		model: model,
	}
}

func (c *openAICompleter) complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openaiapi.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openaiapi.ChatCompletionMessage{
			Role:    openaiapi.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openaiapi.ChatCompletionMessage{
		Role:    openaiapi.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openaiapi.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
