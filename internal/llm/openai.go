package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIBaseURL é o endpoint usado quando nenhum base_url é configurado.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient fala com qualquer API compatível com OpenAI (OpenAI, Groq, Ollama...).
type OpenAIClient struct {
	api *openai.Client
}

// NewOpenAIClient cria um cliente para o endpoint informado.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cfg)}
}

// Complete envia a requisição e devolve o conteúdo da primeira escolha.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	chatReq, timeout, err := buildOpenAIRequest(req)
	if err != nil {
		return "", err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("resposta sem escolhas")
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("resposta recebida",
		"model", req.Model,
		"content_length", len(content),
		"duration_ms", time.Since(start).Milliseconds())
	return content, nil
}

func buildOpenAIRequest(req Request) (openai.ChatCompletionRequest, time.Duration, error) {
	sampling, err := ParseOptions(req.Options)
	if err != nil {
		return openai.ChatCompletionRequest{}, 0, err
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.IsImage() {
		user.MultiContent = []openai.ChatMessagePart{{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: req.ImageURL},
		}}
	} else {
		user.Content = req.Text
	}

	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			user,
		},
	}
	if req.Format == FormatJSONObject {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if sampling.Temperature != nil {
		chatReq.Temperature = *sampling.Temperature
	}
	if sampling.TopP != nil {
		chatReq.TopP = *sampling.TopP
	}
	if sampling.MaxTokens != nil {
		chatReq.MaxTokens = *sampling.MaxTokens
	}
	if sampling.PresencePenalty != nil {
		chatReq.PresencePenalty = *sampling.PresencePenalty
	}
	if sampling.FrequencyPenalty != nil {
		chatReq.FrequencyPenalty = *sampling.FrequencyPenalty
	}
	chatReq.Seed = sampling.Seed

	return chatReq, sampling.Timeout, nil
}

// classifyOpenAIError traduz os erros do SDK para ErrRateLimited / ErrAuthentication.
func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return fmt.Errorf("erro na API openai: %w", err)
}
