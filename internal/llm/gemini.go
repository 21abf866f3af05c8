package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient implementa Client usando a Gemini API.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient cria um novo cliente usando a Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("erro ao criar cliente Gemini: %w\n\nCertifique-se de:\n1. Ter uma API key do Google AI Studio\n2. Configurar via --api-key ou LORGANIZER_API_KEY\n3. Obtenha em: https://aistudio.google.com/apikey", err)
	}

	slog.Info("cliente Gemini inicializado")
	return &GeminiClient{client: client}, nil
}

// Close fecha o cliente.
func (c *GeminiClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Complete envia a requisição e devolve o texto da primeira candidata.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	sampling, err := ParseOptions(req.Options)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(req.Model)
	if sampling.Temperature != nil {
		model.SetTemperature(*sampling.Temperature)
	}
	if sampling.TopP != nil {
		model.SetTopP(*sampling.TopP)
	}
	if sampling.MaxTokens != nil {
		model.SetMaxOutputTokens(int32(*sampling.MaxTokens))
	}

	// Instruções do sistema
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}

	// Forçar saída JSON
	if req.Format == FormatJSONObject {
		model.ResponseMIMEType = "application/json"
	}

	part, err := geminiUserPart(req)
	if err != nil {
		return "", err
	}

	if sampling.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sampling.Timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, part)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return geminiText(resp)
}

func geminiUserPart(req Request) (genai.Part, error) {
	if !req.IsImage() {
		return genai.Text(req.Text), nil
	}
	mimeType, data, err := ParseDataURL(req.ImageURL)
	if err != nil {
		return nil, err
	}
	return genai.Blob{MIMEType: mimeType, Data: data}, nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("resposta vazia da IA")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("conteúdo vazio na resposta")
	}

	var sb strings.Builder
	for _, p := range candidate.Content.Parts {
		if text, ok := p.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("resposta não é texto")
	}
	return strings.TrimSpace(sb.String()), nil
}

func classifyGeminiError(err error) error {
	code := 0
	var apiErr *apierror.APIError
	var gErr *googleapi.Error
	switch {
	case errors.As(err, &gErr):
		code = gErr.Code
	case errors.As(err, &apiErr):
		code = apiErr.HTTPCode()
	}

	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("erro na API Gemini: %w", err)
}
