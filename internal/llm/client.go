package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// FormatJSONObject pede ao modelo uma resposta que seja um objeto JSON.
const FormatJSONObject = "json_object"

var (
	// ErrRateLimited indica que o provedor recusou a chamada por limite de requisições.
	ErrRateLimited = errors.New("limite de requisições atingido")
	// ErrAuthentication indica credenciais ausentes ou inválidas.
	ErrAuthentication = errors.New("falha de autenticação")
)

// Request é uma chamada de chat completion com duas mensagens: sistema e usuário.
// A mensagem do usuário é texto (Text) ou uma imagem em data URL (ImageURL).
type Request struct {
	Model    string
	System   string
	Text     string
	ImageURL string
	Format   string
	Options  map[string]any
}

// IsImage retorna true se a mensagem do usuário carrega uma imagem.
func (r Request) IsImage() bool {
	return r.ImageURL != ""
}

// Client é o contrato de qualquer provedor de chat completion.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapta uma função ao contrato Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete chama f(ctx, req).
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// IsRateLimited informa se o erro é um limite de requisições.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsAuthentication informa se o erro é de autenticação.
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }

// DataURL monta uma data URL base64 para o conteúdo informado.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL extrai o tipo MIME e os bytes de uma data URL base64.
func ParseDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, fmt.Errorf("data URL inválida: prefixo ausente")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL inválida: separador ausente")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URL inválida: apenas base64 é suportado")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("erro ao decodificar data URL: %w", err)
	}
	return mimeType, data, nil
}
