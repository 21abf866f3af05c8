package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"

	"github.com/vitoramaral10/local-organizer/internal/llm"
)

// Amostragem fixa para imagens; prevalece sobre as opções configuradas.
var imageSampling = map[string]any{
	llm.OptTemperature:      1,
	llm.OptMaxTokens:        256,
	llm.OptTopP:             1,
	llm.OptFrequencyPenalty: 0,
	llm.OptPresencePenalty:  0,
}

// Detector devolve o tipo MIME de um arquivo.
type Detector interface {
	Detect(path string) (string, error)
}

// Classifier classifica um arquivo por vez usando a IA.
type Classifier struct {
	client   llm.Client
	detector Detector
	cache    *Cache
	settings Settings
	newTimer func() backoff.Timer
}

// Option configura um Classifier.
type Option func(*Classifier)

// WithTimer injeta o timer usado entre tentativas.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(c *Classifier) {
		c.newTimer = newTimer
	}
}

// New cria um classificador. O cache pertence ao chamador e pode ser compartilhado.
func New(client llm.Client, detector Detector, cache *Cache, settings Settings, opts ...Option) *Classifier {
	if cache == nil {
		cache = NewCache()
	}
	c := &Classifier{
		client:   client,
		detector: detector,
		cache:    cache,
		settings: settings.WithDefaults(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings retorna a configuração em uso.
func (c *Classifier) Settings() Settings {
	return c.settings
}

// Classify classifica o arquivo em path.
// O erro só é não nulo para configuração incompleta; falhas do arquivo ficam em Result.
func (c *Classifier) Classify(ctx context.Context, path string) (Result, error) {
	if err := c.settings.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{Path: path}

	if text, ok := c.cache.Get(path); ok {
		slog.Info("usando classificação em cache", "file", path)
		res.Kind = Success
		res.Text = text
		res.Cached = true
		return res, nil
	}

	slog.Info("preparando arquivo", "file", path)
	mimeType, err := c.detector.Detect(path)
	if err != nil {
		slog.Error("erro ao detectar tipo", "file", path, "error", err)
		return failed(res, "detecção de tipo", err), nil
	}
	res.MimeType = mimeType

	req, err := c.buildRequest(path, mimeType)
	if errors.Is(err, errUnsupported) {
		slog.Warn("tipo ainda não suportado", "file", path, "mime", mimeType)
		res.Kind = Skipped
		res.Reason = fmt.Sprintf("tipo %s não suportado", mimeType)
		return res, nil
	}
	if err != nil {
		slog.Error("erro ao ler arquivo", "file", path, "error", err)
		return failed(res, "leitura", err), nil
	}

	policy := RetryPolicy{
		MaxAttempts: c.settings.MaxRetries,
		Delay:       c.settings.RetryDelay,
		NewTimer:    c.newTimer,
	}
	text, attempts, err := policy.Do(ctx, func() (string, error) {
		return c.client.Complete(ctx, req)
	})
	res.Attempts = attempts
	if err != nil {
		switch {
		case llm.IsRateLimited(err):
			slog.Error("máximo de tentativas atingido", "file", path, "attempts", attempts)
			return failed(res, "tentativas esgotadas", err), nil
		case llm.IsAuthentication(err):
			slog.Error("erro de autenticação", "file", path, "error", err)
			return failed(res, "autenticação", err), nil
		default:
			slog.Error("erro ao preparar arquivo", "file", path, "error", err)
			return failed(res, "chamada à IA", err), nil
		}
	}

	slog.Info("arquivo preparado", "file", path, "attempts", attempts, "result", text)
	c.cache.Set(path, text)
	res.Kind = Success
	res.Text = text
	return res, nil
}

var errUnsupported = errors.New("tipo não suportado")

func (c *Classifier) buildRequest(path, mimeType string) (llm.Request, error) {
	req := llm.Request{
		Model:   c.settings.Model,
		System:  c.settings.Prompt,
		Format:  llm.FormatJSONObject,
		Options: llm.MergeOptions(nil, c.settings.Options),
	}

	switch {
	case strings.HasPrefix(mimeType, "text"):
		content, err := os.ReadFile(path)
		if err != nil {
			return llm.Request{}, err
		}
		if !utf8.Valid(content) {
			return llm.Request{}, fmt.Errorf("'%s' não é UTF-8 válido", path)
		}
		if len(content) > c.settings.TextLimit {
			content = content[:c.settings.TextLimit]
		}
		req.Text = string(content)

	case strings.HasPrefix(mimeType, "image"):
		data, err := os.ReadFile(path)
		if err != nil {
			return llm.Request{}, err
		}
		req.ImageURL = llm.DataURL(mimeType, data)
		req.Options = llm.MergeOptions(c.settings.Options, imageSampling)

	default:
		return llm.Request{}, errUnsupported
	}

	return req, nil
}

func failed(res Result, reason string, err error) Result {
	res.Kind = Failed
	res.Reason = reason
	res.Err = err
	return res
}
