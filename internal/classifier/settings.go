package classifier

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second
	DefaultTextLimit  = 4096
)

// ErrConfiguration indica que prompt ou modelo não foram configurados.
var ErrConfiguration = errors.New("configuração incompleta")

// Settings reúne o que é necessário para classificar arquivos.
type Settings struct {
	Prompt     string
	Model      string
	Options    map[string]any
	MaxRetries int
	RetryDelay time.Duration
	TextLimit  int
}

// Validate verifica os campos obrigatórios.
func (s Settings) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("%w: modelo não definido", ErrConfiguration)
	}
	if s.Prompt == "" {
		return fmt.Errorf("%w: prompt não definido", ErrConfiguration)
	}
	return nil
}

// WithDefaults preenche os campos zerados com os valores padrão.
func (s Settings) WithDefaults() Settings {
	if s.Options == nil {
		s.Options = map[string]any{}
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = DefaultRetryDelay
	}
	if s.TextLimit <= 0 {
		s.TextLimit = DefaultTextLimit
	}
	return s
}
