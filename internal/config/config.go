package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vitoramaral10/local-organizer/internal/classifier"
	"github.com/vitoramaral10/local-organizer/internal/llm"
	"github.com/vitoramaral10/local-organizer/internal/scan"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Provider       string         `mapstructure:"provider"`
	APIKey         string         `mapstructure:"api_key"`
	BaseURL        string         `mapstructure:"base_url"`
	Model          string         `mapstructure:"model"`
	Prompt         string         `mapstructure:"prompt"`
	PromptFile     string         `mapstructure:"prompt_file"`
	RequestOptions map[string]any `mapstructure:"request_options"`
	MaxRetries     int            `mapstructure:"max_retries"`
	RetryDelay     time.Duration  `mapstructure:"-"`
	TextLimit      int            `mapstructure:"text_limit"`
	Workers        int            `mapstructure:"workers"`
	RateLimit      float64        `mapstructure:"rate_limit"`
	MimeFilter     string         `mapstructure:"mime_filter"`
	Include        []string       `mapstructure:"include"`
	Exclude        []string       `mapstructure:"exclude"`
	LogLevel       string         `mapstructure:"log_level"`
	DryRun         bool           `mapstructure:"dry_run"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		APIKey:         "",
		BaseURL:        llm.DefaultOpenAIBaseURL,
		Model:          "gpt-4o-mini",
		RequestOptions: map[string]any{},
		MaxRetries:     classifier.DefaultMaxRetries,
		RetryDelay:     classifier.DefaultRetryDelay,
		TextLimit:      classifier.DefaultTextLimit,
		Workers:        0,
		RateLimit:      0,
		Include:        scan.DefaultInclude,
		Exclude:        scan.DefaultExclude,
		LogLevel:       "info",
		DryRun:         false,
	}
}

// ConfigDir retorna o diretório de configuração.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "local-organizer")
}

// APIKeyPath retorna o caminho do arquivo que armazena a API key.
func APIKeyPath() string {
	return filepath.Join(ConfigDir(), "api_key")
}

// LoadAPIKey carrega a API key salva em disco.
func LoadAPIKey() (string, error) {
	data, err := os.ReadFile(APIKeyPath())
	if err != nil {
		return "", err
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("arquivo de API key vazio")
	}
	return key, nil
}

// SaveAPIKey salva a API key em disco.
func SaveAPIKey(key string) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("erro ao criar diretório de config: %w", err)
	}
	return os.WriteFile(APIKeyPath(), []byte(strings.TrimSpace(key)), 0600)
}

// ResolvePrompt devolve o prompt configurado, lendo prompt_file quando definido.
// Sem nenhum dos dois, usa o prompt padrão.
func (c *Config) ResolvePrompt() (string, error) {
	if c.PromptFile != "" {
		data, err := os.ReadFile(c.PromptFile)
		if err != nil {
			return "", fmt.Errorf("erro ao ler prompt_file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if c.Prompt != "" {
		return c.Prompt, nil
	}
	return DefaultPrompt, nil
}

// Settings monta a configuração do classificador.
func (c *Config) Settings() (classifier.Settings, error) {
	prompt, err := c.ResolvePrompt()
	if err != nil {
		return classifier.Settings{}, err
	}
	s := classifier.Settings{
		Prompt:     prompt,
		Model:      c.Model,
		Options:    c.RequestOptions,
		MaxRetries: c.MaxRetries,
		RetryDelay: c.RetryDelay,
		TextLimit:  c.TextLimit,
	}
	if err := s.Validate(); err != nil {
		return classifier.Settings{}, err
	}
	return s.WithDefaults(), nil
}

// Validate verifica provedor e limites numéricos.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%w: provedor desconhecido %q", classifier.ErrConfiguration, c.Provider)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers não pode ser negativo", classifier.ErrConfiguration)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit não pode ser negativo", classifier.ErrConfiguration)
	}
	return nil
}

func Load(cfgFile string) (*Config, error) {
	return load(viper.GetViper(), cfgFile)
}

func load(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := DefaultConfig()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("Lorganizer")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("api_key", cfg.APIKey)
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("model", cfg.Model)
	v.SetDefault("prompt", cfg.Prompt)
	v.SetDefault("prompt_file", cfg.PromptFile)
	v.SetDefault("request_options", cfg.RequestOptions)
	v.SetDefault("max_retries", cfg.MaxRetries)
	v.SetDefault("retry_delay", cfg.RetryDelay)
	v.SetDefault("text_limit", cfg.TextLimit)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("rate_limit", cfg.RateLimit)
	v.SetDefault("mime_filter", cfg.MimeFilter)
	v.SetDefault("include", cfg.Include)
	v.SetDefault("exclude", cfg.Exclude)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("dry_run", cfg.DryRun)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("erro ao ler config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("erro ao decodificar config: %w", err)
	}

	// retry_delay aceita segundos ("5") ou duração ("2s")
	delay, err := llm.ParseSeconds(v.Get("retry_delay"))
	if err != nil {
		return nil, fmt.Errorf("%w: retry_delay inválido: %w", classifier.ErrConfiguration, err)
	}
	cfg.RetryDelay = delay

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
