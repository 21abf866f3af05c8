package llm

import (
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Chaves reconhecidas no mapa livre de opções de requisição.
const (
	OptTemperature      = "temperature"
	OptTopP             = "top_p"
	OptMaxTokens        = "max_tokens"
	OptPresencePenalty  = "presence_penalty"
	OptFrequencyPenalty = "frequency_penalty"
	OptSeed             = "seed"
	OptTimeout          = "timeout"
)

// Sampling é a forma tipada das opções de requisição. Campos nil não foram informados.
type Sampling struct {
	Temperature      *float32
	TopP             *float32
	MaxTokens        *int
	PresencePenalty  *float32
	FrequencyPenalty *float32
	Seed             *int
	Timeout          time.Duration
}

// ParseOptions converte o mapa livre de opções em Sampling.
// Chaves desconhecidas são ignoradas.
func ParseOptions(opts map[string]any) (Sampling, error) {
	var s Sampling
	for key, raw := range opts {
		var err error
		switch key {
		case OptTemperature:
			s.Temperature, err = float32Ptr(raw)
		case OptTopP:
			s.TopP, err = float32Ptr(raw)
		case OptPresencePenalty:
			s.PresencePenalty, err = float32Ptr(raw)
		case OptFrequencyPenalty:
			s.FrequencyPenalty, err = float32Ptr(raw)
		case OptMaxTokens:
			s.MaxTokens, err = intPtr(raw)
		case OptSeed:
			s.Seed, err = intPtr(raw)
		case OptTimeout:
			s.Timeout, err = ParseSeconds(raw)
		default:
			slog.Debug("opção de requisição ignorada", "key", key)
		}
		if err != nil {
			return Sampling{}, fmt.Errorf("opção %q inválida: %w", key, err)
		}
	}
	return s, nil
}

// MergeOptions devolve um novo mapa com base sobrescrito por override.
func MergeOptions(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	maps.Copy(merged, base)
	maps.Copy(merged, override)
	return merged
}

func float32Ptr(v any) (*float32, error) {
	f, err := cast.ToFloat32E(v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func intPtr(v any) (*int, error) {
	i, err := cast.ToIntE(v)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// ParseSeconds converte uma duração. Números, inclusive em texto ("30"), são segundos;
// o resto segue o formato de time.ParseDuration ("2m", "500ms").
func ParseSeconds(raw any) (time.Duration, error) {
	if s, ok := raw.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			raw = f
		}
	}
	if isNumber(raw) {
		secs, err := cast.ToFloat64E(raw)
		if err != nil {
			return 0, err
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	return cast.ToDurationE(raw)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return true
	}
	return false
}
