package classifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vitoramaral10/local-organizer/internal/llm"
)

// RetryPolicy repete chamadas limitadas por taxa com intervalo fixo.
// MaxAttempts conta todas as tentativas, incluindo a primeira.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// NewTimer substitui o timer real (testes); nil usa o relógio do sistema.
	NewTimer func() backoff.Timer
}

// Do executa op até o sucesso, um erro que não seja ErrRateLimited,
// ou o esgotamento das tentativas. Retorna também o número de tentativas feitas.
func (p RetryPolicy) Do(ctx context.Context, op func() (string, error)) (string, int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	operation := func() (string, error) {
		attempts++
		out, err := op()
		if err != nil && !llm.IsRateLimited(err) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(maxAttempts-1)),
		ctx,
	)

	notify := func(err error, next time.Duration) {
		slog.Warn("limite de requisições atingido, tentando novamente",
			"attempt", attempts, "retry_in", next, "error", err)
	}

	var timer backoff.Timer
	if p.NewTimer != nil {
		timer = p.NewTimer()
	}

	out, err := backoff.RetryNotifyWithTimerAndData(operation, b, notify, timer)
	return out, attempts, err
}
