package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled limita a taxa de chamadas ao cliente interno.
type Throttled struct {
	next    Client
	limiter *rate.Limiter
}

// NewThrottled envolve next com um token bucket de perSecond requisições por segundo.
// Com perSecond <= 0 devolve next sem limite.
func NewThrottled(next Client, perSecond float64) Client {
	if perSecond <= 0 {
		return next
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Complete aguarda uma vaga no limitador e delega.
func (t *Throttled) Complete(ctx context.Context, req Request) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("aguardando limitador: %w", err)
	}
	return t.next.Complete(ctx, req)
}
