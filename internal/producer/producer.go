// Package producer transforma arquivos locais em um plano de organização:
// classifica cada arquivo com a IA e pede uma síntese final em forma de árvore.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/vitoramaral10/local-organizer/internal/classifier"
	"github.com/vitoramaral10/local-organizer/internal/llm"
	"github.com/vitoramaral10/local-organizer/internal/tree"
)

// TreeParseError indica que a resposta da síntese não é um objeto JSON válido.
type TreeParseError struct {
	Raw string
	Err error
}

func (e *TreeParseError) Error() string {
	return fmt.Sprintf("erro ao decodificar resposta JSON da síntese: %v", e.Err)
}

func (e *TreeParseError) Unwrap() error { return e.Err }

// Builder constrói a árvore a partir do objeto JSON devolvido pela síntese.
type Builder func(map[string]any) (*tree.Tree, error)

// Producer mantém o cache e os arquivos preparados de uma execução.
type Producer struct {
	client    llm.Client
	detector  classifier.Detector
	cache     *classifier.Cache
	workers   int
	build     Builder
	timer     func() backoff.Timer
	onResult  func(classifier.Result)
	onPending func(int)

	configured bool
	settings   classifier.Settings
	cls        *classifier.Classifier
	batch      *classifier.Batch
}

// Option configura um Producer.
type Option func(*Producer)

// WithWorkers limita quantos arquivos são classificados ao mesmo tempo (0 = sem limite).
func WithWorkers(n int) Option {
	return func(p *Producer) { p.workers = n }
}

// WithBuilder troca o construtor da árvore.
func WithBuilder(b Builder) Option {
	return func(p *Producer) { p.build = b }
}

// WithTimer injeta o timer usado entre tentativas.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(p *Producer) { p.timer = newTimer }
}

// WithResultHook registra um callback chamado a cada arquivo concluído.
func WithResultHook(fn func(classifier.Result)) Option {
	return func(p *Producer) { p.onResult = fn }
}

// WithPendingHook registra um callback com o total de arquivos que serão classificados
// após filtro e remoção de duplicados.
func WithPendingHook(fn func(n int)) Option {
	return func(p *Producer) { p.onPending = fn }
}

// New cria um produtor. Setup precisa ser chamado antes de classificar.
func New(client llm.Client, detector classifier.Detector, opts ...Option) *Producer {
	p := &Producer{
		client:   client,
		detector: detector,
		cache:    classifier.NewCache(),
		build:    tree.FromJSON,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Setup define prompt, modelo e opções. O cache e os arquivos já preparados são mantidos.
func (p *Producer) Setup(settings classifier.Settings) {
	p.settings = settings.WithDefaults()

	var clsOpts []classifier.Option
	if p.timer != nil {
		clsOpts = append(clsOpts, classifier.WithTimer(p.timer))
	}
	p.cls = classifier.New(p.client, p.detector, p.cache, p.settings, clsOpts...)

	prev := p.batch
	p.batch = classifier.NewBatch(p.cls, p.detector, p.workers)
	p.batch.OnResult = p.onResult
	p.batch.OnPending = p.onPending
	if prev != nil {
		p.batch.Seed(prev.Prepared())
	}
	p.configured = true
}

// PrepareFile classifica um único arquivo.
func (p *Producer) PrepareFile(ctx context.Context, path string) (classifier.Result, error) {
	if err := p.check(); err != nil {
		return classifier.Result{}, err
	}
	return p.cls.Classify(ctx, path)
}

// PrepareFiles classifica files em paralelo; mimeFilter vazio aceita qualquer tipo.
func (p *Producer) PrepareFiles(ctx context.Context, files []string, mimeFilter string) error {
	if err := p.check(); err != nil {
		return err
	}
	return p.batch.ClassifyAll(ctx, files, mimeFilter)
}

// Prepared retorna os pares (caminho, classificação) acumulados.
func (p *Producer) Prepared() []classifier.PreparedFile {
	if p.batch == nil {
		return nil
	}
	return p.batch.Prepared()
}

// Produce pede à IA o plano hierárquico a partir de todas as classificações.
// Só deve ser chamado depois que PrepareFiles retornou.
func (p *Producer) Produce(ctx context.Context) (*tree.Tree, error) {
	if err := p.check(); err != nil {
		return nil, err
	}

	prepared := p.batch.Prepared()
	if prepared == nil {
		prepared = []classifier.PreparedFile{}
	}
	payload, err := json.Marshal(prepared)
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar arquivos preparados: %w", err)
	}

	slog.Info("solicitando síntese", "files", len(prepared))
	resp, err := p.client.Complete(ctx, llm.Request{
		Model:   p.settings.Model,
		System:  p.settings.Prompt,
		Text:    string(payload),
		Format:  llm.FormatJSONObject,
		Options: p.settings.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("erro na síntese: %w", err)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(resp), &obj); err != nil {
		slog.Error("falha ao decodificar resposta JSON", "error", err)
		slog.Error("resposta recebida", "response", resp)
		return nil, &TreeParseError{Raw: resp, Err: err}
	}

	t, err := p.build(obj)
	if err != nil {
		return nil, fmt.Errorf("erro ao montar árvore: %w", err)
	}
	return t, nil
}

func (p *Producer) check() error {
	if !p.configured {
		return fmt.Errorf("%w: Setup não foi chamado", classifier.ErrConfiguration)
	}
	return p.settings.Validate()
}
