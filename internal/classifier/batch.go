package classifier

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Batch classifica vários arquivos em paralelo e acumula os pares preparados.
type Batch struct {
	classifier *Classifier
	detector   Detector
	workers    int

	// OnResult, se definido, é chamado a cada arquivo concluído, a partir das goroutines de trabalho.
	OnResult func(Result)
	// OnPending, se definido, recebe quantos arquivos serão de fato classificados.
	OnPending func(n int)

	mu       sync.Mutex
	prepared []PreparedFile
	seen     map[string]struct{}
}

// NewBatch cria um lote. workers <= 0 não limita o paralelismo.
func NewBatch(c *Classifier, detector Detector, workers int) *Batch {
	return &Batch{
		classifier: c,
		detector:   detector,
		workers:    workers,
		seen:       make(map[string]struct{}),
	}
}

// ClassifyAll classifica files, opcionalmente só os de tipo com prefixo mimeFilter.
// Arquivos já preparados são ignorados. Falhas individuais não interrompem o lote;
// só erros de configuração são devolvidos.
func (b *Batch) ClassifyAll(ctx context.Context, files []string, mimeFilter string) error {
	if err := b.classifier.Settings().Validate(); err != nil {
		return err
	}

	pending := make([]string, 0, len(files))
	submitted := make(map[string]struct{}, len(files))
	for _, file := range files {
		key := CacheKey(file)
		if b.isPrepared(key) {
			continue
		}
		if _, dup := submitted[key]; dup {
			continue
		}
		if mimeFilter != "" {
			mimeType, err := b.detector.Detect(file)
			if err != nil {
				slog.Warn("ignorando arquivo sem tipo detectável", "file", file, "error", err)
				continue
			}
			if !strings.HasPrefix(mimeType, mimeFilter) {
				slog.Debug("arquivo fora do filtro", "file", file, "mime", mimeType, "filter", mimeFilter)
				continue
			}
		}
		submitted[key] = struct{}{}
		pending = append(pending, file)
	}

	slog.Info("classificando lote", "files", len(pending), "workers", b.workers)
	if b.OnPending != nil {
		b.OnPending(len(pending))
	}

	results := make([]Result, len(pending))
	var g errgroup.Group
	if b.workers > 0 {
		g.SetLimit(b.workers)
	}
	for i, file := range pending {
		g.Go(func() error {
			res, err := b.classifier.Classify(ctx, file)
			if err != nil {
				return err
			}
			results[i] = res
			if b.OnResult != nil {
				b.OnResult(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, res := range results {
		if !res.OK() {
			continue
		}
		key := CacheKey(res.Path)
		if _, ok := b.seen[key]; ok {
			continue
		}
		b.seen[key] = struct{}{}
		b.prepared = append(b.prepared, PreparedFile{Path: res.Path, Classification: res.Text})
	}
	return nil
}

// Prepared retorna uma cópia dos pares preparados, na ordem em que entraram.
func (b *Batch) Prepared() []PreparedFile {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PreparedFile, len(b.prepared))
	copy(out, b.prepared)
	return out
}

// Seed carrega pares já preparados, por exemplo de um lote anterior.
func (b *Batch) Seed(files []PreparedFile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range files {
		key := CacheKey(f.Path)
		if _, ok := b.seen[key]; ok {
			continue
		}
		b.seen[key] = struct{}{}
		b.prepared = append(b.prepared, f)
	}
}

func (b *Batch) isPrepared(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.seen[key]
	return ok
}
