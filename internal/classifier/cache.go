package classifier

import (
	"path/filepath"
	"sync"
)

// Cache armazena classificações por caminho para evitar chamadas repetidas à IA.
// Vive enquanto o produtor que o criou; nada é removido.
type Cache struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewCache cria um novo cache de classificações.
func NewCache() *Cache {
	return &Cache{
		items: make(map[string]string),
	}
}

// Get retorna a classificação em cache e se ela existe.
func (c *Cache) Get(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.items[CacheKey(path)]
	return text, ok
}

// Set armazena uma classificação no cache.
func (c *Cache) Set(path, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[CacheKey(path)] = text
}

// Len retorna o número de entradas.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// CacheKey normaliza o caminho (absoluto e limpo) para uso como chave.
func CacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
