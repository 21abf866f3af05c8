package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude seleciona todos os arquivos abaixo da raiz.
var DefaultInclude = []string{"**/*"}

// DefaultExclude ignora arquivos e pastas ocultos.
var DefaultExclude = []string{"**/.*", "**/.*/**"}

// Files lista os arquivos regulares de root que casam com algum padrão de include
// e com nenhum de exclude. Os caminhos devolvidos são absolutos e ordenados.
func Files(root string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("padrão inválido: %q", p)
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("erro ao resolver '%s': %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("erro ao acessar '%s': %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' não é uma pasta", root)
	}

	fsys := os.DirFS(abs)
	found := map[string]struct{}{}
	for _, pattern := range include {
		err := doublestar.GlobWalk(fsys, pattern, func(p string, d fs.DirEntry) error {
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if excluded(p, exclude) {
				return nil
			}
			found[filepath.Join(abs, filepath.FromSlash(p))] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("erro ao listar arquivos: %w", err)
		}
	}

	files := make([]string, 0, len(found))
	for f := range found {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func excluded(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
