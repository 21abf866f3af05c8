package organizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/vitoramaral10/local-organizer/internal/tree"
)

// ErrUnknownSource indica uma origem que não está entre os arquivos classificados.
var ErrUnknownSource = errors.New("origem não pertence aos arquivos classificados")

// Report resume a aplicação de um plano.
type Report struct {
	Moved   int
	Planned int
	Errors  []error
}

// Apply move cada arquivo para destRoot/Dst, criando as pastas necessárias.
// Só arquivos listados em sources podem ser movidos; os demais vão para Report.Errors.
// Com dryRun nada é alterado; só registra o que seria feito.
// Falhas individuais são acumuladas em Report.Errors.
func Apply(ctx context.Context, moves []tree.Move, destRoot string, sources []string, dryRun bool) (Report, error) {
	root, err := filepath.Abs(destRoot)
	if err != nil {
		return Report{}, fmt.Errorf("erro ao resolver pasta destino: %w", err)
	}

	allowed := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		allowed[normalize(s)] = struct{}{}
	}

	var r Report
	for _, m := range moves {
		if err := ctx.Err(); err != nil {
			return r, fmt.Errorf("operação cancelada: %w", err)
		}

		if _, ok := allowed[normalize(m.Src)]; !ok {
			r.Errors = append(r.Errors, fmt.Errorf("'%s': %w", m.Src, ErrUnknownSource))
			slog.Warn("origem fora dos arquivos classificados", "file", m.Src)
			continue
		}

		target, err := targetPath(root, m.Dst)
		if err != nil {
			r.Errors = append(r.Errors, fmt.Errorf("'%s': %w", m.Src, err))
			continue
		}
		r.Planned++

		if dryRun {
			slog.Info("[DRY-RUN] moveria arquivo", "from", m.Src, "to", target)
			continue
		}

		if err := MoveFile(m.Src, target); err != nil {
			r.Errors = append(r.Errors, fmt.Errorf("'%s': %w", m.Src, err))
			slog.Error("falha ao mover arquivo", "file", m.Src, "error", err)
			continue
		}
		r.Moved++
	}
	return r, nil
}

// EnsureFolder cria (ou encontra) pastas aninhadas.
func EnsureFolder(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("erro ao criar/encontrar pasta '%s': %w", path, err)
	}
	return nil
}

// MoveFile move src para dst sem sobrescrever um arquivo existente.
func MoveFile(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("destino '%s' já existe", dst)
	}
	if err := EnsureFolder(filepath.Dir(dst)); err != nil {
		return err
	}

	err := os.Rename(src, dst)
	if errors.Is(err, syscall.EXDEV) {
		err = copyAndRemove(src, dst)
	}
	if err != nil {
		return fmt.Errorf("erro ao mover arquivo: %w", err)
	}

	slog.Debug("arquivo movido", "from", src, "to", dst)
	return nil
}

func normalize(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func targetPath(root, dst string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(dst))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("destino '%s' fora de '%s'", dst, root)
	}
	return target, nil
}

// copyAndRemove cobre o caso de origem e destino em sistemas de arquivos diferentes.
func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
