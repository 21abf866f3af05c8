package detect

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Detector identifica o tipo MIME de um arquivo pelos magic bytes, não pelo nome.
type Detector struct{}

// New cria um novo detector.
func New() *Detector {
	return &Detector{}
}

// Detect retorna o tipo MIME sem parâmetros (ex: "text/plain", "image/png").
func (d *Detector) Detect(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("erro ao detectar tipo de '%s': %w", path, err)
	}

	mimeType, _, _ := strings.Cut(mtype.String(), ";")
	mimeType = strings.TrimSpace(mimeType)

	slog.Debug("tipo detectado", "file", path, "mime", mimeType)
	return mimeType, nil
}
