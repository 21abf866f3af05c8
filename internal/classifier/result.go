package classifier

import (
	"encoding/json"
	"fmt"
)

// Kind é o desfecho da classificação de um arquivo.
type Kind int

const (
	// Success: a IA devolveu uma classificação.
	Success Kind = iota
	// Skipped: não havia o que classificar (tipo não suportado).
	Skipped
	// Failed: a classificação foi tentada e falhou.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Result é o resultado de Classify para um arquivo.
type Result struct {
	Path     string
	MimeType string
	Kind     Kind
	Text     string
	Reason   string
	Err      error
	Attempts int
	Cached   bool
}

// OK retorna true quando há uma classificação utilizável.
func (r Result) OK() bool {
	return r.Kind == Success
}

// PreparedFile é um par (caminho, classificação) pronto para a síntese.
type PreparedFile struct {
	Path           string
	Classification string
}

// MarshalJSON serializa como array de dois elementos: [caminho, classificação].
func (p PreparedFile) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Path, p.Classification})
}
