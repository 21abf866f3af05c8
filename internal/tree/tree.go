package tree

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
)

// Node é uma pasta (com filhos) ou um arquivo (com Source).
type Node struct {
	Name     string
	Source   string
	Summary  string
	Children []*Node
}

// IsDir retorna true se o nó é uma pasta.
func (n *Node) IsDir() bool {
	return n.Source == ""
}

// child devolve a subpasta name, criando-a se preciso.
// Falha se já existe um arquivo com esse nome.
func (n *Node) child(name string) (*Node, error) {
	for _, c := range n.Children {
		if c.Name != name {
			continue
		}
		if !c.IsDir() {
			return nil, fmt.Errorf("%q já é um arquivo", name)
		}
		return c, nil
	}
	c := &Node{Name: name}
	n.Children = append(n.Children, c)
	return c, nil
}

func (n *Node) sort() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return a.Name < b.Name
	})
	for _, c := range n.Children {
		c.sort()
	}
}

// Move é uma movimentação sugerida: de Src para Dst (relativo à raiz de destino).
type Move struct {
	Src     string
	Dst     string
	Summary string
}

// Tree é o plano de organização devolvido pela síntese.
type Tree struct {
	Root  *Node
	moves []Move
}

// FromJSON monta a árvore a partir do objeto devolvido pela IA:
//
//	{"files": [{"src_path": "...", "dst_path": "...", "summary": "..."}]}
func FromJSON(obj map[string]any) (*Tree, error) {
	raw, ok := obj["files"]
	if !ok {
		return nil, fmt.Errorf("campo \"files\" ausente")
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("campo \"files\" deve ser uma lista, veio %T", raw)
	}

	t := &Tree{Root: &Node{}}
	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("files[%d]: esperado objeto, veio %T", i, e)
		}
		src, _ := entry["src_path"].(string)
		dst, _ := entry["dst_path"].(string)
		summary, _ := entry["summary"].(string)
		if src == "" || dst == "" {
			return nil, fmt.Errorf("files[%d]: src_path e dst_path são obrigatórios", i)
		}
		if err := t.add(src, dst, summary); err != nil {
			return nil, fmt.Errorf("files[%d]: %w", i, err)
		}
	}
	t.Root.sort()
	sort.Slice(t.moves, func(i, j int) bool { return t.moves[i].Dst < t.moves[j].Dst })
	return t, nil
}

func (t *Tree) add(src, dst, summary string) error {
	clean := path.Clean(strings.ReplaceAll(dst, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "." || clean == "" {
		return fmt.Errorf("dst_path vazio")
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("dst_path %q sai da raiz", dst)
	}

	dir, file := path.Split(clean)
	node := t.Root
	for _, part := range strings.Split(strings.TrimSuffix(dir, "/"), "/") {
		if part == "" {
			continue
		}
		next, err := node.child(part)
		if err != nil {
			return fmt.Errorf("dst_path %q: %w", dst, err)
		}
		node = next
	}
	for _, c := range node.Children {
		if c.Name == file {
			return fmt.Errorf("dst_path %q: destino repetido", dst)
		}
	}
	node.Children = append(node.Children, &Node{Name: file, Source: src, Summary: summary})
	t.moves = append(t.moves, Move{Src: src, Dst: clean, Summary: summary})
	return nil
}

// Moves retorna as movimentações ordenadas pelo destino.
func (t *Tree) Moves() []Move {
	out := make([]Move, len(t.moves))
	copy(out, t.moves)
	return out
}

// Render desenha a hierarquia de pastas e arquivos.
func (t *Tree) Render() string {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	for _, c := range t.Root.Children {
		appendNode(l, c)
	}
	return l.Render()
}

func appendNode(l list.Writer, n *Node) {
	if !n.IsDir() {
		l.AppendItem(fmt.Sprintf("%s ← %s", n.Name, n.Source))
		return
	}
	l.AppendItem(n.Name + "/")
	l.Indent()
	for _, c := range n.Children {
		appendNode(l, c)
	}
	l.UnIndent()
}
