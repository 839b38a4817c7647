package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"markbench/internal/render"
	"markbench/internal/render/svgparse"
	"markbench/internal/scene"
)

// ErrContract: в SVG нет слоя или элемента для сущности сцены.
var ErrContract = errors.New("svg contract violated")

// Gaps: сущности сцены без элемента в своём слое.
type Gaps struct {
	Layers     []string
	Primitives []string
	Labels     []string
	// Symbols не фатальны: вырожденную геометрию рендер пропускает.
	Symbols []string
}

func (g Gaps) fatal() []string {
	var out []string
	for _, l := range g.Layers {
		out = append(out, "layer "+l)
	}
	out = append(out, g.Primitives...)
	return append(out, g.Labels...)
}

// Contract сверяет разобранный SVG со сценой.
// Точка ищется как pt_<id> в labels, символ как <id> или <id>_<n> в symbols.
func Contract(s *scene.Scene, doc *svgparse.Document) Gaps {
	var g Gaps
	ids := make(map[string]map[string]bool)
	for _, name := range []string{render.LayerPrimitives, render.LayerSymbols, render.LayerLabels} {
		layer, ok := doc.Layer(name)
		if !ok {
			g.Layers = append(g.Layers, name)
			ids[name] = map[string]bool{}
			continue
		}
		set := make(map[string]bool, len(layer.Elements))
		for _, id := range layer.IDs() {
			set[id] = true
		}
		ids[name] = set
	}

	for _, pr := range s.Primitives() {
		if !ids[render.LayerPrimitives][pr.ID] {
			g.Primitives = append(g.Primitives, pr.ID)
		}
	}
	for _, pt := range s.Points() {
		if !ids[render.LayerLabels]["pt_"+pt.ID] {
			g.Labels = append(g.Labels, "pt_"+pt.ID)
		}
	}
	for _, t := range s.Texts() {
		if !ids[render.LayerLabels][t.ID] {
			g.Labels = append(g.Labels, t.ID)
		}
	}
	for _, sym := range s.Symbols() {
		if !hasStroke(ids[render.LayerSymbols], sym.ID) {
			g.Symbols = append(g.Symbols, sym.ID)
		}
	}
	return g
}

func hasStroke(set map[string]bool, id string) bool {
	if set[id] {
		return true
	}
	for el := range set {
		n, ok := strings.CutPrefix(el, id+"_")
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(n); err == nil {
			return true
		}
	}
	return false
}

func (p *Pipeline) contract(s *scene.Scene, svg []byte) error {
	doc, err := svgparse.ParseSVG(bytes.NewReader(svg))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrContract, err)
	}

	g := Contract(s, doc)
	for _, id := range g.Symbols {
		p.logger.Printf("[PIPELINE] %s: symbol %s not drawn", s.ID(), id)
	}
	if missing := g.fatal(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrContract, strings.Join(missing, ", "))
	}
	return nil
}
