package render

import (
	"encoding/json"
	"fmt"

	"markbench/internal/scene"
)

// ============================================================
// Fact export
// ============================================================

type LineFact struct {
	ID string `json:"id"`
	P1 string `json:"p1"`
	P2 string `json:"p2"`
}

type CircleFact struct {
	ID     string  `json:"id"`
	Center string  `json:"center"`
	Radius float64 `json:"radius"`
}

type ArcFact struct {
	ID         string   `json:"id"`
	Circle     string   `json:"circle"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	MeasureDeg *float64 `json:"measure_deg,omitempty"`
}

// FactDocument: структурное зеркало сцены без синтезированных фактов.
type FactDocument struct {
	ID        string           `json:"id"`
	Version   string           `json:"version"`
	Points    []scene.Point    `json:"points"`
	Lines     []LineFact       `json:"lines"`
	Circles   []CircleFact     `json:"circles"`
	Arcs      []ArcFact        `json:"arcs"`
	Symbols   []scene.Symbol   `json:"symbols"`
	Texts     []scene.Text     `json:"texts"`
	Relations []scene.Relation `json:"relations"`
	Metadata  map[string]any   `json:"metadata"`
}

// BuildFacts собирает fact-документ. Пустые коллекции пишутся пустыми массивами, не null.
func BuildFacts(s *scene.Scene) FactDocument {
	doc := FactDocument{
		ID:        s.ID(),
		Version:   s.Version(),
		Points:    s.Points(),
		Lines:     []LineFact{},
		Circles:   []CircleFact{},
		Arcs:      []ArcFact{},
		Symbols:   s.Symbols(),
		Texts:     s.Texts(),
		Relations: s.Relations(),
		Metadata:  s.Metadata(),
	}

	for _, p := range s.Primitives() {
		switch p.Type {
		case scene.PrimitiveLine:
			doc.Lines = append(doc.Lines, LineFact{ID: p.ID, P1: p.P1, P2: p.P2})
		case scene.PrimitiveCircle:
			doc.Circles = append(doc.Circles, CircleFact{ID: p.ID, Center: p.Center, Radius: p.Radius})
		case scene.PrimitiveArc:
			doc.Arcs = append(doc.Arcs, ArcFact{ID: p.ID, Circle: p.Circle, Start: p.Start, End: p.End, MeasureDeg: p.MeasureDeg})
		}
	}

	if doc.Points == nil {
		doc.Points = []scene.Point{}
	}
	for i := range doc.Symbols {
		if doc.Symbols[i].Targets == nil {
			doc.Symbols[i].Targets = []string{}
		}
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	return doc
}

// Facts сериализует fact-документ: отступ в два пробела и перевод строки в конце.
func Facts(s *scene.Scene) ([]byte, error) {
	data, err := json.MarshalIndent(BuildFacts(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal facts: %w", err)
	}
	return append(data, '\n'), nil
}
