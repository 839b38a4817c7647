package scene

import "markbench/internal/geom"

// ============================================================
// Entity kinds
// ============================================================

type PrimitiveType string

const (
	PrimitiveLine   PrimitiveType = "Line"
	PrimitiveCircle PrimitiveType = "Circle"
	PrimitiveArc    PrimitiveType = "Arc"
)

type SymbolType string

const (
	SymbolAngleArc      SymbolType = "angle_arc"
	SymbolPerpendicular SymbolType = "perpendicular"
	SymbolParallel      SymbolType = "parallel"
	SymbolTangentMark   SymbolType = "tangent_mark"
	SymbolTickBar       SymbolType = "tick_bar"
)

type RelationType string

const (
	RelationSym2Geo  RelationType = "sym2geo"
	RelationText2Geo RelationType = "text2geo"
)

// ============================================================
// Scene document
// ============================================================

type Point struct {
	ID string  `json:"id" yaml:"id"`
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`
}

func (p Point) Pos() geom.Vec {
	return geom.Vec{X: p.X, Y: p.Y}
}

// Primitive хранит все три формы (Line/Circle/Arc) в одной структуре;
// заполнены только поля своего Type.
type Primitive struct {
	ID         string        `json:"id" yaml:"id"`
	Type       PrimitiveType `json:"type" yaml:"type"`
	P1         string        `json:"p1,omitempty" yaml:"p1,omitempty"`
	P2         string        `json:"p2,omitempty" yaml:"p2,omitempty"`
	Center     string        `json:"center,omitempty" yaml:"center,omitempty"`
	Radius     float64       `json:"radius,omitempty" yaml:"radius,omitempty"`
	Circle     string        `json:"circle,omitempty" yaml:"circle,omitempty"`
	Start      string        `json:"start,omitempty" yaml:"start,omitempty"`
	End        string        `json:"end,omitempty" yaml:"end,omitempty"`
	MeasureDeg *float64      `json:"measure_deg,omitempty" yaml:"measure_deg,omitempty"`
}

// Measure возвращает measure_deg дуги (0, если не задан).
func (p Primitive) Measure() float64 {
	if p.MeasureDeg == nil {
		return 0
	}
	return *p.MeasureDeg
}

type Symbol struct {
	ID      string     `json:"id" yaml:"id"`
	Type    SymbolType `json:"type" yaml:"type"`
	Targets []string   `json:"targets" yaml:"targets"`
}

type Text struct {
	ID     string    `json:"id" yaml:"id"`
	String string    `json:"string" yaml:"string"`
	Anchor string    `json:"anchor" yaml:"anchor"`
	Offset []float64 `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// OffsetVec возвращает offset текста ([0,0], если не задан).
func (t Text) OffsetVec() geom.Vec {
	if len(t.Offset) < 2 {
		return geom.Vec{}
	}
	return geom.Vec{X: t.Offset[0], Y: t.Offset[1]}
}

type Relation struct {
	Type      RelationType `json:"type" yaml:"type"`
	SymbolID  string       `json:"symbol_id,omitempty" yaml:"symbol_id,omitempty"`
	TargetIDs []string     `json:"target_ids,omitempty" yaml:"target_ids,omitempty"`
	TextID    string       `json:"text_id,omitempty" yaml:"text_id,omitempty"`
	TargetID  string       `json:"target_id,omitempty" yaml:"target_id,omitempty"`
}

// Subject возвращает id символа (sym2geo) или текста (text2geo).
func (r Relation) Subject() string {
	if r.Type == RelationText2Geo {
		return r.TextID
	}
	return r.SymbolID
}

// References сообщает, ссылается ли связь на id как на субъект или как на цель.
func (r Relation) References(id string) bool {
	if r.Subject() == id || r.TargetID == id {
		return true
	}
	for _, t := range r.TargetIDs {
		if t == id {
			return true
		}
	}
	return false
}

// Document: сериализуемая форма сцены (YAML/JSON).
type Document struct {
	Version    string         `json:"version" yaml:"version"`
	ID         string         `json:"id" yaml:"id"`
	Renderer   map[string]any `json:"renderer,omitempty" yaml:"renderer,omitempty"`
	Points     []Point        `json:"points" yaml:"points"`
	Primitives []Primitive    `json:"primitives" yaml:"primitives"`
	Symbols    []Symbol       `json:"symbols" yaml:"symbols"`
	Texts      []Text         `json:"texts" yaml:"texts"`
	Relations  []Relation     `json:"relations" yaml:"relations"`
	Metadata   map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
