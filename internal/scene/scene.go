package scene

import (
	"fmt"
	"log"
	"math"

	"markbench/internal/geom"
	"markbench/internal/schema"
)

// arcTolerance: допуск (в единицах холста) для концов дуги на окружности.
const arcTolerance = 1.0

// ============================================================
// Scene
// ============================================================

// Scene: проверенная, неизменяемая сцена. Все аксессоры возвращают копии;
// изменения возможны только через Edit() на глубокой копии.
type Scene struct {
	doc Document

	points  map[string]int
	prims   map[string]int
	symbols map[string]int
	texts   map[string]int
}

// New собирает Scene из документа и проверяет ссылки между сущностями.
func New(doc Document) (*Scene, error) {
	s := &Scene{
		doc:     doc.Clone(),
		points:  make(map[string]int, len(doc.Points)),
		prims:   make(map[string]int, len(doc.Primitives)),
		symbols: make(map[string]int, len(doc.Symbols)),
		texts:   make(map[string]int, len(doc.Texts)),
	}

	if issues := s.index(); len(issues) > 0 {
		return nil, &ValidationError{Kind: ErrReference, Issues: issues}
	}
	if issues := s.checkReferences(); len(issues) > 0 {
		return nil, &ValidationError{Kind: ErrReference, Issues: issues}
	}
	return s, nil
}

func (s *Scene) index() []schema.Issue {
	var issues []schema.Issue
	seen := make(map[string]string)

	claim := func(id, path string) bool {
		if prev, ok := seen[id]; ok {
			issues = append(issues, schema.Issue{Path: path, Message: fmt.Sprintf("duplicate id %q (first at %s)", id, prev)})
			return false
		}
		seen[id] = path
		return true
	}

	for i, p := range s.doc.Points {
		if claim(p.ID, fmt.Sprintf("/points/%d", i)) {
			s.points[p.ID] = i
		}
	}
	for i, p := range s.doc.Primitives {
		if claim(p.ID, fmt.Sprintf("/primitives/%d", i)) {
			s.prims[p.ID] = i
		}
	}
	for i, sym := range s.doc.Symbols {
		if claim(sym.ID, fmt.Sprintf("/symbols/%d", i)) {
			s.symbols[sym.ID] = i
		}
	}
	for i, t := range s.doc.Texts {
		if claim(t.ID, fmt.Sprintf("/texts/%d", i)) {
			s.texts[t.ID] = i
		}
	}
	return issues
}

func (s *Scene) checkReferences() []schema.Issue {
	var issues []schema.Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, schema.Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	for i, p := range s.doc.Primitives {
		path := fmt.Sprintf("/primitives/%d", i)
		switch p.Type {
		case PrimitiveLine:
			for _, id := range []string{p.P1, p.P2} {
				if !s.hasPoint(id) {
					add(path, "line %s: unknown point %q", p.ID, id)
				}
			}
		case PrimitiveCircle:
			if !s.hasPoint(p.Center) {
				add(path, "circle %s: unknown center %q", p.ID, p.Center)
			}
		case PrimitiveArc:
			circle, ok := s.Primitive(p.Circle)
			if !ok || circle.Type != PrimitiveCircle {
				add(path, "arc %s: %q is not a circle", p.ID, p.Circle)
				continue
			}
			for _, id := range []string{p.Start, p.End} {
				if !s.hasPoint(id) {
					add(path, "arc %s: unknown point %q", p.ID, id)
					continue
				}
				s.warnOffCircle(p, circle, id)
			}
		default:
			add(path, "primitive %s: unsupported type %q", p.ID, p.Type)
		}
	}

	for i, sym := range s.doc.Symbols {
		path := fmt.Sprintf("/symbols/%d", i)
		mark, err := sym.Mark()
		if err != nil {
			add(path, "%v", err)
			continue
		}
		for _, msg := range s.checkMark(mark) {
			add(path, "symbol %s: %s", sym.ID, msg)
		}
	}

	for i, t := range s.doc.Texts {
		if !s.hasPoint(t.Anchor) {
			add(fmt.Sprintf("/texts/%d", i), "text %s: unknown anchor point %q", t.ID, t.Anchor)
		}
	}

	for i, r := range s.doc.Relations {
		path := fmt.Sprintf("/relations/%d", i)
		switch r.Type {
		case RelationSym2Geo:
			if _, ok := s.symbols[r.SymbolID]; !ok {
				add(path, "sym2geo: unknown symbol %q", r.SymbolID)
			}
			for _, id := range r.TargetIDs {
				if !s.Has(id) {
					add(path, "sym2geo %s: unknown target %q", r.SymbolID, id)
				}
			}
		case RelationText2Geo:
			if _, ok := s.texts[r.TextID]; !ok {
				add(path, "text2geo: unknown text %q", r.TextID)
			}
			if !s.Has(r.TargetID) {
				add(path, "text2geo %s: unknown target %q", r.TextID, r.TargetID)
			}
		default:
			add(path, "unsupported relation type %q", r.Type)
		}
	}

	return issues
}

func (s *Scene) checkMark(m Mark) []string {
	var msgs []string
	needLine := func(id string) {
		if p, ok := s.Primitive(id); !ok || p.Type != PrimitiveLine {
			msgs = append(msgs, fmt.Sprintf("target %q is not a line", id))
		}
	}
	needPoint := func(id string) {
		if !s.hasPoint(id) {
			msgs = append(msgs, fmt.Sprintf("target %q is not a point", id))
		}
	}

	switch mk := m.(type) {
	case AngleArc:
		needLine(mk.Line1)
		needLine(mk.Line2)
		needPoint(mk.Vertex)
	case Perpendicular:
		needLine(mk.Line1)
		needLine(mk.Line2)
	case Parallel:
		for _, id := range mk.Lines {
			needLine(id)
		}
	case TangentMark:
		needLine(mk.Line)
		needPoint(mk.Point)
	case TickBar:
		needLine(mk.Line)
	}
	return msgs
}

func (s *Scene) warnOffCircle(arc, circle Primitive, pointID string) {
	c, _ := s.Point(circle.Center)
	p, _ := s.Point(pointID)
	d := geom.Distance(c.Pos(), p.Pos())
	if math.Abs(d-circle.Radius) > arcTolerance {
		log.Printf("[SCENE] %s: arc %s endpoint %s is %.3f from circle %s center (radius %.3f)",
			s.doc.ID, arc.ID, pointID, d, circle.ID, circle.Radius)
	}
}

// ============================================================
// Accessors
// ============================================================

func (s *Scene) ID() string      { return s.doc.ID }
func (s *Scene) Version() string { return s.doc.Version }

// Document возвращает глубокую копию сериализуемой формы сцены.
func (s *Scene) Document() Document {
	return s.doc.Clone()
}

func (s *Scene) Points() []Point {
	return append(make([]Point, 0, len(s.doc.Points)), s.doc.Points...)
}

func (s *Scene) Point(id string) (Point, bool) {
	i, ok := s.points[id]
	if !ok {
		return Point{}, false
	}
	return s.doc.Points[i], true
}

func (s *Scene) hasPoint(id string) bool {
	_, ok := s.points[id]
	return ok
}

func (s *Scene) Primitive(id string) (Primitive, bool) {
	i, ok := s.prims[id]
	if !ok {
		return Primitive{}, false
	}
	return clonePrimitive(s.doc.Primitives[i]), true
}

// Primitives возвращает все примитивы в порядке документа.
func (s *Scene) Primitives() []Primitive {
	return s.doc.Clone().Primitives
}

// PrimitivesOfType возвращает примитивы одного типа в порядке документа.
func (s *Scene) PrimitivesOfType(t PrimitiveType) []Primitive {
	out := []Primitive{}
	for _, p := range s.doc.Primitives {
		if p.Type == t {
			out = append(out, clonePrimitive(p))
		}
	}
	return out
}

func (s *Scene) Symbols() []Symbol {
	return s.doc.Clone().Symbols
}

func (s *Scene) Symbol(id string) (Symbol, bool) {
	i, ok := s.symbols[id]
	if !ok {
		return Symbol{}, false
	}
	sym := s.doc.Symbols[i]
	sym.Targets = cloneStrings(sym.Targets)
	return sym, true
}

func (s *Scene) Texts() []Text {
	return s.doc.Clone().Texts
}

func (s *Scene) Text(id string) (Text, bool) {
	i, ok := s.texts[id]
	if !ok {
		return Text{}, false
	}
	t := s.doc.Texts[i]
	if t.Offset != nil {
		t.Offset = append([]float64(nil), t.Offset...)
	}
	return t, true
}

func (s *Scene) Relations() []Relation {
	return s.doc.Clone().Relations
}

func (s *Scene) Metadata() map[string]any {
	return cloneMap(s.doc.Metadata)
}

// Has сообщает, есть ли в сцене сущность (точка, примитив, символ, текст) с таким id.
func (s *Scene) Has(id string) bool {
	if _, ok := s.points[id]; ok {
		return true
	}
	if _, ok := s.prims[id]; ok {
		return true
	}
	return s.HasMark(id)
}

// HasMark сообщает, есть ли символ или текст с таким id.
func (s *Scene) HasMark(id string) bool {
	if _, ok := s.symbols[id]; ok {
		return true
	}
	_, ok := s.texts[id]
	return ok
}

// LinePoints возвращает концы прямой.
func (s *Scene) LinePoints(id string) (Point, Point, bool) {
	p, ok := s.Primitive(id)
	if !ok || p.Type != PrimitiveLine {
		return Point{}, Point{}, false
	}
	a, okA := s.Point(p.P1)
	b, okB := s.Point(p.P2)
	return a, b, okA && okB
}

// WithoutMark возвращает копию сцены без символа/текста id и без связей,
// которые на него ссылаются. Исходная сцена не меняется.
func (s *Scene) WithoutMark(id string) (*Scene, error) {
	e := s.Edit()
	if err := e.RemoveMark(id); err != nil {
		return nil, err
	}
	return e.Scene()
}
