package render

import (
	"fmt"

	"markbench/internal/geom"
	"markbench/internal/scene"
)

// TangentGlyph: текстовый глиф метки касания.
const TangentGlyph = "⊥"

// ============================================================
// Symbols
// ============================================================

func (r *Renderer) drawSymbols(s *scene.Scene) []Element {
	out := []Element{}

	for _, sym := range s.Symbols() {
		mark, err := sym.Mark()
		if err != nil {
			// Scene уже проверила арность при сборке.
			r.logger.Printf("[RENDER] %s: skip symbol %s: %v", s.ID(), sym.ID, err)
			continue
		}

		switch m := mark.(type) {
		case scene.AngleArc:
			if e, ok := r.angleArc(s, sym.ID, m); ok {
				out = append(out, e)
			}
		case scene.Perpendicular:
			out = append(out, r.perpendicular(s, sym.ID, m))
		case scene.Parallel:
			out = append(out, r.parallel(s, sym.ID, m)...)
		case scene.TangentMark:
			out = append(out, r.tangent(s, sym.ID, m))
		case scene.TickBar:
			if e, ok := r.tickBar(s, sym.ID, m); ok {
				out = append(out, e)
			}
		}
	}

	return out
}

func (r *Renderer) symbolStroke(e Element) Element {
	e.Stroke = r.style.SymbolStroke
	e.Fill = "none"
	e.StrokeWidth = r.style.StrokeWidth
	return e
}

// lineDir: единичное направление прямой от p1 к p2; нулевой вектор для вырожденной.
func lineDir(s *scene.Scene, id string) (geom.Vec, geom.Vec, geom.Vec) {
	a, b, _ := s.LinePoints(id)
	return a.Pos(), b.Pos(), geom.Unit(b.Pos().Sub(a.Pos()))
}

// awayFrom возвращает направление прямой от вершины: к концу, id которого не равен
// id вершины, либо к середине, если вершина не является концом прямой.
// Совпадение координат без совпадения id концом не считается.
func awayFrom(s *scene.Scene, lineID string, vertex scene.Point) geom.Vec {
	a, b, _ := s.LinePoints(lineID)
	v := vertex.Pos()
	switch {
	case a.ID == vertex.ID:
		return geom.Unit(b.Pos().Sub(v))
	case b.ID == vertex.ID:
		return geom.Unit(a.Pos().Sub(v))
	default:
		return geom.Unit(geom.Midpoint(a.Pos(), b.Pos()).Sub(v))
	}
}

func (r *Renderer) angleArc(s *scene.Scene, id string, m scene.AngleArc) (Element, bool) {
	vertex, _ := s.Point(m.Vertex)
	da := awayFrom(s, m.Line1, vertex)
	db := awayFrom(s, m.Line2, vertex)
	if da.IsZero() || db.IsZero() {
		r.logger.Printf("[RENDER] %s: angle_arc %s: undefined direction at vertex %s, skipped", s.ID(), id, m.Vertex)
		return Element{}, false
	}

	// Дуга идёт от меньшего направления к большему и покрывает малый угол.
	// При развороте ровно на π дуга начинается от line1.
	if geom.AngleBetween(da, db) < 0 {
		da, db = db, da
	}

	rad := r.style.AngleArcRadius
	v := vertex.Pos()
	return r.symbolStroke(Element{
		ID:   id,
		Kind: KindPath,
		Path: []Segment{
			{Op: OpMove, To: v.Add(da.Scale(rad))},
			{Op: OpArc, To: v.Add(db.Scale(rad)), R: rad, Sweep: true},
		},
	}), true
}

func (r *Renderer) perpendicular(s *scene.Scene, id string, m scene.Perpendicular) Element {
	at := r.perpendicularVertex(s, id, m)
	size := r.style.PerpSize
	return r.symbolStroke(Element{
		ID:   id,
		Kind: KindRect,
		Min:  at.Sub(geom.V(size/2, size/2)),
		Size: geom.V(size, size),
	})
}

// perpendicularVertex: общий конец, иначе пересечение прямых, иначе l1.p1.
func (r *Renderer) perpendicularVertex(s *scene.Scene, id string, m scene.Perpendicular) geom.Vec {
	a1, b1, _ := s.LinePoints(m.Line1)
	a2, b2, _ := s.LinePoints(m.Line2)

	for _, p := range []scene.Point{a1, b1} {
		if p.ID == a2.ID || p.ID == b2.ID {
			return p.Pos()
		}
	}

	if at, ok := geom.LineIntersection(a1.Pos(), b1.Pos(), a2.Pos(), b2.Pos()); ok {
		return at
	}

	r.logger.Printf("[RENDER] %s: perpendicular %s: lines %s and %s are parallel, placed at %s",
		s.ID(), id, m.Line1, m.Line2, a1.ID)
	return a1.Pos()
}

func (r *Renderer) parallel(s *scene.Scene, id string, m scene.Parallel) []Element {
	out := make([]Element, 0, len(m.Lines))
	size := r.style.ChevronSize

	for i, line := range m.Lines {
		a, b, dir := lineDir(s, line)
		if dir.IsZero() {
			r.logger.Printf("[RENDER] %s: parallel %s: line %s has zero length, chevron %d skipped", s.ID(), id, line, i)
			continue
		}

		n := geom.Perp(dir)
		c := geom.Midpoint(a, b).Add(n.Scale(r.style.ParallelOffset + float64(i)*r.style.ParallelStep))
		tip := c.Add(dir.Scale(size))
		back := c.Sub(dir.Scale(size))

		out = append(out, r.symbolStroke(Element{
			ID:   fmt.Sprintf("%s_%d", id, i),
			Kind: KindPath,
			Path: []Segment{
				{Op: OpMove, To: back.Add(n.Scale(size))},
				{Op: OpLine, To: tip},
				{Op: OpLine, To: back.Sub(n.Scale(size))},
			},
		}))
	}
	return out
}

func (r *Renderer) tangent(s *scene.Scene, id string, m scene.TangentMark) Element {
	p, _ := s.Point(m.Point)
	_, _, dir := lineDir(s, m.Line)

	n := geom.Perp(dir)
	if n.IsZero() {
		r.logger.Printf("[RENDER] %s: tangent_mark %s: line %s has zero length, glyph placed above point", s.ID(), id, m.Line)
		n = geom.V(0, -1)
	}

	return Element{
		ID:    id,
		Kind:  KindText,
		Class: "tangent",
		Text:  TangentGlyph,
		At:    p.Pos().Add(n.Scale(r.style.TangentOffset)),
		Fill:  r.style.SymbolStroke,
	}
}

func (r *Renderer) tickBar(s *scene.Scene, id string, m scene.TickBar) (Element, bool) {
	a, b, dir := lineDir(s, m.Line)
	if dir.IsZero() {
		r.logger.Printf("[RENDER] %s: tick_bar %s: line %s has zero length, skipped", s.ID(), id, m.Line)
		return Element{}, false
	}

	mid := geom.Midpoint(a, b)
	n := geom.Perp(dir).Scale(r.style.TickHalf)
	return r.symbolStroke(Element{
		ID:   id,
		Kind: KindLine,
		From: mid.Sub(n),
		To:   mid.Add(n),
	}), true
}
