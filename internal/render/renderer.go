package render

import (
	"fmt"
	"log"
	"math"

	"markbench/internal/geom"
	"markbench/internal/scene"
)

// ============================================================
// Renderer
// ============================================================

type Renderer struct {
	style  Style
	logger *log.Logger
}

// NewRenderer создаёт рендерер; logger == nil означает log.Default().
func NewRenderer(style Style, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{style: style, logger: logger}
}

func (r *Renderer) Style() Style {
	return r.style
}

// Output: результат одного рендера.
type Output struct {
	Drawing *Drawing
	SVG     []byte
	Facts   []byte
}

// Render собирает слои, SVG и fact-export для сцены.
func (r *Renderer) Render(s *scene.Scene, opts Options) (*Output, error) {
	if s == nil {
		return nil, fmt.Errorf("scene is nil")
	}

	d := r.Draw(s, opts)

	facts, err := Facts(s)
	if err != nil {
		return nil, err
	}

	return &Output{
		Drawing: d,
		SVG:     WriteSVG(d, r.style.Precision),
		Facts:   facts,
	}, nil
}

// Draw строит display list. Поворот только записывается в Drawing,
// координаты элементов не меняются.
func (r *Renderer) Draw(s *scene.Scene, opts Options) *Drawing {
	size := r.style.Canvas
	d := &Drawing{
		Width:       size,
		Height:      size,
		RotationDeg: opts.RotationDeg,
		Center:      geom.V(size/2, size/2),
		FontFamily:  r.style.FontFamily,
		FontSize:    r.style.FontSize,
	}

	d.Layers = append(d.Layers,
		Layer{ID: LayerPrimitives, Opacity: 1, Elements: r.drawPrimitives(s)},
		Layer{ID: LayerSymbols, Opacity: opts.opacity(), Elements: r.drawSymbols(s)},
		Layer{ID: LayerLabels, Opacity: 1, Elements: r.drawLabels(s)},
	)
	return d
}

// ============================================================
// Primitives
// ============================================================

func (r *Renderer) drawPrimitives(s *scene.Scene) []Element {
	out := []Element{}

	for _, c := range s.PrimitivesOfType(scene.PrimitiveCircle) {
		center, _ := s.Point(c.Center)
		out = append(out, r.stroked(Element{
			ID:     c.ID,
			Kind:   KindCircle,
			Center: center.Pos(),
			R:      c.Radius,
		}))
	}

	for _, l := range s.PrimitivesOfType(scene.PrimitiveLine) {
		a, b, _ := s.LinePoints(l.ID)
		out = append(out, r.stroked(Element{
			ID:   l.ID,
			Kind: KindLine,
			From: a.Pos(),
			To:   b.Pos(),
		}))
	}

	for _, a := range s.PrimitivesOfType(scene.PrimitiveArc) {
		circle, _ := s.Primitive(a.Circle)
		start, _ := s.Point(a.Start)
		end, _ := s.Point(a.End)
		out = append(out, r.stroked(Element{
			ID:   a.ID,
			Kind: KindPath,
			Path: []Segment{
				{Op: OpMove, To: start.Pos()},
				{Op: OpArc, To: end.Pos(), R: circle.Radius, Large: math.Abs(a.Measure()) > 180, Sweep: true},
			},
		}))
	}

	return out
}

func (r *Renderer) stroked(e Element) Element {
	e.Stroke = r.style.Stroke
	e.Fill = "none"
	e.StrokeWidth = r.style.StrokeWidth
	return e
}

// ============================================================
// Labels
// ============================================================

func (r *Renderer) drawLabels(s *scene.Scene) []Element {
	out := []Element{}

	for _, p := range s.Points() {
		out = append(out, Element{
			ID:     "pt_" + p.ID,
			Kind:   KindCircle,
			Center: p.Pos(),
			R:      r.style.PointRadius,
			Fill:   r.style.TextFill,
		})
	}

	for _, t := range s.Texts() {
		anchor, _ := s.Point(t.Anchor)

		bias, class := r.style.LabelBias, "label"
		if t.IsMeasurement() {
			bias, class = r.style.MeasureBias, "measure"
		}

		out = append(out, Element{
			ID:    t.ID,
			Kind:  KindText,
			Class: class,
			Text:  t.String,
			At:    anchor.Pos().Add(bias).Add(t.OffsetVec()),
			Fill:  r.style.TextFill,
		})
	}

	return out
}
