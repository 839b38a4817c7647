package render

import "markbench/internal/geom"

// ============================================================
// Display list
// ============================================================

// Имена слоёв в порядке отрисовки (снизу вверх).
const (
	LayerPrimitives = "primitives"
	LayerSymbols    = "symbols"
	LayerLabels     = "labels"
)

type ElementKind string

const (
	KindCircle ElementKind = "circle"
	KindLine   ElementKind = "line"
	KindPath   ElementKind = "path"
	KindRect   ElementKind = "rect"
	KindText   ElementKind = "text"
)

type SegmentOp byte

const (
	OpMove  SegmentOp = 'M'
	OpLine  SegmentOp = 'L'
	OpArc   SegmentOp = 'A'
	OpClose SegmentOp = 'Z'
)

// Segment: одна команда path. Для OpArc R, Large и Sweep задают дугу
// в SVG endpoint-параметризации.
type Segment struct {
	Op    SegmentOp
	To    geom.Vec
	R     float64
	Large bool
	Sweep bool
}

// Element: один графический элемент с id сущности сцены.
// Используются только поля своего Kind.
type Element struct {
	ID    string
	Kind  ElementKind
	Class string

	Center geom.Vec // circle
	R      float64  // circle

	From, To geom.Vec // line

	Path []Segment // path

	Min  geom.Vec // rect
	Size geom.Vec // rect

	Text string   // text
	At   geom.Vec // text

	Stroke      string
	Fill        string
	StrokeWidth float64
}

type Layer struct {
	ID       string
	Opacity  float64
	Elements []Element
}

// Drawing: независимое от формата представление рендера. Из него пишется
// SVG и растеризуется PNG, поэтому оба вывода совпадают по геометрии.
type Drawing struct {
	Width, Height float64
	// RotationDeg: поворот всей фигуры вокруг Center (0 значит без поворота).
	RotationDeg float64
	Center      geom.Vec
	FontFamily  string
	FontSize    float64
	Layers      []Layer
}

// Layer возвращает слой по имени.
func (d *Drawing) Layer(id string) (*Layer, bool) {
	for i := range d.Layers {
		if d.Layers[i].ID == id {
			return &d.Layers[i], true
		}
	}
	return nil, false
}

// Find ищет элемент по id во всех слоях.
func (d *Drawing) Find(id string) (Element, bool) {
	for _, l := range d.Layers {
		for _, e := range l.Elements {
			if e.ID == id {
				return e, true
			}
		}
	}
	return Element{}, false
}
