package render

import "markbench/internal/geom"

// Style: все размеры, отступы и цвета рендера. Значения по умолчанию
// откалиброваны под холст 400×400.
type Style struct {
	Canvas    float64
	Precision int

	StrokeWidth  float64
	Stroke       string
	SymbolStroke string
	TextFill     string
	FontFamily   string
	FontSize     float64

	PointRadius    float64
	AngleArcRadius float64
	PerpSize       float64
	ParallelOffset float64
	ParallelStep   float64
	ChevronSize    float64
	TangentOffset  float64
	TickHalf       float64

	LabelBias   geom.Vec
	MeasureBias geom.Vec
}

func DefaultStyle() Style {
	return Style{
		Canvas:    400,
		Precision: 3,

		StrokeWidth:  2,
		Stroke:       "#000",
		SymbolStroke: "#d62728",
		TextFill:     "#000",
		FontFamily:   "sans-serif",
		FontSize:     14,

		PointRadius:    3,
		AngleArcRadius: 20,
		PerpSize:       8,
		ParallelOffset: 10,
		ParallelStep:   6,
		ChevronSize:    4,
		TangentOffset:  10,
		TickHalf:       6,

		LabelBias:   geom.V(8, -8),
		MeasureBias: geom.V(-28, -10),
	}
}

// Options: параметры одного прохода рендера.
type Options struct {
	RotationDeg float64
	// SymbolOpacity: прозрачность слоя символов; 0 трактуется как 1.
	SymbolOpacity float64
}

func DefaultOptions() Options {
	return Options{SymbolOpacity: 1}
}

func (o Options) opacity() float64 {
	if o.SymbolOpacity <= 0 || o.SymbolOpacity > 1 {
		return 1
	}
	return o.SymbolOpacity
}
