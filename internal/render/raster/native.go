package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"markbench/internal/geom"
	"markbench/internal/render"
)

// supersample: во сколько раз крупнее рисуется кадр перед уменьшением.
const supersample = 2

// Native рисует на чистом Go тот же display list, что уходит в SVG:
// векторный растеризатор x/image и шрифт Go Regular.
type Native struct {
	font *opentype.Font
}

func NewNative() (*Native, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Native{font: fnt}, nil
}

func (n *Native) Name() string { return "native" }

func (n *Native) Rasterize(ctx context.Context, d *render.Drawing, _ []byte, dpi int) ([]byte, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid dpi %d", dpi)
	}

	scale := float64(dpi) / 96
	w := int(math.Ceil(d.Width * scale))
	h := int(math.Ceil(d.Height * scale))

	big := image.NewRGBA(image.Rect(0, 0, w*supersample, h*supersample))
	draw.Draw(big, big.Bounds(), image.White, image.Point{}, draw.Src)

	face, err := opentype.NewFace(n.font, &opentype.FaceOptions{
		Size:    d.FontSize * scale * supersample,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	defer face.Close()

	p := &painter{
		img:  big,
		face: face,
		k:    scale * supersample,
		d:    d,
	}
	for _, layer := range d.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, e := range layer.Elements {
			p.element(e, layer.Opacity)
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ============================================================
// Painter
// ============================================================

type painter struct {
	img  *image.RGBA
	face font.Face
	k    float64
	d    *render.Drawing
	z    vector.Rasterizer
}

// pt переводит точку холста в пиксели: поворот фигуры, затем масштаб.
func (p *painter) pt(v geom.Vec) geom.Vec {
	return geom.Rotate(v, p.d.Center, p.d.RotationDeg).Scale(p.k)
}

func (p *painter) pts(vs []geom.Vec) []geom.Vec {
	out := make([]geom.Vec, len(vs))
	for i, v := range vs {
		out[i] = p.pt(v)
	}
	return out
}

func (p *painter) element(e render.Element, opacity float64) {
	fill, hasFill := parseColor(e.Fill, opacity)
	stroke, hasStroke := parseColor(e.Stroke, opacity)

	switch e.Kind {
	case render.KindCircle:
		ring := p.pts(geom.CirclePoints(e.Center, e.R, circleSteps(e.R*p.k)))
		if hasFill {
			p.fill(ring, fill)
		}
		if hasStroke {
			p.stroke(ring, e.StrokeWidth, stroke)
		}

	case render.KindLine:
		if hasStroke {
			p.stroke(p.pts([]geom.Vec{e.From, e.To}), e.StrokeWidth, stroke)
		}

	case render.KindRect:
		corners := p.pts([]geom.Vec{
			e.Min,
			e.Min.Add(geom.V(e.Size.X, 0)),
			e.Min.Add(e.Size),
			e.Min.Add(geom.V(0, e.Size.Y)),
			e.Min,
		})
		if hasFill {
			p.fill(corners, fill)
		}
		if hasStroke {
			p.stroke(corners, e.StrokeWidth, stroke)
		}

	case render.KindPath:
		if !hasStroke {
			return
		}
		for _, run := range flatten(e.Path) {
			p.stroke(p.pts(run), e.StrokeWidth, stroke)
		}

	case render.KindText:
		if hasFill {
			p.text(e.At, e.Text, fill)
		}
	}
}

// stroke рисует ломаную прямоугольниками вдоль сегментов с квадратными концами.
func (p *painter) stroke(run []geom.Vec, width float64, c color.Color) {
	hw := width * p.k / 2
	if hw <= 0 {
		hw = p.k / 2
	}

	for i := 1; i < len(run); i++ {
		a, b := run[i-1], run[i]
		dir := geom.Unit(b.Sub(a))
		if dir.IsZero() {
			continue
		}
		n := geom.Perp(dir).Scale(hw)
		a = a.Sub(dir.Scale(hw))
		b = b.Add(dir.Scale(hw))
		p.fill([]geom.Vec{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}, c)
	}
}

// fill заливает многоугольник через маску по его bounding box.
func (p *painter) fill(poly []geom.Vec, c color.Color) {
	if len(poly) < 3 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range poly {
		minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
		minY, maxY = math.Min(minY, v.Y), math.Max(maxY, v.Y)
	}

	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	if box.Intersect(p.img.Bounds()).Empty() {
		return
	}

	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	p.z.Reset(box.Dx(), box.Dy())
	p.z.DrawOp = draw.Src
	p.z.MoveTo(float32(poly[0].X-ox), float32(poly[0].Y-oy))
	for _, v := range poly[1:] {
		p.z.LineTo(float32(v.X-ox), float32(v.Y-oy))
	}
	p.z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	p.z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	draw.DrawMask(p.img, box, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// text ставит базовую линию в точку at, как SVG <text x y>. Глифы не поворачиваются.
func (p *painter) text(at geom.Vec, s string, c color.Color) {
	dot := p.pt(at)
	dr := &font.Drawer{
		Dst:  p.img,
		Src:  image.NewUniform(c),
		Face: p.face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(dot.X * 64), Y: fixed.Int26_6(dot.Y * 64)},
	}
	dr.DrawString(s)
}

// ============================================================
// Geometry helpers
// ============================================================

// flatten превращает path в ломаные: каждая M начинает новую.
func flatten(segs []render.Segment) [][]geom.Vec {
	var runs [][]geom.Vec
	var cur []geom.Vec
	var start geom.Vec

	for _, s := range segs {
		switch s.Op {
		case render.OpMove:
			if len(cur) > 1 {
				runs = append(runs, cur)
			}
			cur = []geom.Vec{s.To}
			start = s.To
		case render.OpLine:
			cur = append(cur, s.To)
		case render.OpArc:
			if len(cur) == 0 {
				cur = []geom.Vec{s.To}
				continue
			}
			from := cur[len(cur)-1]
			center, a0, delta := geom.ArcCenter(from, s.To, s.R, s.Large, s.Sweep)
			if delta == 0 {
				cur = append(cur, s.To)
				continue
			}
			arc := geom.ArcPoints(center, geom.Distance(center, from), a0, delta, arcSteps(delta))
			cur = append(cur, arc[1:]...)
		case render.OpClose:
			cur = append(cur, start)
		}
	}
	if len(cur) > 1 {
		runs = append(runs, cur)
	}
	return runs
}

func arcSteps(delta float64) int {
	return int(math.Ceil(math.Abs(delta)/(math.Pi/32))) + 1
}

func circleSteps(pixelRadius float64) int {
	n := int(math.Ceil(pixelRadius))
	if n < 16 {
		return 16
	}
	if n > 256 {
		return 256
	}
	return n
}

// parseColor разбирает #rgb / #rrggbb; "none" и пустая строка дают false.
func parseColor(s string, opacity float64) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" || s == "none" {
		return color.NRGBA{}, false
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}

	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(math.Round(255 * opacity)),
	}, true
}
