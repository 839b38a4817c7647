package svgparse

import (
	"strings"
	"testing"

	"markbench/internal/geom"
	"markbench/internal/render"
	"markbench/internal/scene"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="400" height="400" viewBox="0 0 400 400">
  <g id="figure" transform="rotate(15 200 200)">
    <g id="primitives">
      <circle id="c" cx="100" cy="100" r="50" fill="none" stroke="#000" stroke-width="2" />
      <line id="L1" x1="0" y1="0" x2="100" y2="0" fill="none" stroke="#000" stroke-width="2" />
    </g>
    <g id="symbols" opacity="0.5">
      <rect id="perp" x="-4" y="-4" width="8" height="8" />
      <path id="par_0" d="M 46 14 L 54 10 L 46 6" />
    </g>
    <g id="labels">
      <text id="lbl" class="label" x="8" y="-8">A &amp; B</text>
    </g>
  </g>
</svg>
`

func TestParseSVG(t *testing.T) {
	doc, err := ParseSVG(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ParseSVG: %v", err)
	}

	if doc.Width != 400 || doc.Transform != "rotate(15 200 200)" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Layers) != 3 {
		t.Fatalf("layers = %d, want 3", len(doc.Layers))
	}

	prims, _ := doc.Layer("primitives")
	if got := strings.Join(prims.IDs(), ","); got != "c,L1" {
		t.Errorf("primitive ids = %s", got)
	}
	if prims.Elements[0].R != 50 || prims.Elements[1].Points[1] != geom.V(100, 0) {
		t.Errorf("primitive geometry = %+v", prims.Elements)
	}

	syms, _ := doc.Layer("symbols")
	if syms.Opacity != 0.5 {
		t.Errorf("symbol opacity = %v", syms.Opacity)
	}
	if syms.Elements[0].Kind != "rect" || syms.Elements[0].Points[1] != geom.V(4, 4) {
		t.Errorf("rect = %+v", syms.Elements[0])
	}
	if len(syms.Elements[1].Points) != 3 {
		t.Errorf("chevron points = %v", syms.Elements[1].Points)
	}

	labels, _ := doc.Layer("labels")
	if labels.Elements[0].Text != "A & B" || labels.Elements[0].Class != "label" {
		t.Errorf("text = %+v", labels.Elements[0])
	}
}

func TestParseSVGRejectsNonSVG(t *testing.T) {
	if _, err := ParseSVG(strings.NewReader(`<html></html>`)); err == nil {
		t.Fatal("expected error for non-svg root")
	}
	if _, err := ParseSVG(strings.NewReader(`<svg><g id="x"><path id="p" d="M 1" /></g></svg>`)); err == nil {
		t.Fatal("expected error for malformed path")
	}
}

func TestParseRenderedSVG(t *testing.T) {
	s, err := scene.Load([]byte(`
version: "1"
id: rt
points: [{id: A, x: 0, y: 0}, {id: B, x: 100, y: 0}, {id: C, x: 0, y: 100}]
primitives:
  - {id: AB, type: Line, p1: A, p2: B}
  - {id: AC, type: Line, p1: A, p2: C}
symbols:
  - {id: r, type: perpendicular, targets: [AB, AC]}
  - {id: k, type: angle_arc, targets: [AB, AC, A]}
relations:
  - {type: sym2geo, symbol_id: r, target_ids: [AB, AC]}
  - {type: sym2geo, symbol_id: k, target_ids: [AB, AC, A]}
`))
	if err != nil {
		t.Fatalf("scene.Load: %v", err)
	}
	out, err := render.NewRenderer(render.DefaultStyle(), nil).Render(s, render.Options{RotationDeg: 30, SymbolOpacity: 0.5})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	doc, err := ParseSVG(strings.NewReader(string(out.SVG)))
	if err != nil {
		t.Fatalf("ParseSVG: %v", err)
	}
	if doc.Transform != "rotate(30 200 200)" {
		t.Errorf("transform = %q", doc.Transform)
	}
	syms, ok := doc.Layer(render.LayerSymbols)
	if !ok || strings.Join(syms.IDs(), ",") != "r,k" || syms.Opacity != 0.5 {
		t.Errorf("symbols layer = %+v", syms)
	}
	arc := syms.Elements[1]
	if len(arc.Points) != 2 || arc.Points[0] != geom.V(20, 0) || arc.Points[1] != geom.V(0, 20) {
		t.Errorf("angle arc points = %v", arc.Points)
	}
	labels, _ := doc.Layer(render.LayerLabels)
	if strings.Join(labels.IDs(), ",") != "pt_A,pt_B,pt_C" {
		t.Errorf("label ids = %v", labels.IDs())
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name string
		d    string
		want []geom.Vec
	}{
		{"absolute", "M 0 0 L 10 0 L 10 10 Z", []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 0}}},
		{"relative", "m 5 5 l 10 0 v 5 h -10", []geom.Vec{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 10}, {X: 5, Y: 10}}},
		{"implicit lineto", "M 0,0 10,0 10,10", []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}},
		{"arc endpoint", "M 20 0 A 20 20 0 0 1 0 20", []geom.Vec{{X: 20, Y: 0}, {X: 0, Y: 20}}},
		{"relative arc", "M 20 0 a 20 20 0 0 1 -20 20", []geom.Vec{{X: 20, Y: 0}, {X: 0, Y: 20}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.d)
			if err != nil {
				t.Fatalf("ParsePath: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("point %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	for _, bad := range []string{"", "M 1", "M 0 0 A 1 1 0 0 1"} {
		if _, err := ParsePath(bad); err == nil {
			t.Errorf("ParsePath(%q): expected error", bad)
		}
	}
}
