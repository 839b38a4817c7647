package variant

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"testing"

	"markbench/internal/geom"
	"markbench/internal/render"
	"markbench/internal/scene"
)

func loadBase(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.LoadFile("testdata/scene.yaml")
	if err != nil {
		t.Fatalf("scene.LoadFile: %v", err)
	}
	return s
}

func newMutator() *Mutator {
	quiet := log.New(&bytes.Buffer{}, "", 0)
	return NewMutator(DefaultConfig(), render.NewRenderer(render.DefaultStyle(), quiet), quiet)
}

func facts(t *testing.T, data []byte) render.FactDocument {
	t.Helper()
	var doc render.FactDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("facts: %v", err)
	}
	return doc
}

func symbolIDs(doc render.FactDocument) []string {
	var ids []string
	for _, s := range doc.Symbols {
		ids = append(ids, s.ID)
	}
	return ids
}

// ============================================================
// Loading & parsing
// ============================================================

func TestLoadFile(t *testing.T) {
	vs, err := LoadFile("testdata/T1.variants.json")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(vs) != 3 {
		t.Fatalf("variants = %d, want 3", len(vs))
	}

	if p, ok := vs[0].ImagePath(); !ok || p != "T1.rot15.svg" {
		t.Errorf("ImagePath = %q, %v", p, ok)
	}
	if !vs[1].FlipsAnswer() || vs[1].Decisive() != "tangA" {
		t.Errorf("variant 1 = %+v", vs[1])
	}
	if _, ok := vs[2].ImagePath(); ok {
		t.Error("text-only variant reports an image")
	}
	if vs[0].FlipsAnswer() {
		t.Error("expected_effect none reported as flip")
	}
}

func TestLoadRejectsSchema(t *testing.T) {
	_, err := Load([]byte(`[{"variant_id": "v", "expected_effect": "explode"}]`))
	if !errors.Is(err, scene.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		raw  string
		want Op
	}{
		{"rotate15", Rotate{Deg: 15}},
		{"rotate-20", Rotate{Deg: -20}},
		{"rotate7.5", Rotate{Deg: 7.5}},
		{"thin_symbols", ThinSymbols{}},
		{"remove_symbol:tangA", RemoveMark{ID: "tangA"}},
		{"nudge:m1:3,-2", Nudge{TextID: "m1", DX: 3, DY: -2}},
		{"swap:lblA,lblP", Swap{A: "lblA", B: "lblP"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseOp(tt.raw)
			if err != nil {
				t.Fatalf("ParseOp: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseOp = %#v, want %#v", got, tt.want)
			}
			if got.String() != tt.raw {
				t.Errorf("String() = %q, want %q", got.String(), tt.raw)
			}
		})
	}
}

func TestParseToggleNormalisesIDs(t *testing.T) {
	op, err := ParseOp("toggle_parallel:QR,PA,QR:add")
	if err != nil {
		t.Fatalf("ParseOp: %v", err)
	}
	tg := op.(Toggle)
	if tg.DerivedID() != "parallel__PA__QR" || !tg.Add {
		t.Errorf("toggle = %+v (%s)", tg, tg.DerivedID())
	}

	op, _ = ParseOp("toggle_perpendicular:OP,QR:remove")
	if op.(Toggle).DerivedID() != "perpendicular__OP__QR" || op.(Toggle).Add {
		t.Errorf("toggle = %+v", op)
	}
}

func TestParseOpRejects(t *testing.T) {
	for _, raw := range []string{
		"explode",
		"rotate",
		"rotatex",
		"remove_symbol:",
		"nudge:m1:3",
		"nudge:m1:a,b",
		"nudge:m1:NaN,0",
		"nudge:m1:0,inf",
		"rotateNaN",
		"rotateInf",
		"rotate+Inf",
		"rotate-infinity",
		"rotate1e400",
		"swap:a",
		"swap:a,b,c",
		"toggle_parallel:PA:add",
		"toggle_parallel:PA,QR:flip",
		"toggle_perpendicular:PA,QR,OP:add",
		"toggle_parallel:PA,,QR:add",
	} {
		t.Run(raw, func(t *testing.T) {
			if _, err := ParseOp(raw); !errors.Is(err, ErrUnknownOp) {
				t.Errorf("ParseOp(%q) = %v, want ErrUnknownOp", raw, err)
			}
		})
	}
}

// ============================================================
// Mutation
// ============================================================

func TestRotateAndThin(t *testing.T) {
	m := newMutator()
	_, opts, err := m.Mutate(loadBase(t), Variant{ID: "v", RenderOps: []string{"rotate10", "thin_symbols", "rotate-5"}})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if opts.RotationDeg != -5 || opts.SymbolOpacity != 0.5 {
		t.Errorf("opts = %+v", opts)
	}
}

func TestMarkRemovedFacts(t *testing.T) {
	base := loadBase(t)
	m := newMutator()

	baseOut, err := render.NewRenderer(render.DefaultStyle(), nil).Render(base, render.DefaultOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	res, err := m.Apply(base, Variant{ID: "no_tangent", MarkRemoved: []string{"tangA"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	before, after := facts(t, baseOut.Facts), facts(t, res.Output.Facts)
	if len(after.Symbols) != len(before.Symbols)-1 || len(after.Relations) != len(before.Relations)-1 {
		t.Errorf("symbols %d -> %d, relations %d -> %d",
			len(before.Symbols), len(after.Symbols), len(before.Relations), len(after.Relations))
	}
	for _, r := range after.Relations {
		if r.References("tangA") {
			t.Errorf("relation still references tangA: %+v", r)
		}
	}
	if len(after.Points) != len(before.Points) || len(after.Lines) != len(before.Lines) ||
		len(after.Circles) != len(before.Circles) || len(after.Texts) != len(before.Texts) {
		t.Error("unrelated entities changed")
	}
	if _, ok := res.Output.Drawing.Find("tangA"); ok {
		t.Error("tangent glyph still drawn")
	}

	if _, ok := base.Symbol("tangA"); !ok {
		t.Error("base scene mutated")
	}
}

func TestToggleParallelIdempotent(t *testing.T) {
	base := loadBase(t)
	m := newMutator()

	once, err := m.Apply(base, Variant{ID: "once", RenderOps: []string{"toggle_parallel:PA,QR:add"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	twice, err := m.Apply(base, Variant{ID: "twice", RenderOps: []string{
		"toggle_parallel:PA,QR:add",
		"toggle_parallel:QR,PA:add",
	}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !bytes.Equal(once.Output.Facts, twice.Output.Facts) {
		t.Error("second add changed facts")
	}
	ids := symbolIDs(facts(t, once.Output.Facts))
	if len(ids) != 2 || ids[1] != "parallel__PA__QR" {
		t.Errorf("symbols = %v", ids)
	}
	if _, ok := once.Output.Drawing.Find("parallel__PA__QR_1"); !ok {
		t.Error("second chevron missing")
	}
}

func TestToggleRemoveRestores(t *testing.T) {
	base := loadBase(t)
	m := newMutator()

	plain, err := m.Apply(base, Variant{ID: "plain"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	round, err := m.Apply(base, Variant{ID: "round", RenderOps: []string{
		"toggle_parallel:PA,QR:add",
		"toggle_parallel:PA,QR:remove",
	}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(plain.Output.Facts, round.Output.Facts) {
		t.Errorf("add+remove did not restore facts:\n%s\nvs\n%s", plain.Output.Facts, round.Output.Facts)
	}
}

func TestTogglePerpendicularAtIntersection(t *testing.T) {
	m := newMutator()
	res, err := m.Apply(loadBase(t), Variant{ID: "perp", RenderOps: []string{"toggle_perpendicular:QR,OP:add"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sq, ok := res.Output.Drawing.Find("perpendicular__OP__QR")
	if !ok {
		t.Fatal("perpendicular square missing")
	}
	// QR: y = 60, OP: x = 100; общих точек нет.
	want, _ := geom.LineIntersection(geom.V(40, 60), geom.V(160, 60), geom.V(100, 100), geom.V(100, 0))
	center := sq.Min.Add(sq.Size.Scale(0.5))
	if !geom.AlmostEqual(center.X, want.X, 1e-9) || !geom.AlmostEqual(center.Y, want.Y, 1e-9) {
		t.Errorf("square centred at %v, want %v", center, want)
	}
	if want != geom.V(100, 60) {
		t.Errorf("hand-computed intersection = %v", want)
	}
}

func TestNudgeAndSwap(t *testing.T) {
	m := newMutator()
	next, _, err := m.Mutate(loadBase(t), Variant{ID: "v", RenderOps: []string{
		"nudge:m1:3,-2",
		"nudge:m1:1,1",
		"swap:lblA,lblP",
	}})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	m1, _ := next.Text("m1")
	if off := m1.OffsetVec(); off != geom.V(8, -1) {
		t.Errorf("offset = %v, want (8, -1)", off)
	}
	a, _ := next.Text("lblA")
	p, _ := next.Text("lblP")
	if a.String != "P" || p.String != "A" {
		t.Errorf("swap: lblA=%q lblP=%q", a.String, p.String)
	}
}

func TestMutateErrors(t *testing.T) {
	tests := []struct {
		name string
		v    Variant
		want error
	}{
		{"unknown op", Variant{ID: "v", RenderOps: []string{"rotate5", "explode"}}, ErrUnknownOp},
		{"unknown mark", Variant{ID: "v", MarkRemoved: []string{"ghost"}}, ErrUnknownTarget},
		{"nudge missing text", Variant{ID: "v", RenderOps: []string{"nudge:ghost:1,1"}}, ErrUnknownTarget},
		{"swap missing text", Variant{ID: "v", RenderOps: []string{"swap:lblA,ghost"}}, ErrUnknownTarget},
		{"toggle on circle", Variant{ID: "v", RenderOps: []string{"toggle_parallel:PA,circO:add"}}, ErrUnknownTarget},
		{"toggle missing line", Variant{ID: "v", RenderOps: []string{"toggle_parallel:PA,XY:add"}}, ErrUnknownTarget},
		{"remove absent toggle", Variant{ID: "v", RenderOps: []string{"toggle_perpendicular:PA,OP:remove"}}, ErrUnknownTarget},
		{"remove twice", Variant{ID: "v", MarkRemoved: []string{"tangA"}, RenderOps: []string{"remove_symbol:tangA"}}, ErrUnknownTarget},
	}

	base := loadBase(t)
	m := newMutator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := m.Mutate(base, tt.v); !errors.Is(err, tt.want) {
				t.Errorf("Mutate = %v, want %v", err, tt.want)
			}
		})
	}

	if len(base.Symbols()) != 1 || len(base.Relations()) != 2 {
		t.Error("failed variants mutated the base scene")
	}
}
