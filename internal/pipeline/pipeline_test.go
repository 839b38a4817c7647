package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"markbench/internal/manifest"
	"markbench/internal/render"
	"markbench/internal/render/raster"
	"markbench/internal/render/svgparse"
	"markbench/internal/scene"
	"markbench/internal/storage"
	"markbench/internal/validate"
	"markbench/internal/variant"
)

type fixture struct {
	root   string
	logs   *bytes.Buffer
	ledger *manifest.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), "items")
	if err := os.CopyFS(root, os.DirFS("testdata/items")); err != nil {
		t.Fatalf("copy items: %v", err)
	}
	ledger, err := manifest.Open(context.Background(), filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("manifest.Open: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return &fixture{root: root, logs: &bytes.Buffer{}, ledger: ledger}
}

func (f *fixture) pipeline(cfg Config, rast raster.Rasterizer) *Pipeline {
	logger := log.New(f.logs, "", 0)
	renderer := render.NewRenderer(render.DefaultStyle(), logger)
	mutator := variant.NewMutator(variant.DefaultConfig(), renderer, logger)
	return New(cfg, storage.NewFileStorage(f.root), renderer, mutator, rast, f.ledger, logger)
}

func (f *fixture) path(parts ...string) string {
	return filepath.Join(append([]string{f.root}, parts...)...)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func nativeRaster(t *testing.T) raster.Rasterizer {
	t.Helper()
	n, err := raster.NewNative()
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	return n
}

// ============================================================
// Run
// ============================================================

func TestRunWritesArtifacts(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(Config{DPIs: []int{96}, Workers: 2}, nativeRaster(t))

	sum, err := p.Run(context.Background(), "T1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Variants != 3 || len(sum.Artifacts) != 10 {
		t.Errorf("summary: %d variants, %d artifacts", sum.Variants, len(sum.Artifacts))
	}

	for _, name := range []string{
		"T1.svg", "T1.pgdp.json", "T1_96.png",
		"T1.rot15.svg", "T1.base_rot.pgdp.json", "T1.rot15_96.png",
		"T1.no_tangent.svg", "T1.no_tangent.pgdp.json", "T1.no_tangent_96.png",
		"T1.text_only.pgdp.json",
	} {
		if !exists(f.path("T1", name)) {
			t.Errorf("missing %s", name)
		}
	}
	if exists(f.path("T1", "T1.text_only.svg")) {
		t.Error("text-only variant wrote an SVG")
	}

	data, err := os.ReadFile(f.path("T1", "T1.no_tangent.pgdp.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc render.FactDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("facts: %v", err)
	}
	if len(doc.Symbols) != 0 || len(doc.Relations) != 1 {
		t.Errorf("no_tangent facts: %d symbols, %d relations", len(doc.Symbols), len(doc.Relations))
	}

	svg, _ := os.ReadFile(f.path("T1", "T1.rot15.svg"))
	if !bytes.Contains(svg, []byte(`rotate(15 200 200)`)) {
		t.Error("rotated variant lacks figure transform")
	}
}

func TestRunRecordsManifest(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(Config{SkipPNG: true, Workers: 4}, nativeRaster(t))

	ctx := context.Background()
	sum, err := p.Run(ctx, "T1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	arts, err := f.ledger.ListByItem(ctx, "T1")
	if err != nil {
		t.Fatalf("ListByItem: %v", err)
	}
	if len(arts) != len(sum.Artifacts) || len(arts) != 7 {
		t.Fatalf("ledger has %d artifacts, summary %d", len(arts), len(sum.Artifacts))
	}
	for _, a := range arts {
		if a.RunID != sum.RunID {
			t.Errorf("artifact %s recorded under run %s", a.Path, a.RunID)
		}
		data, err := os.ReadFile(a.Path)
		if err != nil {
			t.Errorf("read %s: %v", a.Path, err)
			continue
		}
		if manifest.Checksum(data) != a.SHA256 {
			t.Errorf("%s: checksum mismatch", a.Path)
		}
		if a.Kind == manifest.KindPNG {
			t.Errorf("--skip-png still recorded %s", a.Path)
		}
	}

	run, err := f.ledger.LatestRun(ctx, "T1")
	if err != nil || run.ID != sum.RunID || run.Status != manifest.StatusOK {
		t.Errorf("LatestRun = %+v, %v", run, err)
	}
}

func TestRunDeterministic(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(Config{SkipPNG: true, Workers: 3}, nil)

	if _, err := p.Run(context.Background(), "T1"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	first, _ := os.ReadFile(f.path("T1", "T1.no_tangent.svg"))
	if _, err := p.Run(context.Background(), "T1"); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second, _ := os.ReadFile(f.path("T1", "T1.no_tangent.svg"))
	if len(first) == 0 || !bytes.Equal(first, second) {
		t.Error("variant SVG differs between runs")
	}
}

func TestRunStages(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(Config{SkipPNG: true, Workers: 1}, nil)

	sum, err := p.RunStages(context.Background(), "T1", StageBase)
	if err != nil {
		t.Fatalf("RunStages(base): %v", err)
	}
	if sum.Variants != 0 || len(sum.Artifacts) != 2 || exists(f.path("T1", "T1.rot15.svg")) {
		t.Errorf("base stage rendered variants: %+v", sum)
	}

	sum, err = p.RunStages(context.Background(), "T1", StageVariants)
	if err != nil {
		t.Fatalf("RunStages(variants): %v", err)
	}
	if sum.Variants != 3 || len(sum.Artifacts) != 5 {
		t.Errorf("variant stage summary: %+v", sum)
	}
	for _, a := range sum.Artifacts {
		if a.VariantID == "" {
			t.Errorf("variant stage wrote base artifact %s", a.Path)
		}
	}
}

func TestRasterUnavailableIsSkipped(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(Config{DPIs: []int{96}, Workers: 1}, raster.None{})

	sum, err := p.Run(context.Background(), "T1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, a := range sum.Artifacts {
		if a.Kind == manifest.KindPNG {
			t.Errorf("unexpected PNG %s", a.Path)
		}
	}
	if exists(f.path("T1", "T1_96.png")) {
		t.Error("PNG written with raster disabled")
	}
	if !strings.Contains(f.logs.String(), "[RASTER]") {
		t.Errorf("raster skip not logged:\n%s", f.logs)
	}
}

func TestGateRejectsUnlinkedScene(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(Config{SkipPNG: true, Workers: 1}, nil)

	ctx := context.Background()
	_, err := p.Run(ctx, "T2")
	if !errors.Is(err, validate.ErrLinkage) {
		t.Fatalf("Run(T2) = %v, want ErrLinkage", err)
	}
	var lerr *validate.LinkageError
	if !errors.As(err, &lerr) || len(lerr.Unlinked) != 2 {
		t.Errorf("linkage error = %v", err)
	}
	if exists(f.path("T2", "T2.svg")) || exists(f.path("T2", "T2.pgdp.json")) {
		t.Error("output written for a rejected scene")
	}

	run, err := f.ledger.LatestRun(ctx, "T2")
	if err != nil || run.Status != manifest.StatusFailed || run.Error == "" {
		t.Errorf("LatestRun(T2) = %+v, %v", run, err)
	}
}

func TestRunAll(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(Config{SkipPNG: true, Workers: 2}, nil)

	sums, err := p.RunAll(context.Background())
	if !errors.Is(err, validate.ErrLinkage) {
		t.Errorf("RunAll error = %v, want ErrLinkage from T2", err)
	}
	if len(sums) != 1 || sums[0].ItemID != "T1" {
		t.Fatalf("summaries = %+v", sums)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		variants string
		want     error
	}{
		{
			name:     "collision with base svg",
			variants: `[{"variant_id": "v", "text_included": true, "image": "T1.svg"}]`,
			want:     storage.ErrCollision,
		},
		{
			name: "two variants on one image",
			variants: `[{"variant_id": "a", "text_included": true, "image": "x.svg"},
				{"variant_id": "b", "text_included": true, "image": "x.svg"}]`,
			want: storage.ErrCollision,
		},
		{
			name:     "unknown target",
			variants: `[{"variant_id": "v", "text_included": true, "image": "v.svg", "render_ops": ["swap:lblA,ghost"]}]`,
			want:     variant.ErrUnknownTarget,
		},
		{
			name:     "unknown op",
			variants: `[{"variant_id": "v", "text_included": true, "image": "v.svg", "render_ops": ["explode"]}]`,
			want:     variant.ErrUnknownOp,
		},
		{
			name: "flip without decisive symbol",
			variants: `[{"variant_id": "v", "text_included": true, "image": "v.svg",
				"expected_effect": "flip_or_invalidate"}]`,
			want: validate.ErrDecisive,
		},
		{
			name:     "schema",
			variants: `[{"variant_id": 7}]`,
			want:     scene.ErrSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := os.WriteFile(f.path("T1", "T1.variants.json"), []byte(tt.variants), 0o644); err != nil {
				t.Fatal(err)
			}
			p := f.pipeline(Config{SkipPNG: true, Workers: 2}, nil)
			if _, err := p.Run(context.Background(), "T1"); !errors.Is(err, tt.want) {
				t.Errorf("Run = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunRejectsItemIDOutsideRoot(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(Config{SkipPNG: true, Workers: 1}, nil)
	for _, id := range []string{"..", "../T1", "T1/..", ""} {
		if _, err := p.Run(context.Background(), id); !errors.Is(err, storage.ErrBadItemID) {
			t.Errorf("Run(%q) = %v, want ErrBadItemID", id, err)
		}
	}
}

func TestRunWithoutVariants(t *testing.T) {
	f := newFixture(t)
	if err := os.Remove(f.path("T1", "T1.variants.json")); err != nil {
		t.Fatal(err)
	}
	p := f.pipeline(Config{SkipPNG: true, Workers: 1}, nil)

	sum, err := p.Run(context.Background(), "T1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Variants != 0 || len(sum.Artifacts) != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

// ============================================================
// Contract
// ============================================================

func TestContract(t *testing.T) {
	base, err := scene.LoadFile("testdata/items/T1/scene.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	out, err := render.NewRenderer(render.DefaultStyle(), nil).Render(base, render.DefaultOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	doc, err := svgparse.ParseSVG(bytes.NewReader(out.SVG))
	if err != nil {
		t.Fatalf("ParseSVG: %v", err)
	}
	if g := Contract(base, doc); len(g.fatal()) != 0 || len(g.Symbols) != 0 {
		t.Errorf("gaps on a fresh render: %+v", g)
	}

	doc.Layers = doc.Layers[:1]
	g := Contract(base, doc)
	if len(g.Layers) != 2 || len(g.Symbols) != 1 || len(g.Labels) != 8 {
		t.Errorf("gaps = %+v", g)
	}
}

func TestHasStroke(t *testing.T) {
	set := map[string]bool{"par_0": true, "par_1": true, "tangA": true, "s_x": true}
	tests := []struct {
		id   string
		want bool
	}{
		{"par", true},
		{"tangA", true},
		{"s", false},
		{"ghost", false},
	}
	for _, tt := range tests {
		if got := hasStroke(set, tt.id); got != tt.want {
			t.Errorf("hasStroke(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
