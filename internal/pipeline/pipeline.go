package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"markbench/internal/manifest"
	"markbench/internal/render"
	"markbench/internal/render/raster"
	"markbench/internal/scene"
	"markbench/internal/storage"
	"markbench/internal/validate"
	"markbench/internal/variant"
)

// Config: параметры сборки item.
type Config struct {
	SkipPNG bool
	DPIs    []int
	// Workers: сколько вариантов рендерится одновременно.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		DPIs:    raster.DefaultDPIs,
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Stage: что рендерить за прогон. Gate выполняется всегда.
type Stage uint8

const (
	StageBase Stage = 1 << iota
	StageVariants

	StageAll = StageBase | StageVariants
)

// Summary: итог прогона одного item.
type Summary struct {
	ItemID    string              `json:"item_id"`
	RunID     string              `json:"run_id"`
	Variants  int                 `json:"variants"`
	Artifacts []manifest.Artifact `json:"artifacts"`
}

// ============================================================
// Pipeline
// ============================================================

type Pipeline struct {
	cfg      Config
	store    *storage.FileStorage
	renderer *render.Renderer
	mutator  *variant.Mutator
	raster   raster.Rasterizer
	ledger   *manifest.Repository
	logger   *log.Logger
}

// New собирает pipeline. rast == nil выключает PNG, ledger == nil выключает журнал.
func New(cfg Config, store *storage.FileStorage, renderer *render.Renderer, mutator *variant.Mutator,
	rast raster.Rasterizer, ledger *manifest.Repository, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	if rast == nil {
		rast = raster.None{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		renderer: renderer,
		mutator:  mutator,
		raster:   rast,
		ledger:   ledger,
		logger:   logger,
	}
}

// Load читает сцену и (если есть) список вариантов item.
func (p *Pipeline) Load(itemID string) (*scene.Scene, []variant.Variant, error) {
	base, err := scene.LoadFile(p.store.ScenePath(itemID))
	if err != nil {
		return nil, nil, err
	}

	path := p.store.VariantsPath(itemID)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return base, nil, nil
	}
	vs, err := variant.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return base, vs, nil
}

// Gate выполняет проверки перед рендером: связи сцены и решающие символы вариантов.
func Gate(base *scene.Scene, vs []variant.Variant) error {
	if err := validate.CheckScene(base); err != nil {
		return err
	}
	return validate.CheckVariants(base, vs)
}

// Run валидирует и рендерит один item: базовую сцену и все варианты.
func (p *Pipeline) Run(ctx context.Context, itemID string) (*Summary, error) {
	return p.RunStages(ctx, itemID, StageAll)
}

// RunStages: Run с выбором стадий. Ошибка любого варианта останавливает запуск новых.
func (p *Pipeline) RunStages(ctx context.Context, itemID string, stages Stage) (sum *Summary, err error) {
	if err := storage.CheckItemID(itemID); err != nil {
		return nil, err
	}
	runID := manifest.NewRunID()
	if p.ledger != nil {
		if err := p.ledger.BeginRun(ctx, runID, itemID); err != nil {
			return nil, err
		}
		defer func() {
			if ferr := p.ledger.FinishRun(context.WithoutCancel(ctx), runID, err); ferr != nil && err == nil {
				err = ferr
			}
		}()
	}

	base, vs, err := p.Load(itemID)
	if err != nil {
		return nil, err
	}
	if err := Gate(base, vs); err != nil {
		return nil, err
	}

	paths, err := p.plan(itemID, vs)
	if err != nil {
		return nil, err
	}
	if err := p.store.EnsureItemDir(itemID); err != nil {
		return nil, err
	}

	art := artifactSink{runID: runID, itemID: itemID}
	if stages&StageBase != 0 {
		out, err := p.renderer.Render(base, render.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", itemID, err)
		}
		if err := p.contract(base, out.SVG); err != nil {
			return nil, fmt.Errorf("item %s: %w", itemID, err)
		}
		if err := p.write(ctx, &art, "", paths.base, out); err != nil {
			return nil, err
		}
	}

	if stages&StageVariants == 0 {
		vs = nil
	}
	results := make([]artifactSink, len(vs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, v := range vs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = artifactSink{runID: runID, itemID: itemID}
			return p.renderVariant(gctx, &results[i], base, v, paths.variants[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}

	sum = &Summary{ItemID: itemID, RunID: runID, Variants: len(vs), Artifacts: art.items}
	for _, r := range results {
		sum.Artifacts = append(sum.Artifacts, r.items...)
	}

	if p.ledger != nil {
		for _, a := range sum.Artifacts {
			if err := p.ledger.Record(ctx, a); err != nil {
				return nil, err
			}
		}
	}

	p.logger.Printf("[PIPELINE] %s: run %s, %d variants, %d artifacts",
		itemID, runID, len(vs), len(sum.Artifacts))
	return sum, nil
}

// RunAll обрабатывает все item под корнем хранилища по очереди.
// Ошибка item не останавливает остальные; ошибки объединяются.
func (p *Pipeline) RunAll(ctx context.Context) ([]*Summary, error) {
	ids, err := p.store.Items()
	if err != nil {
		return nil, err
	}

	var sums []*Summary
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sums, err
		}
		sum, err := p.Run(ctx, id)
		if err != nil {
			p.logger.Printf("[PIPELINE] %s: %v", id, err)
			errs = append(errs, err)
			continue
		}
		sums = append(sums, sum)
	}
	return sums, errors.Join(errs...)
}

// ============================================================
// Rendering
// ============================================================

func (p *Pipeline) renderVariant(ctx context.Context, sink *artifactSink, base *scene.Scene, v variant.Variant, t target) error {
	res, err := p.mutator.Apply(base, v)
	if err != nil {
		return err
	}
	if t.svg != "" {
		if err := p.contract(res.Scene, res.Output.SVG); err != nil {
			return fmt.Errorf("variant %s: %w", v.ID, err)
		}
	}
	return p.write(ctx, sink, v.ID, t, res.Output)
}

// write сохраняет SVG (если путь задан), facts и PNG одного рендера.
func (p *Pipeline) write(ctx context.Context, sink *artifactSink, variantID string, t target, out *render.Output) error {
	if t.svg != "" {
		if err := p.store.SaveFile(t.svg, out.SVG); err != nil {
			return err
		}
		sink.add(variantID, manifest.KindSVG, t.svg, out.SVG)
	}

	if err := p.store.SaveFile(t.facts, out.Facts); err != nil {
		return err
	}
	sink.add(variantID, manifest.KindFacts, t.facts, out.Facts)

	if t.svg == "" || p.cfg.SkipPNG {
		return nil
	}

	files, err := raster.Export(ctx, p.raster, out.Drawing, out.SVG, storage.RasterBaseFor(t.svg), p.cfg.DPIs, p.store.SaveFile)
	for _, f := range files {
		sink.add(variantID, manifest.KindPNG, f.Path, f.Data)
	}
	if errors.Is(err, raster.ErrBackendUnavailable) {
		p.logger.Printf("[RASTER] %s: %v; skipping PNG", t.svg, err)
		return nil
	}
	return err
}

// artifactSink копит записанные артефакты одного рендера.
type artifactSink struct {
	runID, itemID string
	items         []manifest.Artifact
}

func (s *artifactSink) add(variantID, kind, path string, data []byte) {
	s.items = append(s.items, manifest.Artifact{
		RunID:     s.runID,
		ItemID:    s.itemID,
		VariantID: variantID,
		Kind:      kind,
		Path:      path,
		SHA256:    manifest.Checksum(data),
	})
}
