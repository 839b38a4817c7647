package variant

import (
	"fmt"
	"log"

	"markbench/internal/render"
	"markbench/internal/scene"
)

// Config: константы мутатора.
type Config struct {
	// ThinOpacity: прозрачность символов для thin_symbols.
	ThinOpacity float64
}

func DefaultConfig() Config {
	return Config{ThinOpacity: 0.5}
}

// ============================================================
// Mutator
// ============================================================

type Mutator struct {
	cfg      Config
	renderer *render.Renderer
	logger   *log.Logger
}

func NewMutator(cfg Config, renderer *render.Renderer, logger *log.Logger) *Mutator {
	if logger == nil {
		logger = log.Default()
	}
	return &Mutator{cfg: cfg, renderer: renderer, logger: logger}
}

// Result: отрендеренный вариант.
type Result struct {
	Variant Variant
	Scene   *scene.Scene
	Options render.Options
	Output  *render.Output
}

// Mutate применяет mark_removed и render_ops к копии base.
// Базовая сцена не меняется; все операции разбираются до первой правки.
func (m *Mutator) Mutate(base *scene.Scene, v Variant) (*scene.Scene, render.Options, error) {
	ops, err := ParseOps(v.RenderOps)
	if err != nil {
		return nil, render.Options{}, fmt.Errorf("variant %s: %w", v.ID, err)
	}

	w := &workspace{
		cfg:  m.cfg,
		ed:   base.Edit(),
		opts: render.DefaultOptions(),
	}

	for _, id := range v.MarkRemoved {
		if err := (RemoveMark{ID: id}).apply(w); err != nil {
			return nil, render.Options{}, fmt.Errorf("variant %s: mark_removed: %w", v.ID, err)
		}
	}

	for _, op := range ops {
		if err := op.apply(w); err != nil {
			return nil, render.Options{}, fmt.Errorf("variant %s: %s: %w", v.ID, op, err)
		}
	}

	next, err := w.ed.Scene()
	if err != nil {
		return nil, render.Options{}, fmt.Errorf("variant %s: %w", v.ID, err)
	}
	return next, w.opts, nil
}

// Apply строит сцену варианта и рендерит её.
func (m *Mutator) Apply(base *scene.Scene, v Variant) (*Result, error) {
	next, opts, err := m.Mutate(base, v)
	if err != nil {
		return nil, err
	}

	out, err := m.renderer.Render(next, opts)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", v.ID, err)
	}

	m.logger.Printf("[VARIANT] %s/%s: %d removed, %d ops, rotate=%g opacity=%g",
		base.ID(), v.ID, len(v.MarkRemoved), len(v.RenderOps), opts.RotationDeg, opts.SymbolOpacity)

	return &Result{Variant: v, Scene: next, Options: opts, Output: out}, nil
}
