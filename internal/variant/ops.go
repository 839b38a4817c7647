package variant

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"markbench/internal/render"
	"markbench/internal/scene"
)

var (
	// ErrUnknownOp: операция не распознана или записана с ошибкой.
	ErrUnknownOp = errors.New("unknown render op")
	// ErrUnknownTarget: операция ссылается на отсутствующий или неподходящий id.
	ErrUnknownTarget = errors.New("unknown op target")
)

// ============================================================
// Typed commands
// ============================================================

// Op: одна разобранная операция render_ops.
type Op interface {
	apply(w *workspace) error
	String() string
}

// workspace: состояние применения одного варианта.
type workspace struct {
	cfg  Config
	ed   *scene.Editor
	opts render.Options
}

// Rotate задаёт поворот фигуры; последняя операция побеждает.
type Rotate struct{ Deg float64 }

// ThinSymbols делает слой символов полупрозрачным.
type ThinSymbols struct{}

// RemoveMark удаляет символ или текст вместе со ссылающимися связями.
type RemoveMark struct{ ID string }

// Nudge прибавляет смещение к offset текста.
type Nudge struct {
	TextID string
	DX, DY float64
}

// Swap меняет строки двух текстов.
type Swap struct{ A, B string }

// Toggle добавляет или удаляет производный символ parallel/perpendicular.
type Toggle struct {
	Kind  scene.SymbolType
	Lines []string
	Add   bool
}

func (o Rotate) String() string     { return "rotate" + strconv.FormatFloat(o.Deg, 'f', -1, 64) }
func (ThinSymbols) String() string  { return "thin_symbols" }
func (o RemoveMark) String() string { return "remove_symbol:" + o.ID }
func (o Swap) String() string       { return "swap:" + o.A + "," + o.B }
func (o Nudge) String() string {
	return fmt.Sprintf("nudge:%s:%s,%s", o.TextID,
		strconv.FormatFloat(o.DX, 'f', -1, 64), strconv.FormatFloat(o.DY, 'f', -1, 64))
}
func (o Toggle) String() string {
	mode := "remove"
	if o.Add {
		mode = "add"
	}
	return fmt.Sprintf("toggle_%s:%s:%s", o.Kind, strings.Join(o.Lines, ","), mode)
}

// DerivedID возвращает id символа toggle: тип и отсортированные id прямых через "__".
func (o Toggle) DerivedID() string {
	return string(o.Kind) + "__" + strings.Join(o.Lines, "__")
}

func (o Rotate) apply(w *workspace) error {
	w.opts.RotationDeg = o.Deg
	return nil
}

func (ThinSymbols) apply(w *workspace) error {
	w.opts.SymbolOpacity = w.cfg.ThinOpacity
	return nil
}

func (o RemoveMark) apply(w *workspace) error {
	return targetError(w.ed.RemoveMark(o.ID))
}

func (o Nudge) apply(w *workspace) error {
	return targetError(w.ed.NudgeText(o.TextID, o.DX, o.DY))
}

func (o Swap) apply(w *workspace) error {
	return targetError(w.ed.SwapText(o.A, o.B))
}

func (o Toggle) apply(w *workspace) error {
	for _, id := range o.Lines {
		typ, ok := w.ed.PrimitiveType(id)
		if !ok {
			return fmt.Errorf("%w: %s: line %q does not exist", ErrUnknownTarget, o, id)
		}
		if typ != scene.PrimitiveLine {
			return fmt.Errorf("%w: %s: %q is a %s, not a line", ErrUnknownTarget, o, id, typ)
		}
	}

	id := o.DerivedID()
	if o.Add {
		w.ed.AddSymbol(scene.Symbol{ID: id, Type: o.Kind, Targets: o.Lines})
		return nil
	}
	if err := w.ed.RemoveSymbol(id); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnknownTarget, o, err)
	}
	return nil
}

func targetError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, scene.ErrUnknownID) {
		return fmt.Errorf("%w: %v", ErrUnknownTarget, err)
	}
	return err
}

// ============================================================
// Parsing
// ============================================================

// ParseOps разбирает все операции до применения; первая ошибка прерывает разбор.
func ParseOps(ops []string) ([]Op, error) {
	out := make([]Op, 0, len(ops))
	for i, raw := range ops {
		op, err := ParseOp(raw)
		if err != nil {
			return nil, fmt.Errorf("render_ops[%d]: %w", i, err)
		}
		out = append(out, op)
	}
	return out, nil
}

func ParseOp(raw string) (Op, error) {
	s := strings.TrimSpace(raw)
	name, body, hasBody := strings.Cut(s, ":")

	switch {
	case s == "thin_symbols":
		return ThinSymbols{}, nil

	case !hasBody && strings.HasPrefix(s, "rotate"):
		deg, err := parseFinite(strings.TrimPrefix(s, "rotate"))
		if err != nil {
			return nil, malformed(raw, "rotate<degrees>")
		}
		return Rotate{Deg: deg}, nil

	case name == "remove_symbol":
		if body == "" {
			return nil, malformed(raw, "remove_symbol:<id>")
		}
		return RemoveMark{ID: body}, nil

	case name == "nudge":
		id, delta, ok := strings.Cut(body, ":")
		dx, dy, ok2 := strings.Cut(delta, ",")
		if !ok || !ok2 || id == "" {
			return nil, malformed(raw, "nudge:<textId>:<dx>,<dy>")
		}
		x, errX := parseFinite(strings.TrimSpace(dx))
		y, errY := parseFinite(strings.TrimSpace(dy))
		if errX != nil || errY != nil {
			return nil, malformed(raw, "nudge:<textId>:<dx>,<dy>")
		}
		return Nudge{TextID: id, DX: x, DY: y}, nil

	case name == "swap":
		a, b, ok := strings.Cut(body, ",")
		if !ok || a == "" || b == "" || strings.Contains(b, ",") {
			return nil, malformed(raw, "swap:<id1>,<id2>")
		}
		return Swap{A: a, B: b}, nil

	case name == "toggle_parallel":
		return parseToggle(raw, scene.SymbolParallel, body, 2, -1)

	case name == "toggle_perpendicular":
		return parseToggle(raw, scene.SymbolPerpendicular, body, 2, 2)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, raw)
}

// parseToggle разбирает "<L1>,<L2>[,...]:add|remove". maxLines < 0 снимает верхнюю границу.
func parseToggle(raw string, kind scene.SymbolType, body string, minLines, maxLines int) (Op, error) {
	want := "toggle_" + string(kind) + ":<L1>,<L2>:add|remove"

	lines, mode, ok := strings.Cut(body, ":")
	if !ok || (mode != "add" && mode != "remove") {
		return nil, malformed(raw, want)
	}

	// Производный id не зависит от порядка и повторов.
	seen := make(map[string]bool)
	var ids []string
	for _, id := range strings.Split(lines, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, malformed(raw, want)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	if len(ids) < minLines || (maxLines > 0 && len(ids) > maxLines) {
		return nil, malformed(raw, want)
	}
	return Toggle{Kind: kind, Lines: ids, Add: mode == "add"}, nil
}

// parseFinite разбирает число; NaN и бесконечности отвергаются.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

func malformed(raw, want string) error {
	return fmt.Errorf("%w: %q (want %s)", ErrUnknownOp, raw, want)
}
