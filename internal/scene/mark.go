package scene

import "fmt"

// ============================================================
// Typed symbol marks
// ============================================================

// Mark: закрытое множество видов символов. Каждый Symbol декодируется
// ровно в один из пяти типов ниже; рендерер разбирает их через type switch.
type Mark interface {
	Kind() SymbolType
	isMark()
}

// AngleArc: дуга угла между двумя прямыми в вершине.
type AngleArc struct {
	Line1, Line2, Vertex string
}

// Perpendicular: квадратик прямого угла между двумя прямыми.
type Perpendicular struct {
	Line1, Line2 string
}

// Parallel: шевроны параллельности на каждой прямой.
type Parallel struct {
	Lines []string
}

// TangentMark: глиф касания у точки.
type TangentMark struct {
	Line, Point string
}

// TickBar: засечка равенства отрезков.
type TickBar struct {
	Line string
}

func (AngleArc) Kind() SymbolType      { return SymbolAngleArc }
func (Perpendicular) Kind() SymbolType { return SymbolPerpendicular }
func (Parallel) Kind() SymbolType      { return SymbolParallel }
func (TangentMark) Kind() SymbolType   { return SymbolTangentMark }
func (TickBar) Kind() SymbolType       { return SymbolTickBar }

func (AngleArc) isMark()      {}
func (Perpendicular) isMark() {}
func (Parallel) isMark()      {}
func (TangentMark) isMark()   {}
func (TickBar) isMark()       {}

// Mark декодирует targets символа в типизированную метку по его Type.
// Проверяется только арность; виды целей проверяет Scene при сборке.
func (s Symbol) Mark() (Mark, error) {
	t := s.Targets
	switch s.Type {
	case SymbolAngleArc:
		if len(t) != 3 {
			return nil, arityError(s, "[line, line, vertex]")
		}
		return AngleArc{Line1: t[0], Line2: t[1], Vertex: t[2]}, nil
	case SymbolPerpendicular:
		if len(t) != 2 {
			return nil, arityError(s, "[line, line]")
		}
		return Perpendicular{Line1: t[0], Line2: t[1]}, nil
	case SymbolParallel:
		if len(t) < 2 {
			return nil, arityError(s, "[line, line, ...]")
		}
		return Parallel{Lines: cloneStrings(t)}, nil
	case SymbolTangentMark:
		if len(t) != 2 {
			return nil, arityError(s, "[line, point]")
		}
		return TangentMark{Line: t[0], Point: t[1]}, nil
	case SymbolTickBar:
		if len(t) != 1 {
			return nil, arityError(s, "[line]")
		}
		return TickBar{Line: t[0]}, nil
	}
	return nil, fmt.Errorf("symbol %s: unsupported type %q", s.ID, s.Type)
}

func arityError(s Symbol, want string) error {
	return fmt.Errorf("symbol %s (%s): targets %v, want %s", s.ID, s.Type, s.Targets, want)
}
