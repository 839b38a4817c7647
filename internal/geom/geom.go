package geom

import "math"

// ============================================================
// Vector primitives
// ============================================================

// parallelEpsilon: порог детерминанта, ниже которого прямые считаются параллельными.
const parallelEpsilon = 1e-9

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }
func (v Vec) Dot(o Vec) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec) Cross(o Vec) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) IsZero() bool        { return v.X == 0 && v.Y == 0 }

// Distance возвращает евклидово расстояние между точками.
func Distance(a, b Vec) float64 {
	return b.Sub(a).Len()
}

// Midpoint возвращает середину отрезка ab.
func Midpoint(a, b Vec) Vec {
	return Vec{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Unit нормализует вектор. Нулевой вектор остаётся нулевым:
// вызывающий код трактует его как "направление не определено".
func Unit(v Vec) Vec {
	n := v.Len()
	if n == 0 {
		return Vec{}
	}
	return Vec{X: v.X / n, Y: v.Y / n}
}

// Perp поворачивает вектор на +90°: (x, y) -> (-y, x).
func Perp(v Vec) Vec {
	return Vec{X: -v.Y, Y: v.X}
}

// ============================================================
// Angles
// ============================================================

// Angle возвращает направление вектора в радианах (atan2).
func Angle(v Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// Direction возвращает единичный вектор для угла в радианах.
func Direction(rad float64) Vec {
	return Vec{X: math.Cos(rad), Y: math.Sin(rad)}
}

// AngleBetween возвращает минимальный знаковый поворот от направления a
// к направлению b в диапазоне (-π, π].
func AngleBetween(a, b Vec) float64 {
	d := math.Atan2(a.Cross(b), a.Dot(b))
	if d <= -math.Pi {
		d = math.Pi
	}
	return d
}

// NormalizeAngle приводит угол к диапазону (-π, π].
func NormalizeAngle(rad float64) float64 {
	d := math.Mod(rad, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// ============================================================
// Lines
// ============================================================

// LineIntersection пересекает бесконечные прямые p1p2 и p3p4.
// ok == false, если прямые параллельны (или вырождены).
func LineIntersection(p1, p2, p3, p4 Vec) (Vec, bool) {
	denom := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	if math.Abs(denom) < parallelEpsilon {
		return Vec{}, false
	}

	a := p1.X*p2.Y - p1.Y*p2.X
	b := p3.X*p4.Y - p3.Y*p4.X

	return Vec{
		X: (a*(p3.X-p4.X) - (p1.X-p2.X)*b) / denom,
		Y: (a*(p3.Y-p4.Y) - (p1.Y-p2.Y)*b) / denom,
	}, true
}

// Rotate поворачивает точку p вокруг center на deg градусов
// (в экранных координатах с осью Y вниз, как SVG rotate()).
func Rotate(p, center Vec, deg float64) Vec {
	if deg == 0 {
		return p
	}

	rad := deg * math.Pi / 180
	sin := math.Sin(rad)
	cos := math.Cos(rad)

	d := p.Sub(center)
	return Vec{
		X: center.X + d.X*cos - d.Y*sin,
		Y: center.Y + d.X*sin + d.Y*cos,
	}
}

func AlmostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
