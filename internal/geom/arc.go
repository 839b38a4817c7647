package geom

import "math"

// ============================================================
// Circular arcs
// ============================================================

// ArcCenter переводит SVG-дугу из endpoint-параметризации (p0 -> p1, радиус r,
// флаги large/sweep) в центр, начальный угол и знаковую развёртку.
// Радиус увеличивается до половины хорды, если его не хватает (как в SVG).
func ArcCenter(p0, p1 Vec, r float64, large, sweep bool) (center Vec, start, delta float64) {
	chord := p1.Sub(p0)
	half := chord.Len() / 2
	if half == 0 || r == 0 {
		return p0, 0, 0
	}
	if r < half {
		r = half
	}

	mid := Midpoint(p0, p1)
	h := math.Sqrt(math.Max(r*r-half*half, 0))
	n := Perp(Unit(chord))

	// Центр лежит на серединном перпендикуляре; сторону выбирают флаги.
	if large == sweep {
		center = mid.Sub(n.Scale(h))
	} else {
		center = mid.Add(n.Scale(h))
	}

	start = Angle(p0.Sub(center))
	end := Angle(p1.Sub(center))
	delta = end - start

	if sweep && delta < 0 {
		delta += 2 * math.Pi
	}
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}
	return center, start, delta
}

// ArcPoints дискретизирует дугу окружности в ломаную из steps+1 точек.
func ArcPoints(center Vec, r, start, delta float64, steps int) []Vec {
	if steps < 1 {
		steps = 1
	}
	out := make([]Vec, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := start + delta*float64(i)/float64(steps)
		out = append(out, center.Add(Direction(a).Scale(r)))
	}
	return out
}

// CirclePoints дискретизирует окружность в замкнутую ломаную.
func CirclePoints(center Vec, r float64, steps int) []Vec {
	return ArcPoints(center, r, 0, 2*math.Pi, steps)
}
