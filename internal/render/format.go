package render

import (
	"math"
	"strconv"
	"strings"

	"markbench/internal/geom"
)

// ============================================================
// Formatting helpers
// ============================================================

// formatFloat округляет до prec знаков и печатает кратчайшую запись;
// отрицательный ноль печатается как "0".
func formatFloat(val float64, prec int) string {
	scale := math.Pow(10, float64(prec))
	r := math.Round(val*scale) / scale
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func formatPoint(p geom.Vec, prec int) string {
	return formatFloat(p.X, prec) + " " + formatFloat(p.Y, prec)
}

func formatPath(segs []Segment, prec int) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch s.Op {
		case OpMove:
			b.WriteString("M ")
			b.WriteString(formatPoint(s.To, prec))
		case OpLine:
			b.WriteString("L ")
			b.WriteString(formatPoint(s.To, prec))
		case OpArc:
			r := formatFloat(s.R, prec)
			b.WriteString("A " + r + " " + r + " 0 " + flag(s.Large) + " " + flag(s.Sweep) + " ")
			b.WriteString(formatPoint(s.To, prec))
		case OpClose:
			b.WriteString("Z")
		}
	}
	return b.String()
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
