package svgparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"markbench/internal/geom"
)

var commandRe = regexp.MustCompile(`([MmLlHhVvAaZz])([^MmLlHhVvAaZz]*)`)

// ============================================================
// Path Parser
// ============================================================

// ParsePath парсит SVG path в список опорных точек. Для дуг (A/a)
// берётся только конечная точка.
func ParsePath(d string) ([]geom.Vec, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}

	var points []geom.Vec
	var cur, start geom.Vec

	for _, match := range commandRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords := parseCoords(match[2])

		switch cmd {
		case "M", "m", "L", "l":
			if len(coords) < 2 || len(coords)%2 != 0 {
				return nil, fmt.Errorf("%s: want coordinate pairs, got %v", cmd, coords)
			}
			for i := 0; i < len(coords); i += 2 {
				p := geom.V(coords[i], coords[i+1])
				if cmd == "m" || cmd == "l" {
					p = cur.Add(p)
				}
				cur = p
				if i == 0 && (cmd == "M" || cmd == "m") {
					start = p
				}
				points = append(points, cur)
			}

		case "H", "h":
			if len(coords) < 1 {
				return nil, fmt.Errorf("%s: missing coordinate", cmd)
			}
			if cmd == "h" {
				cur.X += coords[0]
			} else {
				cur.X = coords[0]
			}
			points = append(points, cur)

		case "V", "v":
			if len(coords) < 1 {
				return nil, fmt.Errorf("%s: missing coordinate", cmd)
			}
			if cmd == "v" {
				cur.Y += coords[0]
			} else {
				cur.Y = coords[0]
			}
			points = append(points, cur)

		case "A", "a":
			// rx ry rotation large sweep x y
			if len(coords) < 7 || len(coords)%7 != 0 {
				return nil, fmt.Errorf("%s: want 7 arguments, got %v", cmd, coords)
			}
			for i := 0; i < len(coords); i += 7 {
				p := geom.V(coords[i+5], coords[i+6])
				if cmd == "a" {
					p = cur.Add(p)
				}
				cur = p
				points = append(points, cur)
			}

		case "Z", "z":
			if len(points) > 0 {
				cur = start
				points = append(points, start)
			}
		}
	}

	return points, nil
}

func parseCoords(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Разделитель: запятая или пробел
	s = strings.ReplaceAll(s, ",", " ")

	var coords []float64
	for _, part := range strings.Fields(s) {
		val, err := strconv.ParseFloat(part, 64)
		if err == nil {
			coords = append(coords, val)
		}
	}
	return coords
}
