package render

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// ============================================================
// SVG writer
// ============================================================

// WriteSVG сериализует Drawing в SVG. Порядок элементов и формат чисел
// фиксированы, поэтому одинаковый Drawing даёт побайтно одинаковый вывод.
func WriteSVG(d *Drawing, prec int) []byte {
	f := func(v float64) string { return formatFloat(v, prec) }

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="%s" font-size="%s">`,
		f(d.Width), f(d.Height), f(d.Width), f(d.Height), escape(d.FontFamily), f(d.FontSize)))
	builder.WriteString("\n")

	indent := "  "
	rotated := d.RotationDeg != 0
	if rotated {
		builder.WriteString(fmt.Sprintf(`  <g id="figure" transform="rotate(%s %s %s)">`,
			f(d.RotationDeg), f(d.Center.X), f(d.Center.Y)))
		builder.WriteString("\n")
		indent = "    "
	}

	for _, layer := range d.Layers {
		builder.WriteString(indent)
		builder.WriteString(`<g id="` + escape(layer.ID) + `"`)
		if layer.Opacity != 1 {
			builder.WriteString(` opacity="` + f(layer.Opacity) + `"`)
		}
		builder.WriteString(">\n")

		for _, e := range layer.Elements {
			builder.WriteString(indent)
			builder.WriteString("  ")
			builder.WriteString(element(e, prec))
			builder.WriteString("\n")
		}

		builder.WriteString(indent)
		builder.WriteString("</g>\n")
	}

	if rotated {
		builder.WriteString("  </g>\n")
	}
	builder.WriteString("</svg>\n")
	return []byte(builder.String())
}

func element(e Element, prec int) string {
	f := func(v float64) string { return formatFloat(v, prec) }

	var b strings.Builder
	b.WriteString("<" + string(e.Kind) + ` id="` + escape(e.ID) + `"`)
	if e.Class != "" {
		b.WriteString(` class="` + escape(e.Class) + `"`)
	}

	switch e.Kind {
	case KindCircle:
		b.WriteString(fmt.Sprintf(` cx="%s" cy="%s" r="%s"`, f(e.Center.X), f(e.Center.Y), f(e.R)))
	case KindLine:
		b.WriteString(fmt.Sprintf(` x1="%s" y1="%s" x2="%s" y2="%s"`, f(e.From.X), f(e.From.Y), f(e.To.X), f(e.To.Y)))
	case KindPath:
		b.WriteString(` d="` + formatPath(e.Path, prec) + `"`)
	case KindRect:
		b.WriteString(fmt.Sprintf(` x="%s" y="%s" width="%s" height="%s"`, f(e.Min.X), f(e.Min.Y), f(e.Size.X), f(e.Size.Y)))
	case KindText:
		b.WriteString(fmt.Sprintf(` x="%s" y="%s"`, f(e.At.X), f(e.At.Y)))
	}

	if e.Fill != "" {
		b.WriteString(` fill="` + escape(e.Fill) + `"`)
	}
	if e.Stroke != "" {
		b.WriteString(` stroke="` + escape(e.Stroke) + `" stroke-width="` + f(e.StrokeWidth) + `"`)
	}

	if e.Kind == KindText {
		b.WriteString(">" + escape(e.Text) + "</text>")
		return b.String()
	}
	b.WriteString(" />")
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
