package svgparse

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"markbench/internal/geom"
)

// ============================================================
// XML Structures
// ============================================================

// node: произвольный XML-элемент; порядок детей сохраняется.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n node) float(name string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(n.attr(name)), 64)
	return v
}

// ============================================================
// Parsed document
// ============================================================

type Element struct {
	ID     string
	Kind   string
	Class  string
	Points []geom.Vec
	R      float64
	Text   string
}

type Layer struct {
	ID       string
	Opacity  float64
	Elements []Element
}

// IDs возвращает id элементов слоя в порядке документа.
func (l *Layer) IDs() []string {
	ids := make([]string, 0, len(l.Elements))
	for _, e := range l.Elements {
		ids = append(ids, e.ID)
	}
	return ids
}

type Document struct {
	Width, Height float64
	// Transform: transform группы figure (пусто без поворота).
	Transform string
	Layers    []Layer
}

func (d *Document) Layer(id string) (*Layer, bool) {
	for i := range d.Layers {
		if d.Layers[i].ID == id {
			return &d.Layers[i], true
		}
	}
	return nil, false
}

// ============================================================
// Parser
// ============================================================

// ParseSVG читает SVG рендера. Слои берутся из групп верхнего уровня
// (или внутри группы figure), элементы из их детей.
func ParseSVG(r io.Reader) (*Document, error) {
	var root node
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&root); err != nil {
		return nil, err
	}
	if root.XMLName.Local != "svg" {
		return nil, fmt.Errorf("root element is <%s>, want <svg>", root.XMLName.Local)
	}

	doc := &Document{
		Width:  root.float("width"),
		Height: root.float("height"),
	}

	groups := root.Children
	if len(groups) == 1 && groups[0].XMLName.Local == "g" && groups[0].attr("id") == "figure" {
		doc.Transform = groups[0].attr("transform")
		groups = groups[0].Children
	}

	for _, g := range groups {
		if g.XMLName.Local != "g" {
			continue
		}
		layer := Layer{ID: g.attr("id"), Opacity: 1}
		if op := g.attr("opacity"); op != "" {
			if v, err := strconv.ParseFloat(op, 64); err == nil {
				layer.Opacity = v
			}
		}

		for _, child := range g.Children {
			e, err := parseElement(child)
			if err != nil {
				return nil, fmt.Errorf("layer %s: %w", layer.ID, err)
			}
			layer.Elements = append(layer.Elements, e)
		}
		doc.Layers = append(doc.Layers, layer)
	}

	return doc, nil
}

func parseElement(n node) (Element, error) {
	e := Element{
		ID:    n.attr("id"),
		Kind:  n.XMLName.Local,
		Class: n.attr("class"),
	}

	switch e.Kind {
	case "circle":
		e.Points = []geom.Vec{geom.V(n.float("cx"), n.float("cy"))}
		e.R = n.float("r")
	case "line":
		e.Points = []geom.Vec{geom.V(n.float("x1"), n.float("y1")), geom.V(n.float("x2"), n.float("y2"))}
	case "rect":
		origin := geom.V(n.float("x"), n.float("y"))
		e.Points = []geom.Vec{origin, origin.Add(geom.V(n.float("width"), n.float("height")))}
	case "path":
		pts, err := ParsePath(n.attr("d"))
		if err != nil {
			return Element{}, fmt.Errorf("path %s: %w", e.ID, err)
		}
		e.Points = pts
	case "text":
		e.Points = []geom.Vec{geom.V(n.float("x"), n.float("y"))}
		e.Text = n.Content
	}
	return e, nil
}
