package pipeline

import (
	"strconv"

	"markbench/internal/render/raster"
	"markbench/internal/storage"
	"markbench/internal/variant"
)

// target: куда пишется один рендер. svg пуст для text-only вариантов.
type target struct {
	svg   string
	facts string
}

type layout struct {
	base     target
	variants []target
}

// plan раскладывает выходные пути и проверяет, что они не пересекаются.
//
// image: "..." пишет SVG по этому пути внутри item, image: "" пишет
// <ID>.<variant>.svg, image: null оставляет только facts.
func (p *Pipeline) plan(itemID string, vs []variant.Variant) (*layout, error) {
	out := &layout{
		base: target{svg: p.store.SVGPath(itemID), facts: p.store.FactsPath(itemID)},
	}
	owners := make(map[string]string)
	p.claim(owners, "base", out.base)

	for _, v := range vs {
		t := target{facts: p.store.VariantFactsPath(itemID, v.ID)}
		if v.Image != nil {
			svg, err := p.store.VariantSVGPath(itemID, v.ID, *v.Image)
			if err != nil {
				return nil, err
			}
			t.svg = svg
		}
		p.claim(owners, "variant "+v.ID, t)
		out.variants = append(out.variants, t)
	}

	if err := storage.CheckCollisions(owners); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) claim(owners map[string]string, who string, t target) {
	owners[who+" facts"] = t.facts
	if t.svg == "" {
		return
	}
	owners[who+" svg"] = t.svg
	if p.cfg.SkipPNG {
		return
	}
	for _, dpi := range p.cfg.DPIs {
		owners[who+" png@"+strconv.Itoa(dpi)] = raster.Path(storage.RasterBaseFor(t.svg), dpi)
	}
}
