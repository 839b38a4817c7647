package scene

// Clone делает глубокую копию документа: ни один вложенный slice или map
// не разделяется с оригиналом.
func (d Document) Clone() Document {
	out := Document{
		Version:  d.Version,
		ID:       d.ID,
		Renderer: cloneMap(d.Renderer),
		Metadata: cloneMap(d.Metadata),
	}

	out.Points = append([]Point(nil), d.Points...)

	out.Primitives = make([]Primitive, len(d.Primitives))
	for i, p := range d.Primitives {
		out.Primitives[i] = clonePrimitive(p)
	}

	out.Symbols = make([]Symbol, len(d.Symbols))
	for i, s := range d.Symbols {
		s.Targets = cloneStrings(s.Targets)
		out.Symbols[i] = s
	}

	out.Texts = make([]Text, len(d.Texts))
	for i, t := range d.Texts {
		if t.Offset != nil {
			t.Offset = append([]float64(nil), t.Offset...)
		}
		out.Texts[i] = t
	}

	out.Relations = make([]Relation, len(d.Relations))
	for i, r := range d.Relations {
		r.TargetIDs = cloneStrings(r.TargetIDs)
		out.Relations[i] = r
	}

	return out
}

func clonePrimitive(p Primitive) Primitive {
	if p.MeasureDeg != nil {
		m := *p.MeasureDeg
		p.MeasureDeg = &m
	}
	return p
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
