package scene

// ============================================================
// Copy-on-write editor
// ============================================================

// Editor правит глубокую копию сцены. Базовая Scene при этом не меняется;
// результат собирается заново через Scene() со всеми проверками ссылок.
type Editor struct {
	doc Document
}

// Edit возвращает редактор над глубокой копией сцены.
func (s *Scene) Edit() *Editor {
	return &Editor{doc: s.doc.Clone()}
}

// Scene собирает и проверяет отредактированную сцену.
func (e *Editor) Scene() (*Scene, error) {
	return New(e.doc)
}

// RemoveMark удаляет символ или текст id и все связи, которые на него ссылаются
// (как на субъект или как на цель). Связь, у которой id остался только целью,
// после удаления ссылалась бы на несуществующую метку и не прошла бы проверку New.
func (e *Editor) RemoveMark(id string) error {
	found := false

	symbols := e.doc.Symbols[:0]
	for _, sym := range e.doc.Symbols {
		if sym.ID == id {
			found = true
			continue
		}
		symbols = append(symbols, sym)
	}
	e.doc.Symbols = symbols

	texts := e.doc.Texts[:0]
	for _, t := range e.doc.Texts {
		if t.ID == id {
			found = true
			continue
		}
		texts = append(texts, t)
	}
	e.doc.Texts = texts

	if !found {
		return unknownID("symbol or text", id)
	}

	relations := e.doc.Relations[:0]
	for _, r := range e.doc.Relations {
		if r.References(id) {
			continue
		}
		relations = append(relations, r)
	}
	e.doc.Relations = relations
	return nil
}

// NudgeText прибавляет (dx, dy) к текущему offset текста.
func (e *Editor) NudgeText(id string, dx, dy float64) error {
	i := e.textIndex(id)
	if i < 0 {
		return unknownID("text", id)
	}
	t := &e.doc.Texts[i]
	off := t.OffsetVec()
	t.Offset = []float64{off.X + dx, off.Y + dy}
	return nil
}

// SwapText меняет местами строки двух текстов.
func (e *Editor) SwapText(a, b string) error {
	i := e.textIndex(a)
	if i < 0 {
		return unknownID("text", a)
	}
	j := e.textIndex(b)
	if j < 0 {
		return unknownID("text", b)
	}
	e.doc.Texts[i].String, e.doc.Texts[j].String = e.doc.Texts[j].String, e.doc.Texts[i].String
	return nil
}

// AddSymbol добавляет символ и его sym2geo-связь. Если символ с таким id
// уже есть, ничего не меняется и возвращается false.
func (e *Editor) AddSymbol(sym Symbol) bool {
	if e.HasSymbol(sym.ID) {
		return false
	}
	sym.Targets = cloneStrings(sym.Targets)
	e.doc.Symbols = append(e.doc.Symbols, sym)
	e.doc.Relations = append(e.doc.Relations, Relation{
		Type:      RelationSym2Geo,
		SymbolID:  sym.ID,
		TargetIDs: cloneStrings(sym.Targets),
	})
	return true
}

// RemoveSymbol удаляет символ id вместе с его связями.
func (e *Editor) RemoveSymbol(id string) error {
	if !e.HasSymbol(id) {
		return unknownID("symbol", id)
	}
	return e.RemoveMark(id)
}

func (e *Editor) HasSymbol(id string) bool {
	for _, sym := range e.doc.Symbols {
		if sym.ID == id {
			return true
		}
	}
	return false
}

// PrimitiveType возвращает тип примитива id в редактируемом документе.
func (e *Editor) PrimitiveType(id string) (PrimitiveType, bool) {
	for _, p := range e.doc.Primitives {
		if p.ID == id {
			return p.Type, true
		}
	}
	return "", false
}

func (e *Editor) textIndex(id string) int {
	for i, t := range e.doc.Texts {
		if t.ID == id {
			return i
		}
	}
	return -1
}
