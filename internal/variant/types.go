package variant

// EffectFlipOrInvalidate: вариант должен поменять или обесценить ответ.
const EffectFlipOrInvalidate = "flip_or_invalidate"

// Variant: рецепт контрастной перерисовки. Не хранит сцену.
type Variant struct {
	ID             string   `json:"variant_id"`
	TextIncluded   bool     `json:"text_included"`
	Image          *string  `json:"image"`
	MarkRemoved    []string `json:"mark_removed,omitempty"`
	RenderOps      []string `json:"render_ops,omitempty"`
	ExpectedEffect *string  `json:"expected_effect,omitempty"`
	DecisiveSymbol *string  `json:"decisive_symbol,omitempty"`
}

// ImagePath возвращает путь изображения; false для text-only вариантов (image: null).
func (v Variant) ImagePath() (string, bool) {
	if v.Image == nil || *v.Image == "" {
		return "", false
	}
	return *v.Image, true
}

func (v Variant) Effect() string {
	if v.ExpectedEffect == nil {
		return ""
	}
	return *v.ExpectedEffect
}

func (v Variant) Decisive() string {
	if v.DecisiveSymbol == nil {
		return ""
	}
	return *v.DecisiveSymbol
}

// FlipsAnswer сообщает, объявлен ли вариант как меняющий ответ.
func (v Variant) FlipsAnswer() bool {
	return v.Effect() == EffectFlipOrInvalidate
}
