package variant

import (
	"encoding/json"
	"fmt"
	"os"

	"markbench/internal/scene"
	"markbench/internal/schema"
)

// Load разбирает список вариантов (JSON или YAML) и проверяет его схемой.
func Load(data []byte) ([]Variant, error) {
	raw, err := schema.Decode(data)
	if err != nil {
		return nil, &scene.ValidationError{Kind: scene.ErrSchema, Issues: []schema.Issue{{Path: "/", Message: err.Error()}}}
	}

	issues, err := schema.Validate(schema.Variants, raw)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, &scene.ValidationError{Kind: scene.ErrSchema, Issues: issues}
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode variants: %w", err)
	}
	var out []Variant
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	return out, nil
}

func LoadFile(path string) ([]Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}

	out, err := Load(data)
	if err != nil {
		if verr, ok := err.(*scene.ValidationError); ok {
			verr.Source = path
			return nil, verr
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
