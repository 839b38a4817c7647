package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"markbench/internal/schema"
)

// Load разбирает YAML/JSON документ сцены: сначала структурная схема,
// затем проверка ссылок.
func Load(data []byte) (*Scene, error) {
	raw, err := schema.Decode(data)
	if err != nil {
		return nil, &ValidationError{Kind: ErrSchema, Issues: []schema.Issue{{Path: "/", Message: err.Error()}}}
	}

	issues, err := schema.Validate(schema.Scene, raw)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Kind: ErrSchema, Issues: issues}
	}

	normalizeVersion(raw)

	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return New(doc)
}

// LoadFile читает сцену с диска; ошибки содержат путь к файлу.
func LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}

	s, err := Load(data)
	if err != nil {
		if verr, ok := err.(*ValidationError); ok {
			verr.Source = path
			return nil, verr
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// version может быть числом в YAML ("version: 1"); в модели это строка.
func normalizeVersion(raw any) {
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	if v, ok := m["version"].(float64); ok {
		m["version"] = strconv.FormatFloat(v, 'f', -1, 64)
	}
}
