package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Embedded schemas
// ============================================================

const (
	Scene    = "scene.schema.json"
	Variants = "variants.schema.json"

	baseURL = "https://markbench.local/schema/"
)

//go:embed scene.schema.json variants.schema.json
var files embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

// Issue описывает одно нарушение схемы: JSON pointer на экземпляр и текст ошибки.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

func compileAll() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	names := []string{Scene, Variants}
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			compileErr = fmt.Errorf("read schema %s: %w", name, err)
			return
		}
		if err := compiler.AddResource(baseURL+name, bytes.NewReader(data)); err != nil {
			compileErr = fmt.Errorf("add schema %s: %w", name, err)
			return
		}
	}

	compiled = make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		s, err := compiler.Compile(baseURL + name)
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		compiled[name] = s
	}
}

// ============================================================
// Decoding & validation
// ============================================================

// Decode разбирает YAML или JSON документ и приводит его к JSON-типам
// (map[string]any, []any, float64, string, bool, nil), которые ожидает валидатор.
func Decode(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	// Round-trip через JSON нормализует типы yaml (int, map[string]any из узлов и т.д.).
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}

	var doc any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return doc, nil
}

// Validate проверяет документ по встроенной схеме name.
// Возвращает список нарушений (пустой, если документ валиден).
func Validate(name string, doc any) ([]Issue, error) {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return nil, compileErr
	}

	s, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	err := s.Validate(doc)
	if err == nil {
		return nil, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var issues []Issue
	collectLeaves(verr, &issues)
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Message < issues[j].Message
	})
	return dedupe(issues), nil
}

func collectLeaves(e *jsonschema.ValidationError, out *[]Issue) {
	if len(e.Causes) == 0 {
		path := e.InstanceLocation
		if path == "" {
			path = "/"
		}
		*out = append(*out, Issue{Path: path, Message: e.Message})
		return
	}
	for _, c := range e.Causes {
		collectLeaves(c, out)
	}
}

func dedupe(issues []Issue) []Issue {
	if len(issues) < 2 {
		return issues
	}
	out := issues[:1]
	for _, is := range issues[1:] {
		if is != out[len(out)-1] {
			out = append(out, is)
		}
	}
	return out
}
