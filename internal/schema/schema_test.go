package schema

import (
	"strings"
	"testing"
)

func TestDecodeYAMLAndJSONAgree(t *testing.T) {
	yamlDoc := []byte("version: \"0.1\"\nid: T1\npoints:\n  - {id: A, x: 0, y: 0}\n")
	jsonDoc := []byte(`{"version":"0.1","id":"T1","points":[{"id":"A","x":0,"y":0}]}`)

	a, err := Decode(yamlDoc)
	if err != nil {
		t.Fatalf("Decode yaml: %v", err)
	}
	b, err := Decode(jsonDoc)
	if err != nil {
		t.Fatalf("Decode json: %v", err)
	}

	pa := a.(map[string]any)["points"].([]any)[0].(map[string]any)
	pb := b.(map[string]any)["points"].([]any)[0].(map[string]any)
	if _, ok := pa["x"].(float64); !ok {
		t.Fatalf("yaml number not normalised to float64: %T", pa["x"])
	}
	if pa["x"] != pb["x"] || pa["id"] != pb["id"] {
		t.Errorf("decoded documents differ: %v vs %v", pa, pb)
	}
}

func TestValidateSceneAccepts(t *testing.T) {
	doc, err := Decode([]byte(`
version: "0.1"
id: T1
points: [{id: A, x: 0, y: 0}, {id: P, x: 100, y: 0}]
primitives: [{id: PA, type: Line, p1: A, p2: P}]
symbols: [{id: tick, type: tick_bar, targets: [PA]}]
texts: [{id: lbl_A, string: A, anchor: A, offset: [1, 2]}]
relations: [{type: sym2geo, symbol_id: tick, target_ids: [PA]}]
metadata: {source: test}
`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	issues, err := Validate(Scene, doc)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestValidateSceneReportsPaths(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{"missing id", `{"version": "0.1"}`, "/"},
		{"bad symbol type", `{"version":"1","id":"x","symbols":[{"id":"s","type":"star","targets":["L"]}]}`, "/symbols/0/type"},
		{"line without p2", `{"version":"1","id":"x","primitives":[{"id":"L","type":"Line","p1":"A"}]}`, "/primitives/0"},
		{"negative radius", `{"version":"1","id":"x","primitives":[{"id":"c","type":"Circle","center":"O","radius":-1}]}`, "/primitives/0/radius"},
		{"offset arity", `{"version":"1","id":"x","texts":[{"id":"t","string":"A","anchor":"A","offset":[1]}]}`, "/texts/0/offset"},
		{"unknown top-level key", `{"version":"1","id":"x","shapes":[]}`, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			issues, err := Validate(Scene, doc)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if len(issues) == 0 {
				t.Fatal("expected schema issues")
			}
			found := false
			for _, is := range issues {
				if is.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("no issue at %s, got %v", tt.wantPath, issues)
			}
		})
	}
}

func TestValidateVariants(t *testing.T) {
	good := `[{"variant_id":"v1","text_included":true,"image":null,"render_ops":["rotate15"]}]`
	doc, _ := Decode([]byte(good))
	issues, err := Validate(Variants, doc)
	if err != nil || len(issues) != 0 {
		t.Fatalf("expected valid variants, got %v %v", issues, err)
	}

	bad := `[{"variant_id":"v1","expected_effect":"explode"}]`
	doc, _ = Decode([]byte(bad))
	issues, err = Validate(Variants, doc)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(issues) == 0 || !strings.HasPrefix(issues[0].Path, "/0") {
		t.Errorf("expected issue under /0, got %v", issues)
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	if _, err := Validate("nope.json", map[string]any{}); err == nil {
		t.Fatal("expected error for unknown schema")
	}
}
