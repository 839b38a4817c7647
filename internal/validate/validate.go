package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"markbench/internal/scene"
	"markbench/internal/variant"
)

var (
	ErrLinkage  = errors.New("linkage check failed")
	ErrDecisive = errors.New("decisiveness check failed")
)

// Коды нарушений в Report.
const (
	CodeUnlinkedSymbol     = "unlinked_symbol"
	CodeMultiLinkedSymbol  = "multi_linked_symbol"
	CodeUnlinkedMeasure    = "unlinked_measurement"
	CodeMultiLinkedMeasure = "multi_linked_measurement"
	CodeMissingDecisive    = "missing_decisive_symbol"
	CodeDanglingDecisive   = "dangling_decisive_symbol"
	CodeDuplicateVariant   = "duplicate_variant_id"
)

// ============================================================
// Report
// ============================================================

type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Element string `json:"element"`
}

// Report: все нарушения сцены и её вариантов.
type Report struct {
	Scene  string  `json:"scene"`
	OK     bool    `json:"ok"`
	Issues []Issue `json:"issues"`
}

// Check собирает отчёт по сцене и (если даны) вариантам.
func Check(s *scene.Scene, vs []variant.Variant) *Report {
	issues := linkageIssues(s)
	issues = append(issues, decisiveIssues(s, vs)...)
	if issues == nil {
		issues = []Issue{}
	}
	return &Report{Scene: s.ID(), OK: len(issues) == 0, Issues: issues}
}

// ============================================================
// Typed errors
// ============================================================

// LinkageError перечисляет символы и измерения без ровно одной связи.
type LinkageError struct {
	Scene       string
	Unlinked    []string
	MultiLinked []string
}

func (e *LinkageError) Error() string {
	var parts []string
	if len(e.Unlinked) > 0 {
		parts = append(parts, "unlinked: "+strings.Join(e.Unlinked, ", "))
	}
	if len(e.MultiLinked) > 0 {
		parts = append(parts, "linked more than once: "+strings.Join(e.MultiLinked, ", "))
	}
	return fmt.Sprintf("scene %s: %v: %s", e.Scene, ErrLinkage, strings.Join(parts, "; "))
}

func (e *LinkageError) Unwrap() error { return ErrLinkage }

// VariantError перечисляет нарушения в списке вариантов.
type VariantError struct {
	Scene  string
	Issues []Issue
}

func (e *VariantError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		msgs = append(msgs, is.Message)
	}
	return fmt.Sprintf("scene %s: %v: %s", e.Scene, ErrDecisive, strings.Join(msgs, "; "))
}

func (e *VariantError) Unwrap() error { return ErrDecisive }

// CheckScene: каждый символ ровно в одной sym2geo, каждое измерение ровно в одной text2geo.
func CheckScene(s *scene.Scene) error {
	issues := linkageIssues(s)
	if len(issues) == 0 {
		return nil
	}

	e := &LinkageError{Scene: s.ID()}
	for _, is := range issues {
		switch is.Code {
		case CodeUnlinkedSymbol, CodeUnlinkedMeasure:
			e.Unlinked = append(e.Unlinked, is.Element)
		default:
			e.MultiLinked = append(e.MultiLinked, is.Element)
		}
	}
	return e
}

// CheckVariants: у flip_or_invalidate есть decisive_symbol, который есть в базовой
// сцене как символ или текст; variant_id уникальны.
func CheckVariants(s *scene.Scene, vs []variant.Variant) error {
	issues := decisiveIssues(s, vs)
	if len(issues) == 0 {
		return nil
	}
	return &VariantError{Scene: s.ID(), Issues: issues}
}

// ============================================================
// Checks
// ============================================================

func linkageIssues(s *scene.Scene) []Issue {
	symLinks := make(map[string]int)
	textLinks := make(map[string]int)
	for _, r := range s.Relations() {
		switch r.Type {
		case scene.RelationSym2Geo:
			symLinks[r.SymbolID]++
		case scene.RelationText2Geo:
			textLinks[r.TextID]++
		}
	}

	var issues []Issue
	for _, sym := range s.Symbols() {
		switch n := symLinks[sym.ID]; {
		case n == 0:
			issues = append(issues, Issue{CodeUnlinkedSymbol, fmt.Sprintf("symbol %s has no sym2geo relation", sym.ID), sym.ID})
		case n > 1:
			issues = append(issues, Issue{CodeMultiLinkedSymbol, fmt.Sprintf("symbol %s appears in %d sym2geo relations", sym.ID, n), sym.ID})
		}
	}

	for _, t := range s.Texts() {
		if !t.IsMeasurement() {
			continue
		}
		switch n := textLinks[t.ID]; {
		case n == 0:
			issues = append(issues, Issue{CodeUnlinkedMeasure, fmt.Sprintf("measurement %s (%q) has no text2geo relation", t.ID, t.String), t.ID})
		case n > 1:
			issues = append(issues, Issue{CodeMultiLinkedMeasure, fmt.Sprintf("measurement %s appears in %d text2geo relations", t.ID, n), t.ID})
		}
	}
	return issues
}

func decisiveIssues(s *scene.Scene, vs []variant.Variant) []Issue {
	var issues []Issue

	seen := make(map[string]bool, len(vs))
	var dups []string
	for _, v := range vs {
		if seen[v.ID] {
			dups = append(dups, v.ID)
		}
		seen[v.ID] = true

		if !v.FlipsAnswer() {
			continue
		}
		id := v.Decisive()
		if id == "" {
			issues = append(issues, Issue{CodeMissingDecisive, fmt.Sprintf("variant %s is flip_or_invalidate but names no decisive_symbol", v.ID), v.ID})
			continue
		}
		if !s.HasMark(id) {
			issues = append(issues, Issue{CodeDanglingDecisive, fmt.Sprintf("variant %s: decisive_symbol %q is not a symbol or text of scene %s", v.ID, id, s.ID()), v.ID})
		}
	}

	sort.Strings(dups)
	for _, id := range dups {
		issues = append(issues, Issue{CodeDuplicateVariant, fmt.Sprintf("variant id %s is used more than once", id), id})
	}
	return issues
}
