package scene

import (
	"errors"
	"fmt"
	"strings"

	"markbench/internal/schema"
)

var (
	// ErrSchema: документ не прошёл структурную схему.
	ErrSchema = errors.New("schema validation failed")
	// ErrReference: ссылка на несуществующий или неподходящий id, дубликат id.
	ErrReference = errors.New("reference check failed")
	// ErrUnknownID: правка сцены ссылается на отсутствующий id.
	ErrUnknownID = errors.New("unknown id")
)

// ValidationError собирает все нарушения одного документа.
type ValidationError struct {
	Source string
	Kind   error
	Issues []schema.Issue
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())

	for i, is := range e.Issues {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(is.String())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func unknownID(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownID, kind, id)
}
