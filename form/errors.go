package form

import (
	"fmt"
	"strings"
)

// Kind classifies a validation failure. Kinds are themselves errors, so
// callers can test with errors.Is(err, form.ErrInvalidPayload).
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	ErrUnknownFieldType      Kind = "unknown field type"
	ErrInvalidPayload        Kind = "invalid payload"
	ErrMissingRequiredAnswer Kind = "missing required answer"
	ErrInvalidAnswerValue    Kind = "invalid answer value"
	ErrFieldNotFound         Kind = "field not found"
)

// ValidationError identifies the offending field and the rule it broke.
// Index is the position of the field in the submitted list, or -1.
type ValidationError struct {
	Kind    Kind   `json:"kind"`
	Index   int    `json:"index"`
	FieldID int64  `json:"field_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Rule    string `json:"rule"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	switch {
	case e.Title != "":
		fmt.Fprintf(&b, " (field %q)", e.Title)
	case e.FieldID != 0:
		fmt.Fprintf(&b, " (field #%d)", e.FieldID)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, " at index %d", e.Index)
	}
	if e.Rule != "" {
		b.WriteString(": ")
		b.WriteString(e.Rule)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalid(kind Kind, rule string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Index: -1, Rule: fmt.Sprintf(rule, args...)}
}

func (e *ValidationError) about(f fieldRef) *ValidationError {
	e.FieldID = f.id
	e.Title = f.title
	return e
}

func (e *ValidationError) at(index int) *ValidationError {
	e.Index = index
	return e
}

type fieldRef struct {
	id    int64
	title string
}
