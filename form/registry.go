package form

import (
	"context"
	"slices"

	"github.com/mbolis/quick-forms/model"
)

// PayloadKey names a type-specific attribute of a field definition.
type PayloadKey string

const (
	KeyOptions  PayloadKey = "options"
	KeyAccepted PayloadKey = "accepted"
)

// answerFunc checks a non-empty submitted value against a field and returns
// the value to store.
type answerFunc func(ctx context.Context, v *AnswerValidator, f model.Field, value any) (any, error)

// Schema describes one field type: the payload keys it needs, the ones it
// tolerates and how its answers are checked.
type Schema struct {
	Type     model.FieldType
	Required []PayloadKey
	Optional []PayloadKey

	answer answerFunc
}

// Permits reports whether key may appear on a definition of this type.
func (s Schema) Permits(key PayloadKey) bool {
	for _, k := range s.Required {
		if k == key {
			return true
		}
	}
	for _, k := range s.Optional {
		if k == key {
			return true
		}
	}
	return false
}

var schemas = []Schema{
	{Type: model.ShortText, answer: textAnswer},
	{Type: model.LongText, answer: textAnswer},
	{Type: model.Number, answer: numberAnswer},
	{Type: model.MultiOptionSingleAnswer, Required: []PayloadKey{KeyOptions}, answer: singleChoiceAnswer},
	{Type: model.MultiOptionMultiAnswer, Required: []PayloadKey{KeyOptions}, answer: multiChoiceAnswer},
	{Type: model.File, Required: []PayloadKey{KeyAccepted}, answer: fileAnswer},
}

var registry = func() map[model.FieldType]Schema {
	m := make(map[model.FieldType]Schema, len(schemas))
	for _, s := range schemas {
		m[s.Type] = s
	}
	return m
}()

// SchemaFor looks up the schema of a field type.
func SchemaFor(t model.FieldType) (Schema, error) {
	s, verr := lookup(t)
	if verr != nil {
		return Schema{}, verr
	}
	s.Required = slices.Clone(s.Required)
	s.Optional = slices.Clone(s.Optional)
	return s, nil
}

func lookup(t model.FieldType) (Schema, *ValidationError) {
	s, ok := registry[t]
	if !ok {
		return Schema{}, invalid(ErrUnknownFieldType, "%q is not one of %v", t, Types())
	}
	return s, nil
}

// Types lists the known field types in declaration order.
func Types() []model.FieldType {
	types := make([]model.FieldType, len(schemas))
	for i, s := range schemas {
		types[i] = s.Type
	}
	return types
}
