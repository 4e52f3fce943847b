package form

import (
	"strings"

	"github.com/mbolis/quick-forms/model"
)

// Definition is a field as submitted by a client, before validation.
type Definition struct {
	Title    string          `json:"title"`
	Type     model.FieldType `json:"type"`
	Required bool            `json:"required"`
	Options  []string        `json:"options,omitempty"`
	Accepted []string        `json:"accepted,omitempty"`
}

// DefinitionOf turns a stored field back into an editable definition.
func DefinitionOf(f model.Field) Definition {
	return Definition{
		Title:    f.Title,
		Type:     f.Type,
		Required: f.Required,
		Options:  append([]string(nil), f.Options...),
		Accepted: append([]string(nil), f.Accepted...),
	}
}

// payloadKeys lists the type-specific keys carrying a value.
func (d Definition) payloadKeys() []PayloadKey {
	var keys []PayloadKey
	if len(d.Options) > 0 {
		keys = append(keys, KeyOptions)
	}
	if len(d.Accepted) > 0 {
		keys = append(keys, KeyAccepted)
	}
	return keys
}

type payloadCheck func(d Definition, f *model.Field) *ValidationError

var payloadChecks = map[PayloadKey]payloadCheck{
	KeyOptions:  checkOptions,
	KeyAccepted: checkAccepted,
}

// ValidateField checks a definition against the schema of its type and
// returns the field it describes. Identifiers are left unset.
func ValidateField(d Definition) (model.Field, error) {
	ref := fieldRef{title: d.Title}

	if strings.TrimSpace(d.Title) == "" {
		return model.Field{}, invalid(ErrInvalidPayload, "title must not be empty").about(ref)
	}

	schema, verr := lookup(d.Type)
	if verr != nil {
		return model.Field{}, verr.about(ref)
	}

	for _, key := range d.payloadKeys() {
		if !schema.Permits(key) {
			return model.Field{}, invalid(ErrInvalidPayload, "%s is not allowed on %s fields", key, d.Type).about(ref)
		}
	}

	f := model.Field{
		Title:    d.Title,
		Type:     d.Type,
		Required: d.Required,
	}
	for _, key := range schema.Required {
		if verr := payloadChecks[key](d, &f); verr != nil {
			return model.Field{}, verr.about(ref)
		}
	}
	for _, key := range schema.Optional {
		if verr := payloadChecks[key](d, &f); verr != nil {
			return model.Field{}, verr.about(ref)
		}
	}
	return f, nil
}

func checkOptions(d Definition, f *model.Field) *ValidationError {
	if len(d.Options) == 0 {
		return invalid(ErrInvalidPayload, "options must contain at least one entry")
	}
	seen := make(map[string]bool, len(d.Options))
	for i, opt := range d.Options {
		if strings.TrimSpace(opt) == "" {
			return invalid(ErrInvalidPayload, "options[%d] must not be empty", i)
		}
		if seen[opt] {
			return invalid(ErrInvalidPayload, "options[%d] duplicates %q", i, opt)
		}
		seen[opt] = true
	}
	f.Options = append([]string(nil), d.Options...)
	return nil
}

func checkAccepted(d Definition, f *model.Field) *ValidationError {
	if len(d.Accepted) == 0 {
		return invalid(ErrInvalidPayload, "accepted must contain at least one extension")
	}
	accepted := make([]string, 0, len(d.Accepted))
	seen := make(map[string]bool, len(d.Accepted))
	for i, raw := range d.Accepted {
		ext := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case ext == "":
			return invalid(ErrInvalidPayload, "accepted[%d] must not be empty", i)
		case strings.HasPrefix(ext, "."):
			return invalid(ErrInvalidPayload, "accepted[%d] %q must not start with a dot", i, raw)
		case strings.ContainsAny(ext, "./\\ \t"):
			return invalid(ErrInvalidPayload, "accepted[%d] %q is not a file extension", i, raw)
		case seen[ext]:
			return invalid(ErrInvalidPayload, "accepted[%d] duplicates %q", i, ext)
		}
		seen[ext] = true
		accepted = append(accepted, ext)
	}
	f.Accepted = accepted
	return nil
}
