package form

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/upload"
)

// Limits configures answer checks. Zero values mean unbounded.
type Limits struct {
	MaxTextLength int
}

// UploadResolver resolves the upload id submitted for a file field.
type UploadResolver interface {
	Stat(ctx context.Context, id string) (upload.Artifact, error)
}

type AnswerValidator struct {
	limits  Limits
	uploads UploadResolver
}

func NewAnswerValidator(limits Limits, uploads UploadResolver) *AnswerValidator {
	return &AnswerValidator{limits: limits, uploads: uploads}
}

// ValidateAnswer checks value against field. An absent or empty value on an
// optional field is not an error and yields a nil Answer.
func (v *AnswerValidator) ValidateAnswer(ctx context.Context, field model.Field, value any) (*model.Answer, error) {
	ref := fieldRef{id: field.ID, title: field.Title}

	if isEmpty(value) {
		if field.Required {
			return nil, invalid(ErrMissingRequiredAnswer, "an answer is required").about(ref)
		}
		return nil, nil
	}

	schema, verr := lookup(field.Type)
	if verr != nil {
		return nil, verr.about(ref)
	}

	normalized, err := schema.answer(ctx, v, field, value)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.about(ref)
		}
		return nil, err
	}
	return &model.Answer{FieldID: field.ID, Value: normalized}, nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func textAnswer(_ context.Context, v *AnswerValidator, _ model.Field, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, invalid(ErrInvalidAnswerValue, "expected a string, got %s", kindOf(value))
	}
	if max := v.limits.MaxTextLength; max > 0 && utf8.RuneCountInString(s) > max {
		return nil, invalid(ErrInvalidAnswerValue, "text is longer than %d characters", max)
	}
	return s, nil
}

func numberAnswer(_ context.Context, _ *AnswerValidator, _ model.Field, value any) (any, error) {
	var n float64
	switch x := value.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := parseDecimal(string(x))
		if err != nil {
			return nil, err
		}
		n = f
	case string:
		f, err := parseDecimal(x)
		if err != nil {
			return nil, err
		}
		n = f
	default:
		return nil, invalid(ErrInvalidAnswerValue, "expected a number, got %s", kindOf(value))
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, invalid(ErrInvalidAnswerValue, "number must be finite")
	}
	return n, nil
}

// reDecimal leaves out the hex, underscore and inf/nan forms ParseFloat takes.
var reDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !reDecimal.MatchString(s) {
		return 0, invalid(ErrInvalidAnswerValue, "%q is not a decimal number", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid(ErrInvalidAnswerValue, "%q is out of range", s)
	}
	return f, nil
}

func singleChoiceAnswer(_ context.Context, _ *AnswerValidator, f model.Field, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, invalid(ErrInvalidAnswerValue, "expected one option, got %s", kindOf(value))
	}
	if !hasOption(f, s) {
		return nil, invalid(ErrInvalidAnswerValue, "%q is not one of the options", s)
	}
	return s, nil
}

func multiChoiceAnswer(_ context.Context, _ *AnswerValidator, f model.Field, value any) (any, error) {
	var picked []string
	switch x := value.(type) {
	case []string:
		picked = x
	case []any:
		picked = make([]string, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(ErrInvalidAnswerValue, "item %d: expected an option, got %s", i, kindOf(item))
			}
			picked[i] = s
		}
	default:
		return nil, invalid(ErrInvalidAnswerValue, "expected a list of options, got %s", kindOf(value))
	}

	seen := make(map[string]bool, len(picked))
	for i, s := range picked {
		if !hasOption(f, s) {
			return nil, invalid(ErrInvalidAnswerValue, "item %d: %q is not one of the options", i, s)
		}
		if seen[s] {
			return nil, invalid(ErrInvalidAnswerValue, "item %d: %q is selected twice", i, s)
		}
		seen[s] = true
	}
	return append([]string(nil), picked...), nil
}

func fileAnswer(ctx context.Context, v *AnswerValidator, f model.Field, value any) (any, error) {
	var id string
	switch x := value.(type) {
	case string:
		id = strings.TrimSpace(x)
	case map[string]any:
		// the body returned by the upload endpoint may be sent back as is
		id, _ = x["id"].(string)
	}
	if id == "" {
		return nil, invalid(ErrInvalidAnswerValue, "expected an upload id, got %s", kindOf(value))
	}
	if v.uploads == nil {
		return nil, invalid(ErrInvalidAnswerValue, "uploads are not enabled")
	}

	artifact, err := v.uploads.Stat(ctx, id)
	if errors.Is(err, upload.ErrNotFound) {
		return nil, invalid(ErrInvalidAnswerValue, "upload %s does not exist", id)
	}
	if err != nil {
		return nil, err
	}

	ext := artifact.Ext()
	accepted := false
	for _, a := range f.Accepted {
		if strings.EqualFold(a, ext) {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil, invalid(ErrInvalidAnswerValue, "file type %q is not accepted (allowed: %s)", ext, strings.Join(f.Accepted, ", "))
	}

	return model.FileRef{
		ID:          artifact.ID,
		Name:        artifact.Name,
		Size:        artifact.Size,
		ContentType: artifact.ContentType,
	}, nil
}

func hasOption(f model.Field, s string) bool {
	for _, opt := range f.Options {
		if opt == s {
			return true
		}
	}
	return false
}

func kindOf(value any) string {
	switch value.(type) {
	case string:
		return "a string"
	case float64, float32, int, int64, json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case []any, []string:
		return "a list"
	case map[string]any:
		return "an object"
	}
	return "an unsupported value"
}
