package form

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mbolis/quick-forms/model"
)

func TestTypes_ListsEveryFieldType(t *testing.T) {
	want := []model.FieldType{
		model.ShortText,
		model.LongText,
		model.Number,
		model.MultiOptionSingleAnswer,
		model.MultiOptionMultiAnswer,
		model.File,
	}
	if diff := cmp.Diff(want, Types()); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaFor_PayloadKeys(t *testing.T) {
	cases := []struct {
		typ      model.FieldType
		permits  []PayloadKey
		required []PayloadKey
	}{
		{model.ShortText, nil, nil},
		{model.LongText, nil, nil},
		{model.Number, nil, nil},
		{model.MultiOptionSingleAnswer, []PayloadKey{KeyOptions}, []PayloadKey{KeyOptions}},
		{model.MultiOptionMultiAnswer, []PayloadKey{KeyOptions}, []PayloadKey{KeyOptions}},
		{model.File, []PayloadKey{KeyAccepted}, []PayloadKey{KeyAccepted}},
	}

	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			s, err := SchemaFor(tc.typ)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if diff := cmp.Diff(tc.required, s.Required); diff != "" {
				t.Fatalf("required keys mismatch (-want +got):\n%s", diff)
			}
			for _, key := range []PayloadKey{KeyOptions, KeyAccepted} {
				want := false
				for _, k := range tc.permits {
					want = want || k == key
				}
				if got := s.Permits(key); got != want {
					t.Fatalf("Permits(%s) = %v, want %v", key, got, want)
				}
			}
		})
	}
}

func TestSchemaFor_UnknownType(t *testing.T) {
	_, err := SchemaFor("date")
	if !errors.Is(err, ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Index != -1 {
		t.Fatalf("expected a ValidationError without index, got %#v", err)
	}
}

func TestSchemaFor_ReturnsCopy(t *testing.T) {
	s, err := SchemaFor(model.File)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	s.Required[0] = KeyOptions

	if _, err := ValidateField(Definition{Title: "CV", Type: model.File, Accepted: []string{"pdf"}}); err != nil {
		t.Fatalf("registry changed through a returned schema: %v", err)
	}
	again, _ := SchemaFor(model.File)
	if diff := cmp.Diff([]PayloadKey{KeyAccepted}, again.Required); diff != "" {
		t.Fatalf("required keys mismatch (-want +got):\n%s", diff)
	}
}
