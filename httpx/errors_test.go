package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/quick-forms/form"
)

func TestRenderValidation(t *testing.T) {
	_, invalidType := form.ValidateField(form.Definition{Title: "When", Type: "date"})
	missing := &form.ValidationError{Kind: form.ErrFieldNotFound, Index: 2, FieldID: 9, Rule: "field does not belong to this form"}

	cases := []struct {
		name   string
		err    error
		status int
		kinds  []string
	}{
		{"single", invalidType, http.StatusBadRequest, []string{"unknown field type"}},
		{"not found", missing, http.StatusNotFound, []string{"field not found"}},
		{"several", multierror.Append(nil, missing, invalidType), http.StatusBadRequest, []string{"field not found", "unknown field type"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if !RenderValidation(w, r, "test", tc.err) {
				t.Fatalf("expected the error to be rendered")
			}
			if w.Code != tc.status {
				t.Fatalf("status %d, want %d", w.Code, tc.status)
			}

			var body struct {
				Errors []struct {
					Kind string `json:"kind"`
				} `json:"errors"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			var kinds []string
			for _, e := range body.Errors {
				kinds = append(kinds, e.Kind)
			}
			if diff := cmp.Diff(tc.kinds, kinds); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderValidation_IgnoresOtherErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if RenderValidation(w, r, "test", errors.New("disk full")) {
		t.Fatalf("expected a plain error to be left to the caller")
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected nothing to be written, got %q", w.Body.String())
	}
}

func TestResponseBuffer_Flush(t *testing.T) {
	buf := NewResponseBuffer()
	buf.Header().Set("content-type", "application/json")
	buf.WriteHeader(http.StatusCreated)
	buf.Write([]byte(`{"ok":true}`))

	w := httptest.NewRecorder()
	if err := buf.Flush(w); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if w.Code != http.StatusCreated || w.Header().Get("content-type") != "application/json" || w.Body.String() != `{"ok":true}` {
		t.Fatalf("unexpected response %d %v %q", w.Code, w.Header(), w.Body.String())
	}
}
