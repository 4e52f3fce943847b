package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/oauth"
)

func TestHasRole(t *testing.T) {
	cases := []struct {
		claims map[string]string
		want   bool
	}{
		{map[string]string{"roles": "admin"}, true},
		{map[string]string{"roles": "editor, admin"}, true},
		{map[string]string{"roles": "administrator"}, false},
		{map[string]string{}, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := HasRole(tc.claims, "admin"); got != tc.want {
			t.Fatalf("HasRole(%v) = %v, want %v", tc.claims, got, tc.want)
		}
	}
}

func TestAdminRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := admin(ok)

	cases := []struct {
		claims any
		want   int
	}{
		{map[string]string{"roles": "admin"}, http.StatusTeapot},
		{map[string]string{"roles": "viewer"}, http.StatusForbidden},
		{"not claims", http.StatusForbidden},
		{nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.claims != nil {
			r = r.WithContext(context.WithValue(r.Context(), oauth.ClaimsContext, tc.claims))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != tc.want {
			t.Fatalf("claims %v: status %d, want %d", tc.claims, w.Code, tc.want)
		}
	}
}
