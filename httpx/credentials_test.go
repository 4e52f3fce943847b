package httpx

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
)

const userToken = oauth.TokenType("U")

func TestAdminVerifier(t *testing.T) {
	db, err := database.Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := database.NewStore(db).SaveUser(context.Background(), "admin", "hunter2"); err != nil {
		t.Fatalf("save user: %v", err)
	}

	v := &adminVerifier{db}
	r := httptest.NewRequest("POST", "/login", nil)
	if err := v.ValidateUser("admin", "hunter2", "", r); err != nil {
		t.Fatalf("expected the password to match, got %v", err)
	}
	if err := v.ValidateUser("admin", "wrong", "", r); err == nil {
		t.Fatalf("expected a wrong password to fail")
	}
	if err := v.ValidateUser("ghost", "hunter2", "", r); err == nil {
		t.Fatalf("expected an unknown user to fail")
	}

	if err := v.StoreTokenID(userToken, "admin", "t1", "r1"); err != nil {
		t.Fatalf("store token: %v", err)
	}
	if err := v.ValidateTokenID(userToken, "admin", "t1", "r1"); err != nil {
		t.Fatalf("expected the refresh token to be valid, got %v", err)
	}
	if err := v.ValidateTokenID(userToken, "admin", "t1", "r1"); err != errRefresh {
		t.Fatalf("expected a used refresh token to be rejected, got %v", err)
	}

	claims, _ := v.AddClaims(userToken, "admin", "t1", "", r)
	if claims["roles"] != "admin" {
		t.Fatalf("unexpected claims %v", claims)
	}
}
