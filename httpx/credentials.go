package httpx

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/log"
	"golang.org/x/crypto/bcrypt"
)

// NewBearerServer issues password-grant tokens for the users in the DB.
func NewBearerServer(db *sql.DB, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, &adminVerifier{db}, nil)
}

const refreshTokenTTL = 30 * 24 * time.Hour

var (
	errRefresh        = errors.New("refresh token is unknown or expired")
	errClientsUnknown = errors.New("client credentials are not supported")
)

// adminVerifier authenticates the users created with -admin-user. Every
// one of them gets the admin role.
type adminVerifier struct {
	db *sql.DB
}

func requestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}

func (v *adminVerifier) ValidateUser(username, password, _ string, r *http.Request) error {
	var hash []byte
	err := v.db.QueryRowContext(requestContext(r),
		`SELECT password_hash FROM user WHERE username = ?`, username,
	).Scan(&hash)
	if err != nil {
		log.WithField("user", username).Debugf("login.lookup: %s", err)
		return err
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func (v *adminVerifier) StoreTokenID(_ oauth.TokenType, credential, tokenID, refreshTokenID string) error {
	_, err := v.db.Exec(`
		INSERT INTO token (username, token_id, refresh_token_id, expires_at)
		VALUES (?, ?, ?, ?)`,
		credential,
		tokenID,
		refreshTokenID,
		time.Now().Add(refreshTokenTTL).Unix(),
	)
	return err
}

// ValidateTokenID consumes the refresh token: it can be used once.
func (v *adminVerifier) ValidateTokenID(_ oauth.TokenType, credential, tokenID, refreshTokenID string) error {
	var expiresAt int64
	err := v.db.QueryRow(`
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?
		RETURNING expires_at`,
		credential,
		tokenID,
		refreshTokenID,
	).Scan(&expiresAt)
	if err != nil || expiresAt < time.Now().Unix() {
		return errRefresh
	}
	return nil
}

func (*adminVerifier) AddClaims(oauth.TokenType, string, string, string, *http.Request) (map[string]string, error) {
	return map[string]string{"roles": "admin"}, nil
}

func (*adminVerifier) AddProperties(oauth.TokenType, string, string, string, *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*adminVerifier) ValidateClient(string, string, string, *http.Request) error {
	return errClientsUnknown
}
