package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
	"github.com/adriian-oc/oposiciones-app/internal/users"
)

const issuer = "oposiciones-api"

type AuthService struct {
	hmac     []byte
	ttl      time.Duration
	sessions *SessionStore
	now      func() time.Time
}

func NewAuthService(secret string, ttl time.Duration, sessions *SessionStore) *AuthService {
	return &AuthService{hmac: []byte(secret), ttl: ttl, sessions: sessions, now: time.Now}
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for u and records the session so it can be revoked.
func (a *AuthService) IssueToken(ctx context.Context, u users.User) (string, error) {
	now := a.now()
	jti := uuid.NewString()
	claims := &Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   u.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.hmac)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := a.sessions.Create(ctx, jti, u.ID, now, now.Add(a.ttl)); err != nil {
		return "", err
	}
	return tok, nil
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// UserLookup resolves the user behind a token; the stored role is authoritative.
type UserLookup interface {
	Get(ctx context.Context, id string) (users.User, error)
}

// JWTMiddleware authenticates the bearer token and attaches an rbac.Principal.
func JWTMiddleware(a *AuthService, lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				apperr.Write(w, apperr.New(apperr.Unauthorized, "Not authenticated"))
				return
			}
			claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				apperr.Write(w, apperr.New(apperr.Unauthorized, "Could not validate credentials"))
				return
			}
			ctx := r.Context()
			active, err := a.sessions.Active(ctx, claims.ID, a.now())
			if err != nil {
				apperr.Write(w, err)
				return
			}
			if !active {
				apperr.Write(w, apperr.New(apperr.Unauthorized, "Session expired or revoked"))
				return
			}
			u, err := lookup.Get(ctx, claims.Subject)
			if apperr.Is(err, apperr.NotFound) || (err == nil && !u.IsActive) {
				apperr.Write(w, apperr.New(apperr.Unauthorized, "Could not validate credentials"))
				return
			}
			if err != nil {
				apperr.Write(w, err)
				return
			}
			ctx = rbac.WithPrincipal(ctx, rbac.Principal{UserID: u.ID, Role: u.Role, SessionID: claims.ID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
