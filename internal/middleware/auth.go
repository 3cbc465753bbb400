package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/web"
)

type callerKey struct{}

// Claims is the token body issued by the identity service.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwtlib.RegisteredClaims
}

// Tokens signs and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(caller domain.Caller) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: caller.UserID,
		Role:   string(caller.Role),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", caller.UserID),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (domain.Caller, error) {
	token, err := jwtlib.ParseWithClaims(raw, &Claims{}, func(tok *jwtlib.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Caller{}, apperrors.NewUnauthorizedError("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID <= 0 {
		return domain.Caller{}, apperrors.NewUnauthorizedError("invalid claims")
	}

	role := domain.Role(strings.ToUpper(claims.Role))
	if role != domain.RoleAdmin && role != domain.RoleClient {
		return domain.Caller{}, apperrors.NewUnauthorizedError("unknown role")
	}
	return domain.Caller{UserID: claims.UserID, Role: role}, nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// resolved caller in the request context.
func Authenticate(tokens *Tokens, rs *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID, logger := rs.Trace(r)

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				rs.Error(w, traceID, apperrors.NewUnauthorizedError("missing bearer token"), logger)
				return
			}

			caller, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				rs.Error(w, traceID, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(rs *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFrom(r.Context())
			if !ok || !caller.IsAdmin() {
				traceID, logger := rs.Trace(r)
				rs.Error(w, traceID, apperrors.NewForbiddenError("admin role required"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Caller)
	return caller, ok
}
