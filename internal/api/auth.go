package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

const actorKey contextKey = "actor"

// Claims carry the caller's user ID in sub and one role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 bearer token for actor.
func IssueToken(secret []byte, actor appointment.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, raw string) (appointment.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return appointment.Actor{}, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return appointment.Actor{}, fmt.Errorf("subject: %w", err)
	}

	role := appointment.Role(claims.Role)
	switch role {
	case appointment.RolePatient, appointment.RoleDoctor, appointment.RoleReceptionist, appointment.RoleAdmin:
	default:
		return appointment.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return appointment.Actor{ID: id, Role: role}, nil
}

// Authenticate requires a valid bearer token and stores the caller in the
// request context.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			actor, err := parseToken(secret, raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token expired"
				}
				loggerFrom(r.Context()).Debug("rejected token")
				writeError(w, http.StatusUnauthorized, "unauthorized", msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

func actorFrom(ctx context.Context) appointment.Actor {
	actor, _ := ctx.Value(actorKey).(appointment.Actor)
	return actor
}
