package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
)

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity returns a context carrying the caller's identity
func WithIdentity(ctx context.Context, id entities.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller's identity, anonymous when none was set
func IdentityFrom(ctx context.Context) entities.Identity {
	id, _ := ctx.Value(identityKey).(entities.Identity)
	return id
}

// Claims are the identity token claims; the subject is the account key
type Claims struct {
	jwt.RegisteredClaims
}

// IdentityVerifier checks HS256 bearer tokens issued by the identity provider
type IdentityVerifier struct {
	secret []byte
	issuer string
}

// NewIdentityVerifier creates a verifier. An empty issuer accepts any issuer.
func NewIdentityVerifier(secret, issuer string) *IdentityVerifier {
	return &IdentityVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses a token and returns the identity it names
func (v *IdentityVerifier) Verify(token string) (entities.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return entities.Anonymous, err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return entities.Anonymous, errors.New("token has no subject")
	}
	return entities.NewIdentity(claims.Subject), nil
}

// Issue signs a token for userID. Used by tests and local tooling.
func (v *IdentityVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Identity attaches the bearer token's identity to the request context.
// Requests without a token proceed anonymously; a bad token is rejected.
func Identity(verifier *IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeUnauthenticated(w, "authorization header must be a bearer token")
				return
			}
			id, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				writeUnauthenticated(w, "invalid identity token")
				return
			}
			observability.AddLogFields(r.Context(), map[string]string{"user_id": id.UserID})
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// InternalOnly guards routes called by trusted collaborators. An empty token
// disables the routes.
func InternalOnly(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get("X-Internal-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				writeUnauthenticated(w, "internal token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"type":  "UNAUTHENTICATED",
	})
}
