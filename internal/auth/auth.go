// Package auth resolves the authenticated session that owns collection
// writes and pipeline runs.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"teko/internal/services"
)

// ErrUnauthorized is returned when no valid session is present.
var ErrUnauthorized = fmt.Errorf("auth: no valid session: %w", services.ErrUnauthorized)

// Session identifies the signed-in collection owner.
type Session struct {
	UserID string `json:"userId"`
	Token  string `json:"-"`
}

// Provider resolves a bearer token into a session.
type Provider interface {
	Authenticate(ctx context.Context, token string) (Session, error)
}

// SessionFunc yields the session for the current operation. The pipeline
// calls it at save time so a sign-out mid-run blocks the write.
type SessionFunc func(ctx context.Context) (Session, error)

// StaticTokens is a Provider backed by a fixed token table from configuration.
type StaticTokens struct {
	tokens map[string]string
}

var _ Provider = (*StaticTokens)(nil)

// NewStaticTokens copies the token-to-user table. Blank entries are dropped.
func NewStaticTokens(tokens map[string]string) *StaticTokens {
	copied := make(map[string]string, len(tokens))
	for token, user := range tokens {
		token = strings.TrimSpace(token)
		user = strings.TrimSpace(user)
		if token == "" || user == "" {
			continue
		}
		copied[token] = user
	}
	return &StaticTokens{tokens: copied}
}

// Authenticate compares token against every entry in constant time.
func (s *StaticTokens) Authenticate(_ context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" || s == nil {
		return Session{}, ErrUnauthorized
	}
	var match string
	for candidate, user := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			match = user
		}
	}
	if match == "" {
		return Session{}, ErrUnauthorized
	}
	return Session{UserID: match, Token: token}, nil
}

// Len reports how many tokens are configured.
func (s *StaticTokens) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tokens)
}

type sessionKey struct{}

// WithSession stores session on ctx and stamps the user for logging.
func WithSession(ctx context.Context, session Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, session)
	return services.WithUserID(ctx, session.UserID)
}

// FromContext returns the session stored on ctx.
func FromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || session.UserID == "" {
		return Session{}, false
	}
	return session, true
}

// ContextSession is a SessionFunc reading the session placed by WithSession.
func ContextSession(ctx context.Context) (Session, error) {
	if session, ok := FromContext(ctx); ok {
		return session, nil
	}
	return Session{}, ErrUnauthorized
}

// Fixed returns a SessionFunc that always yields userID, used by the CLI
// which acts as a single local owner.
func Fixed(userID string) SessionFunc {
	userID = strings.TrimSpace(userID)
	return func(context.Context) (Session, error) {
		if userID == "" {
			return Session{}, ErrUnauthorized
		}
		return Session{UserID: userID}, nil
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
