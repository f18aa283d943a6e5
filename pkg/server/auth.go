package server

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

var errUnauthorized = errors.New("missing or invalid governance token")

// GovernanceAuth guards the routes that change containment state. Tokens are
// held as SHA-256 digests and compared in constant time.
type GovernanceAuth struct {
	digests [][sha256.Size]byte
	logger  *slog.Logger
}

// NewGovernanceAuth builds the guard. No tokens disables it.
func NewGovernanceAuth(tokens []string) *GovernanceAuth {
	a := &GovernanceAuth{
		logger: slog.Default().With("component", "server.auth"),
	}
	for _, t := range tokens {
		if t == "" {
			continue
		}
		a.digests = append(a.digests, sha256.Sum256([]byte(t)))
	}
	return a
}

// Enabled reports whether any token is configured.
func (a *GovernanceAuth) Enabled() bool {
	return len(a.digests) > 0
}

// Handle wraps next. Requests without a matching "Authorization: Bearer"
// token get 401. A disabled guard passes everything through.
func (a *GovernanceAuth) Handle(next http.HandlerFunc) http.HandlerFunc {
	if !a.Enabled() {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			a.reject(w, r, "missing bearer token")
			return
		}

		id, ok := a.match(token)
		if !ok {
			a.reject(w, r, "unknown token")
			return
		}

		a.logger.InfoContext(r.Context(), "governance request authorized",
			"path", r.URL.Path,
			"token_id", id,
		)
		ctx := context.WithValue(r.Context(), governanceKey, id)
		next(w, r.WithContext(ctx))
	}
}

func (a *GovernanceAuth) match(token string) (string, bool) {
	sum := sha256.Sum256([]byte(token))

	found := 0
	for _, d := range a.digests {
		found |= subtle.ConstantTimeCompare(sum[:], d[:])
	}
	if found == 0 {
		return "", false
	}
	return hex.EncodeToString(sum[:4]), true
}

func (a *GovernanceAuth) reject(w http.ResponseWriter, r *http.Request, reason string) {
	a.logger.WarnContext(r.Context(), "governance request rejected",
		"reason", reason,
		"remote_addr", r.RemoteAddr,
		"path", r.URL.Path,
	)
	w.Header().Set("WWW-Authenticate", `Bearer realm="governance"`)
	writeError(w, http.StatusUnauthorized, errUnauthorized)
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "

	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

type governanceKeyType struct{}

var governanceKey governanceKeyType

// GovernanceTokenID returns the short digest of the token that authorized
// the request, if any.
func GovernanceTokenID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(governanceKey).(string)
	return id, ok
}
