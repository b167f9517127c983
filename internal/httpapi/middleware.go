package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"household-meal-planner/internal/auth"
	"household-meal-planner/internal/ratelimit"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity resolves the caller: the subject of a valid bearer token, or a
// key derived from the client address. A present but invalid token is
// rejected with 401.
func Identity(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if token, ok := bearerToken(r); ok && verifier != nil {
				id, err := verifier.UserID(token)
				if err != nil {
					writeError(w, http.StatusUnauthorized, "invalid session token")
					return
				}
				userID = id
			}

			key := ratelimit.IdentityKey(userID, clientAddr(r))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, key)))
		})
	}
}

// IdentityFrom returns the identity key stored by Identity.
func IdentityFrom(ctx context.Context) string {
	key, _ := ctx.Value(identityKey).(string)
	return key
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RealIP takes the client address from forwarding headers, but only for
// requests whose peer is one of the trusted proxies. Everyone else keeps
// their connection address, so a caller cannot pick its own anonymous key.
func RealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		forwarded := chimiddleware.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fromTrustedProxy(r, trusted) {
				forwarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func fromTrustedProxy(r *http.Request, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(clientAddr(r))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Logger logs every request once it has been served.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}

func isRateLimited(err error) (*ratelimit.ExceededError, bool) {
	var exceeded *ratelimit.ExceededError
	if errors.As(err, &exceeded) {
		return exceeded, true
	}
	return nil, false
}
