package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/homeshine/portal-front/internal/cookie"
	"github.com/homeshine/portal-front/internal/crypto"
	jsonwriter "github.com/homeshine/portal-front/internal/json"
	"github.com/homeshine/portal-front/internal/log"
	"golang.org/x/crypto/bcrypt"
)

// MiddlewareFunc is a function that wraps an http.Handler
type MiddlewareFunc func(http.Handler) http.Handler

// ChainMiddleware chains multiple middleware functions
func ChainMiddleware(h http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for _, mw := range middlewares {
		h = mw(h)
	}
	return h
}

// NewCORSMiddleware adds CORS headers to responses
func NewCORSMiddleware(allowedOrigins []string) MiddlewareFunc {
	allowedMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowedMap[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && allowedMap[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			} else if len(allowedOrigins) == 0 {
				// No allowed origins configured: allow all (development mode)
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriterDelegator wraps http.ResponseWriter to capture the status code
type responseWriterDelegator struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriterDelegator {
	return &responseWriterDelegator{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

func (r *responseWriterDelegator) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseWriterDelegator) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// NewLoggingMiddleware logs each request with its status and duration
func NewLoggingMiddleware() MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			delegator := wrapResponseWriter(w)

			next.ServeHTTP(delegator, r)

			log.LogDebugWithFields("http", "Request handled", map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   delegator.status,
				"duration": time.Since(start).String(),
			})
		})
	}
}

// adminCookieClaims is the payload of the signed admin cookie
type adminCookieClaims struct {
	Token string `json:"token"`
}

// NewAdminAuthMiddleware guards the admin endpoints. Access is granted
// either by the signed admin cookie issued at admin login, or by a bearer
// token matching one of the configured bcrypt hashes.
func NewAdminAuthMiddleware(signer crypto.TokenSigner, adminTokenHashes []string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if value, err := cookie.GetAdmin(r); err == nil {
				var claims adminCookieClaims
				if err := signer.Verify(value, &claims); err == nil && claims.Token != "" {
					next.ServeHTTP(w, r)
					return
				}
				log.LogDebugWithFields("admin_auth", "Invalid admin cookie", nil)
			}

			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				presented := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
				for _, hash := range adminTokenHashes {
					if bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil {
						next.ServeHTTP(w, r)
						return
					}
				}
				log.LogDebugWithFields("admin_auth", "Bearer token did not match any admin token", nil)
			}

			jsonwriter.WriteUnauthorized(w, "Admin authentication required")
		})
	}
}
