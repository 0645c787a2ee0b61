package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/54b3r/ragmanual-go/internal/logging"
)

// requireAPIKey guards the /rag routes (ingestion, query, documents) with a
// Bearer token. Health, readiness and /metrics are mounted outside it and stay
// open for probes and scrapers. An empty apiKey disables the check; the server
// warns about that once at startup.
//
// Rejected requests get 401 with a WWW-Authenticate challenge. Only the
// token's presence is logged, never its value.
func requireAPIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			logging.FromContext(r.Context()).Warn("auth: rejected /rag request",
				slog.String("path", r.URL.Path),
				slog.Bool("token_present", token != ""),
			)
			challenge := `Bearer realm="ragmanual"`
			if token != "" {
				challenge += ` error="invalid_token"`
			}
			w.Header().Set("WWW-Authenticate", challenge)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns an empty string if the header is absent or malformed.
func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return ""
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
