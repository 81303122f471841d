package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/ritualhq/ritual/internal/auth"
	"github.com/ritualhq/ritual/internal/store"
)

const sessionCookieName = "ritual_session"

// SessionCookieName is exposed for the auth handler, which sets and clears
// the cookie.
const SessionCookieName = sessionCookieName

// RequireAuth validates the session cookie and populates AuthContext.
// Unauthenticated API requests get a JSON 401 rather than a redirect.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
