package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ayush/megaqc-web/internal/auth"
)

// CurrentUser resolves the session cookie to a user and injects it into the
// request context. Requests without a valid session continue anonymously.
func CurrentUser(sessions *auth.SessionStore, users auth.UserStore, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				log.Warn("session lookup failed", "error", err)
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.LoadUser(r.Context(), users, userID)
			if err != nil {
				log.Error("load user failed", "user_id", userID, "error", err)
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user, cookie.Value)))
		})
	}
}

// RequireAuth redirects anonymous requests to the login page, carrying the
// original path in the next parameter.
func RequireAuth(flashes *auth.FlashStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.UserFromContext(r.Context()) == nil {
				flashes.Add(w, r, auth.FlashInfo, "Please log in to access this page.")
				target := "/login/?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
