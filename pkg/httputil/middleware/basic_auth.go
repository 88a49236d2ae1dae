package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/Kelvi11/smart-warehouse/pkg/httputil"
)

// BasicAuth rejects requests whose Basic credentials are not in creds
// (username to password). The authenticated username is stored in the
// request context under httputil.BasicAuthCtxKey and added to the access log.
func BasicAuth(realm string, creds map[string]string) httputil.Middleware {
	challenge := `Basic realm="` + realm + `"`
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				httputil.Error(w, http.StatusUnauthorized, "authorization required")
				return
			}

			want, known := creds[user]
			if !known || subtle.ConstantTimeCompare([]byte(want), []byte(pass)) != 1 {
				w.Header().Set("WWW-Authenticate", challenge)
				httputil.Error(w, http.StatusUnauthorized, "invalid credentials")
				return
			}

			httputil.SetLogField(r, "user", user)
			ctx := context.WithValue(r.Context(), httputil.BasicAuthCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
