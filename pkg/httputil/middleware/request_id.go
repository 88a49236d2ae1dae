package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Kelvi11/smart-warehouse/pkg/httputil"
)

const RequestIDHeader = "X-Request-Id"

// RequestID assigns every request an id, reusing one already in the context
// or sent by the client in X-Request-Id, and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID, ok := r.Context().Value(httputil.RequestIDCtxKey).(string)
		if !ok || reqID == "" {
			reqID = r.Header.Get(RequestIDHeader)
		}
		if reqID == "" {
			reqID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), httputil.RequestIDCtxKey, reqID)
		w.Header().Set(RequestIDHeader, reqID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
