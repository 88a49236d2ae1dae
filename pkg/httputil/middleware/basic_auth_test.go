package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kelvi11/smart-warehouse/pkg/httputil"
)

func TestBasicAuth(t *testing.T) {
	creds := map[string]string{"dispatcher": "s3cret"}
	tests := []struct {
		name     string
		user     string
		pass     string
		setAuth  bool
		header   string
		status   int
		message  string
		wantUser string
	}{
		{name: "missing header", status: http.StatusUnauthorized, message: "authorization required"},
		{name: "bearer token", header: "Bearer abc", status: http.StatusUnauthorized, message: "authorization required"},
		{name: "unknown user", setAuth: true, user: "driver", pass: "s3cret", status: http.StatusUnauthorized, message: "invalid credentials"},
		{name: "wrong password", setAuth: true, user: "dispatcher", pass: "guess", status: http.StatusUnauthorized, message: "invalid credentials"},
		{name: "valid", setAuth: true, user: "dispatcher", pass: "s3cret", status: http.StatusOK, wantUser: "dispatcher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			handler := BasicAuth("warehouse", creds)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = r.Context().Value(httputil.BasicAuthCtxKey).(string)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/trucks", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="warehouse"`, rec.Header().Get("WWW-Authenticate"))
				var body httputil.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.message, body.Message)
			}
		})
	}
}
