package httputil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func headerMiddleware(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Add(key, "true")
			next.ServeHTTP(w, req)
		})
	}
}

func TestRouterHandle(t *testing.T) {
	r := NewRouter()
	r.HandleFunc("GET /test", okHandler)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouterMiddleware(t *testing.T) {
	r := NewRouter()
	r.Use(headerMiddleware("X-Root"))
	r.HandleFunc("GET /test", okHandler)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, []string{"true"}, w.Header().Values("X-Root"), "root middleware must run exactly once")

	// unmatched routes still pass through root middleware
	w = httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Root"))
}

func TestRouterGroup(t *testing.T) {
	r := NewRouter()
	r.Use(headerMiddleware("X-Root"))

	api := r.Group("/api")
	api.Use(headerMiddleware("X-Api"))
	v1 := api.Group("/v1")
	v1.HandleFunc("GET /test", okHandler)
	r.HandleFunc("GET /plain", okHandler)

	assert.Equal(t, "/api/v1", v1.Prefix())

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"true"}, w.Header().Values("X-Root"))
	assert.Equal(t, []string{"true"}, w.Header().Values("X-Api"))

	w = httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Empty(t, w.Header().Get("X-Api"))
}

func TestRouterListenAndServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	r := NewRouter(WithServerOptions(func(s *http.Server) {
		s.ReadHeaderTimeout = time.Second
	}))
	r.HandleFunc("GET /test", okHandler)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.ListenAndServe(addr); !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("expected server to close, got %v", err)
		}
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/test")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
	wg.Wait()
}

func BenchmarkRouterHandle(b *testing.B) {
	r := NewRouter()
	for i := 0; i < b.N; i++ {
		r.HandleFunc(fmt.Sprintf("GET /test%d", i), okHandler)
	}
}

func BenchmarkRouterServeHTTPConcurrent(b *testing.B) {
	r := NewRouter()
	r.Use(headerMiddleware("X-Root"))
	r.HandleFunc("GET /test", okHandler)
	h := r.Handler()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		for pb.Next() {
			h.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}
