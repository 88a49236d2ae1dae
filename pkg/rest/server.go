package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Kelvi11/smart-warehouse/pkg/httputil"
	"github.com/Kelvi11/smart-warehouse/pkg/metrics"
)

// HandlerOptions configures the HTTP surface of a resource.
type HandlerOptions struct {
	// NotFoundStatus is the status of a fetch or update of a missing entity.
	// Zero means 404.
	NotFoundStatus int
	Logger         *zap.Logger
}

// Handler serves one resource over HTTP.
type Handler[T any] struct {
	engine   *Engine[T]
	name     string
	notFound int
	logger   *zap.Logger
}

// Register mounts the list, create, fetch, update and delete routes of
// engine under path on r and returns the handler for further routes.
//
//	GET    <path>       list, paging in startRow/pageSize/listSize headers
//	POST   <path>       create
//	GET    <path>/{id}  fetch
//	PUT    <path>/{id}  update
//	DELETE <path>/{id}  delete, 204 even when nothing was there
func Register[T any](r *httputil.Router, path string, engine *Engine[T], opts *HandlerOptions) *Handler[T] {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	h := &Handler[T]{
		engine:   engine,
		name:     engine.Resource().Name(),
		notFound: opts.NotFoundStatus,
		logger:   zap.NewNop(),
	}
	if h.notFound == 0 {
		h.notFound = http.StatusNotFound
	}
	if opts.Logger != nil {
		h.logger = opts.Logger.With(zap.String("resource", h.name))
	}

	r.Handle("GET "+path, h.Serve("list", h.list))
	r.Handle("POST "+path, h.Serve("create", h.create))
	r.Handle("GET "+path+"/{id}", h.Serve("fetch", h.fetch))
	r.Handle("PUT "+path+"/{id}", h.Serve("update", h.update))
	r.Handle("DELETE "+path+"/{id}", h.Serve("delete", h.delete))
	return h
}

// Engine returns the engine behind the handler.
func (h *Handler[T]) Engine() *Engine[T] {
	return h.engine
}

// Serve adapts fn to an http.Handler. fn writes the success response and
// returns its status; a returned error is written as an error response.
// Every request is counted and timed under operation op.
func (h *Handler[T]) Serve(op string, fn func(w http.ResponseWriter, r *http.Request) (int, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httputil.SetLogField(r, "resource", h.name)

		status, err := fn(w, r)
		if err != nil {
			status = h.writeError(w, r, err)
		}

		metrics.Requests.WithLabelValues(h.name, op, strconv.Itoa(status)).Inc()
		metrics.RequestDuration.WithLabelValues(h.name, op).Observe(time.Since(start).Seconds())
	})
}

func (h *Handler[T]) writeError(w http.ResponseWriter, r *http.Request, err error) int {
	status := StatusCode(err, h.notFound)
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return status
	}
	message := err.Error()
	if status >= http.StatusInternalServerError {
		reqID := httputil.RequestID(r)
		h.logger.Error("request failed",
			zap.String("req_id", reqID),
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.Error(err),
		)
		message = "internal server error"
		if reqID != "" {
			message += ", request id " + reqID
		}
	}
	httputil.Error(w, status, message)
	return status
}

func (h *Handler[T]) list(w http.ResponseWriter, r *http.Request) (int, error) {
	page, err := h.engine.List(r.Context(), NewParams(r.URL.Query()))
	if err != nil {
		return 0, err
	}
	metrics.ListSize.WithLabelValues(h.name).Observe(float64(page.ListSize))

	setPageHeaders(w, page)
	httputil.JSON(w, http.StatusOK, page.Items)
	return http.StatusOK, nil
}

func (h *Handler[T]) create(w http.ResponseWriter, r *http.Request) (int, error) {
	var entity T
	if err := decodeBody(r, &entity); err != nil {
		return 0, err
	}
	created, err := h.engine.Create(r.Context(), &entity)
	if err != nil {
		return 0, err
	}
	return h.writeEntity(w, r, created), nil
}

func (h *Handler[T]) fetch(w http.ResponseWriter, r *http.Request) (int, error) {
	entity, err := h.engine.Fetch(r.Context(), r.PathValue("id"))
	if err != nil {
		return 0, err
	}
	httputil.JSON(w, http.StatusOK, entity)
	return http.StatusOK, nil
}

func (h *Handler[T]) update(w http.ResponseWriter, r *http.Request) (int, error) {
	var entity T
	if err := decodeBody(r, &entity); err != nil {
		return 0, err
	}
	updated, err := h.engine.Update(r.Context(), r.PathValue("id"), &entity)
	if err != nil {
		return 0, err
	}
	return h.writeEntity(w, r, updated), nil
}

func (h *Handler[T]) delete(w http.ResponseWriter, r *http.Request) (int, error) {
	err := h.engine.Delete(r.Context(), r.PathValue("id"))
	var nf *NotFoundError
	if err != nil && !errors.As(err, &nf) {
		return 0, err
	}
	w.WriteHeader(http.StatusNoContent)
	return http.StatusNoContent, nil
}

func (h *Handler[T]) writeEntity(w http.ResponseWriter, r *http.Request, entity *T) int {
	if !parsePrefer(r).WantsBody() {
		w.WriteHeader(http.StatusNoContent)
		return http.StatusNoContent
	}
	httputil.JSON(w, http.StatusOK, entity)
	return http.StatusOK
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return InvalidParameter("request body is required")
		}
		return InvalidParameter("malformed request body: %v", err)
	}
	return nil
}
