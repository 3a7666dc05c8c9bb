package api

import (
	"errors"
	"log/slog"
	"net/http"
)

// ApiHandleFunc is an HTTP handler that reports failures by returning an
// error. An *ApiError is rendered as-is; any other error becomes an opaque
// 500 so internals never leak to the client.
type ApiHandleFunc func(http.ResponseWriter, *http.Request) error

func (h ApiHandleFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h(w, r)
	if err == nil {
		return
	}

	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		if err := WriteJsonResponseWithStatusCode(w, apiErr, apiErr.Code); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	slog.Error("internal server error", slog.String("path", r.URL.Path), slog.Any("error", err))

	internal := NewApiError("Internal Server Error", http.StatusInternalServerError)
	if err := WriteJsonResponseWithStatusCode(w, internal, internal.Code); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
