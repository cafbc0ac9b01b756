package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// NewRouter mounts the lookup endpoints.
func NewRouter(handler *LookupHandler, logger zerolog.Logger) *mux.Router {
	middlewares := []mux.MiddlewareFunc{
		requestIDMiddleware(logger.With().Str("component", "api").Logger()),
		accessLogMiddleware,
		corsMiddleware,
	}

	r := mux.NewRouter()
	r.Use(middlewares...)

	r.HandleFunc("/download", handler.Download).Methods(http.MethodGet)
	r.HandleFunc("/download", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)

	// mux skips Use middlewares when no route matches
	r.NotFoundHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "Not found", http.StatusNotFound)
	}), middlewares)
	r.MethodNotAllowedHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}), middlewares)

	return r
}

// chain wraps h so that middlewares[0] runs first
func chain(h http.Handler, middlewares []mux.MiddlewareFunc) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
