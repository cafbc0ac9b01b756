package api

import (
	"fmt"
	"net/http"
	"time"
)

// NewHTTPServer creates the lookup HTTP server. Only header reads and idle
// connections are bounded; a lookup may run for minutes.
func NewHTTPServer(address string, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", address, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
