// Package httpserver builds the service's HTTP server from configuration.
package httpserver

import (
	"net/http"

	"revalid/internal/platform/config"
)

// New builds an HTTP server with the configured timeouts. The write timeout
// bounds slow trainee-history responses; the read header timeout guards
// against slow-loris clients.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
