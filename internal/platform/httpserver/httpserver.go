package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Header reads are bounded tightly; body reads
// stay generous because verification cover letters arrive as multi-megabyte
// uploads on the attachment endpoint.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
