package mux

import (
	"net/http"

	"capivara-server/pkg/room"

	gmux "github.com/gorilla/mux"
)

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	version  string
	registry *room.Registry
}

// NewMux returns a new HTTP mux over the given table registry
func NewMux(version string, registry *room.Registry) *Mux {
	this := &Mux{
		Router:   gmux.NewRouter(),
		version:  version,
		registry: registry,
	}

	this.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
	this.Methods(http.MethodGet).Path("/ws").Handler(this.getWS())

	this.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, nil)
	})
	this.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, nil)
	})

	return this
}
