package http

import (
	"fmt"
	"net/http"

	"github.com/WPMirror/pkg/config"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewHTTPServer(cfg *config.Config, sites SiteClients) *http.Server {
	return &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: NewRouter(sites),
	}
}

func NewRouter(sites SiteClients) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "OK")
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	h := &contentHandler{sites: sites}
	api := r.PathPrefix("/api/sites/{site}").Subrouter()
	api.HandleFunc("/{collection:posts|pages}", h.listItems).Methods(http.MethodGet)
	api.HandleFunc("/{collection:posts|pages}/{id:[0-9]+}", h.getItem).Methods(http.MethodGet)
	api.HandleFunc("/{collection:posts|pages}/count", h.countItems).Methods(http.MethodGet)

	return r
}
