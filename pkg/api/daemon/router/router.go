package router

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rootless-containers/guestproxyagent/pkg/api"
	"github.com/rootless-containers/guestproxyagent/pkg/status"
	"github.com/sirupsen/logrus"
)

type Backend struct {
	StatusProvider StatusProvider
}

type StatusProvider interface {
	AggregateStatus() (*status.GuestProxyAgentAggregateStatus, error)
}

func (b *Backend) onError(w http.ResponseWriter, r *http.Request, err error, ec int) {
	logrus.WithError(err).Warnf("%s %s failed", r.Method, r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ec)
	// the rendered message is the only failure detail exposed to consumers
	e := api.ErrorJSON{
		Message: err.Error(),
	}
	_ = json.NewEncoder(w).Encode(e)
}

func (b *Backend) writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	m, err := json.Marshal(v)
	if err != nil {
		b.onError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(m)
}

func (b *Backend) Ping(w http.ResponseWriter, r *http.Request) {
	b.writeJSON(w, r, "pong")
}

func (b *Backend) GetStatus(w http.ResponseWriter, r *http.Request) {
	s, err := b.StatusProvider.AggregateStatus()
	if err != nil {
		b.onError(w, r, err, http.StatusInternalServerError)
		return
	}
	b.writeJSON(w, r, s)
}

func AddRoutes(r *mux.Router, b *Backend) {
	v1 := r.PathPrefix("/" + api.Version).Subrouter()
	v1.Path("/ping").Methods("GET").HandlerFunc(b.Ping)
	v1.Path("/status").Methods("GET").HandlerFunc(b.GetStatus)
}
