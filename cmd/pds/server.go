package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptuff/internal/exchange"
	"cryptuff/internal/model"
)

const exchangeName = model.ExchangeKraken

type healthResponse struct {
	Exchange string `json:"exchange"`
	Status   string `json:"status"`
}

func newServer(addr string, gatherer prometheus.Gatherer, client exchange.StreamingClient) *http.Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthHandler(client)).Methods(http.MethodGet)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// healthHandler reports 200 while the exchange connection is up and 503
// otherwise.
func healthHandler(client exchange.StreamingClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := client.ConnectionStatus()
		code := http.StatusOK
		if status != exchange.StatusConnected {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(healthResponse{Exchange: client.GetName(), Status: status.String()})
	}
}
