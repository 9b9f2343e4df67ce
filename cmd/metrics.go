package cmd

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/fs/fshttp"
)

// metricsHandler registers the transport metrics and returns a
// handler serving them along with the Go runtime metrics
func metricsHandler() http.Handler {
	if fshttp.DefaultMetrics == nil {
		fshttp.DefaultMetrics = fshttp.NewMetrics("dbxclient")
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(fshttp.DefaultMetrics.Collectors()...)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}

// startMetrics serves the metrics on addr in the background
func startMetrics(addr string) {
	handler := metricsHandler()
	go func() {
		fs.Infof(nil, "Serving metrics on http://%s/metrics", addr)
		if err := http.ListenAndServe(addr, handler); err != nil {
			fs.Errorf(nil, "Metrics server failed: %v", err)
		}
	}()
}
