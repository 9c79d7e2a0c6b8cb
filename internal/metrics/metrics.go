// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics provides the Prometheus instrumentation of the
// proof-of-work subsystem.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vertcoin-project/vtcd/blockchain/standalone"
)

const namespace = "vtcd"

// Metrics houses the collectors of the proof-of-work subsystem along with the
// registry they are registered with.  The zero value is not usable.  Use New.
//
// A nil *Metrics is valid and discards every observation, so callers do not
// need to check whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	powHashes        *prometheus.CounterVec
	powHashSeconds   *prometheus.HistogramVec
	headersConnected prometheus.Counter
	headersRejected  *prometheus.CounterVec
	bestHeight       prometheus.Gauge
	nextBits         prometheus.Gauge
	minedHeaders     prometheus.Counter
}

// New returns metrics registered with a new registry that also carries the
// standard process and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		powHashes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pow",
			Name:      "hashes_total",
			Help:      "Number of proof-of-work hashes computed by algorithm.",
		}, []string{"algo"}),
		powHashSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pow",
			Name:      "hash_duration_seconds",
			Help:      "Time taken to compute a proof-of-work hash by algorithm.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"algo"}),
		headersConnected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "headers_connected_total",
			Help:      "Number of block headers connected to the header chain.",
		}),
		headersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "headers_rejected_total",
			Help:      "Number of block headers rejected by reason.",
		}, []string{"reason"}),
		bestHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "best_height",
			Help:      "Height of the best known block header.",
		}),
		nextBits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "next_required_bits",
			Help:      "Compact target difficulty required of the next block.",
		}),
		minedHeaders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mining",
			Name:      "headers_solved_total",
			Help:      "Number of block headers solved by the CPU miner.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.powHashes,
		m.powHashSeconds,
		m.headersConnected,
		m.headersRejected,
		m.bestHeight,
		m.nextBits,
		m.minedHeaders,
	)
	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePowHash records a proof-of-work hash computed with the provided
// algorithm.
func (m *Metrics) ObservePowHash(algo standalone.PowAlgo, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := algo.String()
	m.powHashes.WithLabelValues(label).Inc()
	m.powHashSeconds.WithLabelValues(label).Observe(elapsed.Seconds())
}

// HeaderConnected records a header connected to the best chain.
func (m *Metrics) HeaderConnected(height int64, nextBits uint32) {
	if m == nil {
		return
	}
	m.headersConnected.Inc()
	m.bestHeight.Set(float64(height))
	m.nextBits.Set(float64(nextBits))
}

// HeaderRejected records a header rejected for the provided reason.
func (m *Metrics) HeaderRejected(reason string) {
	if m == nil {
		return
	}
	m.headersRejected.WithLabelValues(reason).Inc()
}

// HeaderSolved records a header solved by the CPU miner.
func (m *Metrics) HeaderSolved() {
	if m == nil {
		return
	}
	m.minedHeaders.Inc()
}

// Handler returns an HTTP handler that serves the metrics in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve serves the metrics at /metrics on the provided listener until the
// context is canceled.
func (m *Metrics) Serve(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
