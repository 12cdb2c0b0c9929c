// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics 以 Prometheus 輸出服務與檢驗的觀測值。
//
// 每個 Metrics 持有自己的 Registry，測試與多實例之間不會重複註冊。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zintix-labs/petlab"
	"github.com/zintix-labs/petlab/stats"
)

const namespace = "petlab"

// 檢驗結果分類
const (
	OutcomeSolved   = "solved"
	OutcomeUnsolved = "unsolved"
	OutcomeError    = "error"
)

type Metrics struct {
	reg *prometheus.Registry

	// ChecksTotal labels: model, outcome
	ChecksTotal *prometheus.CounterVec
	// CheckDuration labels: model
	CheckDuration *prometheus.HistogramVec
	// CheckSamples 每次檢驗的取樣路徑數
	CheckSamples prometheus.Histogram
	// ExploredStates 每次檢驗的已探索狀態數
	ExploredStates prometheus.Histogram
	// SimulationsTotal labels: model, outcome
	SimulationsTotal *prometheus.CounterVec

	// HTTPRequests labels: method, route, status
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration labels: method, route
	HTTPDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "total",
			Help:      "Reachability checks by model and outcome",
		}, []string{"model", "outcome"}),
		CheckDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "duration_seconds",
			Help:      "Wall time of a reachability check",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"model"}),
		CheckSamples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "samples",
			Help:      "Sampled paths per check",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		ExploredStates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "explored_states",
			Help:      "Explored states per check",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulate",
			Name:      "total",
			Help:      "Monte-Carlo simulations by model and outcome",
		}, []string{"model", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.reg.MustRegister(
		m.ChecksTotal, m.CheckDuration, m.CheckSamples, m.ExploredStates, m.SimulationsTotal,
		m.HTTPRequests, m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry 供測試讀值。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// WatchPool 以 GaugeFunc 拉取 CheckPool 的快照。
func (m *Metrics) WatchPool(p *petlab.CheckPool) {
	gauge := func(name, help string, f func(petlab.CheckPoolMetrics) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return f(p.Metrics()) })
	}
	m.reg.MustRegister(
		gauge("size", "Concurrent check slots", func(s petlab.CheckPoolMetrics) float64 { return float64(s.PoolSize) }),
		gauge("inflight", "Checks currently running", func(s petlab.CheckPoolMetrics) float64 { return float64(s.Inflight) }),
		gauge("panics", "Recovered check panics", func(s petlab.CheckPoolMetrics) float64 { return float64(s.Panics) }),
		gauge("fatals", "Checks ending in a fatal error", func(s petlab.CheckPoolMetrics) float64 { return float64(s.Fatals) }),
		gauge("closed", "1 when the pool is closed", func(s petlab.CheckPoolMetrics) float64 {
			if s.Closed {
				return 1
			}
			return 0
		}),
	)
}

// ObserveCheck rep 為 nil 代表錯誤。
func (m *Metrics) ObserveCheck(model string, rep *stats.CheckReport, d time.Duration) {
	if rep == nil {
		m.ChecksTotal.WithLabelValues(model, OutcomeError).Inc()
		return
	}
	outcome := OutcomeUnsolved
	if rep.Solved() {
		outcome = OutcomeSolved
	}
	m.ChecksTotal.WithLabelValues(rep.ModelName, outcome).Inc()
	m.CheckDuration.WithLabelValues(rep.ModelName).Observe(d.Seconds())
	m.CheckSamples.Observe(float64(rep.Counters.Samples))
	m.ExploredStates.Observe(float64(rep.Explored))
}

func (m *Metrics) ObserveSimulation(model string, err error) {
	outcome := OutcomeSolved
	if err != nil {
		outcome = OutcomeError
	}
	m.SimulationsTotal.WithLabelValues(model, outcome).Inc()
}

// ObserveHTTP route 應為路由樣板（例如 /v1/results/{id}），避免 label 爆量。
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
