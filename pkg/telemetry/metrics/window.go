package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// WindowMetrics publishes the latest quota window classification so
// operators can alert on burn rate from Prometheus instead of watching
// the console.
//
// Metrics:
//   - callisto_usage_window_utilization_percent: Window utilization by window
//   - callisto_usage_window_burn_rate: Usage pace vs. window pace
//   - callisto_usage_window_status: 0=gray 1=green 2=orange 3=red
//   - callisto_usage_extra_enabled / used_credits / monthly_limit / utilization_percent
type WindowMetrics struct {
	utilization *prometheus.GaugeVec
	burnRate    *prometheus.GaugeVec
	status      *prometheus.GaugeVec

	extraEnabled     prometheus.Gauge
	extraUsed        prometheus.Gauge
	extraLimit       prometheus.Gauge
	extraUtilization prometheus.Gauge
}

// NewWindowMetrics creates and registers window metrics.
func NewWindowMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *WindowMetrics {
	wm := &WindowMetrics{
		utilization: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "usage",
				Name:      "window_utilization_percent",
				Help:      "Quota window utilization percentage by window",
			},
			[]string{"window"},
		),

		burnRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "usage",
				Name:      "window_burn_rate",
				Help:      "Utilization divided by percent of window elapsed (1.0 = on pace)",
			},
			[]string{"window"},
		),

		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "usage",
				Name:      "window_status",
				Help:      "Window pace status: 0=gray 1=green 2=orange 3=red",
			},
			[]string{"window"},
		),

		extraEnabled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "usage",
				Name:      "extra_enabled",
				Help:      "Whether extra usage billing is enabled (1 or 0)",
			},
		),

		extraUsed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "usage",
				Name:      "extra_used_credits",
				Help:      "Extra usage credits consumed this month",
			},
		),

		extraLimit: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "usage",
				Name:      "extra_monthly_limit",
				Help:      "Configured extra usage monthly credit limit",
			},
		),

		extraUtilization: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "usage",
				Name:      "extra_utilization_percent",
				Help:      "Extra usage utilization percentage",
			},
		),
	}

	registry.MustRegister(
		wm.utilization,
		wm.burnRate,
		wm.status,
		wm.extraEnabled,
		wm.extraUsed,
		wm.extraLimit,
		wm.extraUtilization,
	)

	return wm
}

// UpdateWindow sets the gauges for one quota window.
func (wm *WindowMetrics) UpdateWindow(window string, utilization, burnRate float64, status int) {
	wm.utilization.WithLabelValues(window).Set(utilization)
	wm.burnRate.WithLabelValues(window).Set(burnRate)
	wm.status.WithLabelValues(window).Set(float64(status))
}

// UpdateExtraUsage sets the extra-usage gauges.
func (wm *WindowMetrics) UpdateExtraUsage(enabled bool, usedCredits, monthlyLimit, utilization float64) {
	if enabled {
		wm.extraEnabled.Set(1)
	} else {
		wm.extraEnabled.Set(0)
	}
	wm.extraUsed.Set(usedCredits)
	wm.extraLimit.Set(monthlyLimit)
	wm.extraUtilization.Set(utilization)
}
