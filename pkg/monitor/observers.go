package monitor

import (
	"time"

	"github.com/platinummonkey/beacon/pkg/observability"
)

// observers forwards component observations to Prometheus and, when
// configured, OpenTelemetry
type observers struct {
	prom *observability.Metrics
	otel *observability.OTelMetrics
}

func (o observers) ObserveProbe(name, status string, d time.Duration) {
	o.prom.ObserveProbe(name, status, d)
	if o.otel != nil {
		o.otel.ObserveProbe(name, status, d)
	}
}

func (o observers) ObserveAlert(alertType, severity string) {
	o.prom.ObserveAlert(alertType, severity)
	if o.otel != nil {
		o.otel.ObserveAlert(alertType, severity)
	}
}

func (o observers) SetActiveAlerts(n int) {
	o.prom.SetActiveAlerts(n)
}
