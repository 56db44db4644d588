// Package metrics defines all custom Prometheus metrics for the order
// system. It is the single source of truth for metric names, labels, and
// help strings. Metrics register themselves with the default registry via
// promauto; the /metrics endpoint is mounted by the routers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orders"

// UsersRegisteredTotal counts successful registrations.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of users registered.",
	},
)

// OrdersCreatedTotal counts newly created orders.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of orders created.",
	},
)

// StatusTransitionsTotal counts successful status transitions.
// Labels:
//   - from: the previous status
//   - to: the new status applied
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of successful order status transitions.",
	},
	[]string{"from", "to"},
)

// EventsPublishedTotal counts lifecycle event publish attempts.
// Label:
//   - result: "ok" or "error" (publish failures are dropped, not retried)
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of lifecycle event publish attempts, by result.",
	},
	[]string{"result"},
)

// EventsConsumedTotal counts messages handled by the notification worker.
// Label:
//   - result: "ok", "duplicate", or "malformed"
var EventsConsumedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_consumed_total",
		Help:      "Total number of queue messages consumed by the notifier, by result.",
	},
	[]string{"result"},
)
