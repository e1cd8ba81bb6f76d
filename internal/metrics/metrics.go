package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BalancePollsTotal tracks balance refresh cycles by outcome.
	BalancePollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentboard_balance_polls_total",
			Help: "Total number of balance refresh cycles",
		},
		[]string{"result"},
	)

	// ServiceRefreshTotal tracks service-list refresh cycles by outcome.
	ServiceRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentboard_service_refresh_total",
			Help: "Total number of service-list refresh cycles",
		},
		[]string{"result"},
	)

	// StatusRefreshTotal tracks deployment-status refresh cycles by outcome.
	StatusRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentboard_status_refresh_total",
			Help: "Total number of deployment-status refresh cycles",
		},
		[]string{"result"},
	)

	// AggregateBalance tracks the latest aggregate native balance.
	AggregateBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentboard_aggregate_balance",
			Help: "Aggregate native-currency balance across monitored addresses",
		},
	)

	// MonitoredAddresses tracks the size of the monitored address set.
	MonitoredAddresses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentboard_monitored_addresses",
			Help: "Number of addresses in the monitored set",
		},
	)

	// NotificationsTotal tracks emitted notifications by level.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentboard_notifications_total",
			Help: "Total number of user-visible notifications",
		},
		[]string{"level"},
	)
)
