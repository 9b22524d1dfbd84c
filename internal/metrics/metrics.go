package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mnemo_updates_total",
			Help: "Total number of inbound messages by channel",
		},
		[]string{"channel"},
	)

	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mnemo_replies_total",
			Help: "Total number of replies sent by channel",
		},
		[]string{"channel"},
	)

	SuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mnemo_suppressed_total",
			Help: "Group messages dropped by the reply policy",
		},
	)

	GateDenialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mnemo_gate_denials_total",
			Help: "Messages rejected by the membership gate",
		},
	)

	MemoryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mnemo_memory_operations_total",
			Help: "Memory store operations by kind",
		},
		[]string{"op"},
	)

	GenerationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mnemo_generation_failures_total",
			Help: "Reply generation attempts that returned an error",
		},
	)

	ReplyLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "mnemo_reply_latency_seconds",
			Help: "Reply generation latency in seconds",
		},
	)

	StoredMemories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mnemo_stored_memories",
			Help: "Number of memory rows in the store",
		},
	)

	GroupModes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mnemo_group_modes",
			Help: "Number of chats with an explicit reply mode",
		},
	)
)
