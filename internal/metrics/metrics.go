// Package metrics holds the Prometheus collectors shared by the
// tracker and simulator, following the teacher's promauto registration
// style (lib/setup/source.go).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InboundFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atctrace_receiver_inbound_frames_total",
		Help: "Inbound frames processed by the receiver. The format label is always \"beast\"; AVR and Beast frames are not counted apart.",
	}, []string{"format"})

	FramesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atctrace_receiver_frames_dropped_total",
		Help: "Inbound frames dropped, by reason.",
	}, []string{"reason"})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "atctrace_receiver_active_connections",
		Help: "Currently open inbound TCP connections.",
	})

	KnownAircraft = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "atctrace_tracker_known_aircraft",
		Help: "Aircraft currently present in the tracker's received-aircraft cache.",
	})

	SimulatedMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atctrace_simulator_messages_total",
		Help: "Messages emitted by the simulator, by message class.",
	}, []string{"class"})

	AircraftEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atctrace_tracker_aircraft_events_total",
		Help: "AircraftSeen/AircraftLost events published on the event bus.",
	}, []string{"kind"})
)
