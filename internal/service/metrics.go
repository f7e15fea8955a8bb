package service

import "expvar"

var (
	connectionsTotal = counter("connections_total")
	sessionsRejected = counter("sessions_rejected")
	commandsDropped  = counter("commands_dropped")
)

func counter(name string) *expvar.Int {
	if v, ok := expvar.Get(name).(*expvar.Int); ok {
		return v
	}
	return expvar.NewInt(name)
}
