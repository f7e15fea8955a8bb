package gameloop

import "expvar"

var (
	ticksTotal     = counter("ticks_total")
	sessionFaults  = counter("session_faults")
	sessionsActive = counter("sessions_active")
)

// counter возвращает уже опубликованный счётчик или регистрирует новый.
func counter(name string) *expvar.Int {
	if v, ok := expvar.Get(name).(*expvar.Int); ok {
		return v
	}
	return expvar.NewInt(name)
}
