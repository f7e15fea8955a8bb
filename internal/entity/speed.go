package entity

import "sync"

const (
	BaseSpeed      = 1.0
	SpeedIncrement = 0.2
)

// SpeedMultiplier - общий для процесса множитель скорости врагов.
// Создаётся сервером и передаётся во все сессии; Reset вызывается при рестарте сессии.
type SpeedMultiplier struct {
	mu    sync.Mutex
	value float64
}

func NewSpeedMultiplier() *SpeedMultiplier {
	return &SpeedMultiplier{value: BaseSpeed}
}

func (s *SpeedMultiplier) Get() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Increase увеличивает множитель на SpeedIncrement и возвращает новое значение.
func (s *SpeedMultiplier) Increase() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value += SpeedIncrement
	return s.value
}

func (s *SpeedMultiplier) Reset() {
	s.mu.Lock()
	s.value = BaseSpeed
	s.mu.Unlock()
}
