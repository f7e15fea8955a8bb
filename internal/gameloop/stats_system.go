package gameloop

import (
	"context"
	"errors"
	"time"
)

// StatsSystem периодически пишет в лог сводку по сессиям и обновляет метрики.
type StatsSystem struct {
	deps  Dependencies
	ticks int64
	every int64
}

const defaultStatsEvery = 600 // ~10 секунд при 60 TPS

func NewStatsSystem(every int64) *StatsSystem {
	if every <= 0 {
		every = defaultStatsEvery
	}
	return &StatsSystem{every: every}
}

func (t *StatsSystem) Name() string { return "stats" }

func (t *StatsSystem) Init(deps Dependencies) error {
	if deps.Sessions == nil {
		return errors.New("session manager is required")
	}
	t.deps = deps.withDefaults()
	return nil
}

func (t *StatsSystem) Tick(ctx context.Context, dt time.Duration) {
	t.ticks++
	sessions := t.deps.Sessions.All()
	sessionsActive.Set(int64(len(sessions)))

	if t.ticks%t.every != 0 {
		return
	}
	for _, sess := range sessions {
		st := sess.Stats()
		t.deps.Logger.Infow("[StatsSystem] session",
			"id", st.ID,
			"mode", st.Mode.String(),
			"lives", st.Lives,
			"scores", st.Scores,
			"enemies", st.Enemies,
			"fruits", st.Fruits,
			"speed", st.Speed,
		)
	}
	t.deps.Logger.Infof("[StatsSystem] tick=%d sessions=%d", t.ticks, len(sessions))
}
