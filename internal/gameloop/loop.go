package gameloop

import (
	"context"
	"time"
)

// Loop - главный цикл, вызывающий Tick всех зарегистрированных систем.
type Loop struct {
	systems []System
	tickDur time.Duration
	deps    Dependencies
}

// NewLoop создаёт цикл с заданной длительностью тика.
func NewLoop(tick time.Duration, deps Dependencies, systems ...System) *Loop {
	deps = deps.withDefaults()
	// Инициализируем все системы
	for _, s := range systems {
		if err := s.Init(deps); err != nil {
			deps.Logger.Errorf("[GameLoop] init %s error: %v", s.Name(), err)
		}
	}
	return &Loop{systems: systems, tickDur: tick, deps: deps}
}

// Run запускает бесконечный цикл до отмены ctx.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tickDur)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case t := <-ticker.C:
			dt := t.Sub(last)
			last = t
			l.Step(ctx, dt)
		case <-ctx.Done():
			l.deps.Logger.Info("[GameLoop] stopped")
			return
		}
	}
}

// Step выполняет один тик всех систем. Паника в системе не останавливает цикл.
func (l *Loop) Step(ctx context.Context, dt time.Duration) {
	for _, s := range l.systems {
		func(sys System) {
			defer func() {
				if r := recover(); r != nil {
					l.deps.Logger.Errorf("[GameLoop] panic in %s: %v", sys.Name(), r)
				}
			}()
			sys.Tick(ctx, dt)
		}(s)
	}
}
