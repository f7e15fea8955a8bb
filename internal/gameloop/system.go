package gameloop

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/annelo/climber-server/internal/sessionmanager"
)

// System описывает логику, выполняемую каждый тик цикла.
type System interface {
	// Init вызывается один раз перед запуском цикла.
	Init(deps Dependencies) error
	// Tick вызывается каждый игровой тик.
	Tick(ctx context.Context, dt time.Duration)
	// Name возвращает читаемое имя системы.
	Name() string
}

// Dependencies передаются системам при инициализации.
type Dependencies struct {
	Sessions *sessionmanager.SessionManager
	Logger   *zap.SugaredLogger
	// Now - источник времени для симуляции; в тестах подменяется.
	Now func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
