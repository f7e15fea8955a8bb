package gameloop

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/annelo/climber-server/internal/entity"
	"github.com/annelo/climber-server/internal/session"
)

// SpawnSystem через случайные промежутки добавляет врагов в обычные сессии
// и фрукты в сессии с бонусной фазой.
type SpawnSystem struct {
	deps        Dependencies
	rng         *rand.Rand
	minInterval time.Duration
	maxInterval time.Duration
	remaining   time.Duration
}

func NewSpawnSystem(seed int64, minInterval, maxInterval time.Duration) *SpawnSystem {
	if minInterval <= 0 {
		minInterval = 3 * time.Second
	}
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	return &SpawnSystem{
		rng:         rand.New(rand.NewSource(seed)),
		minInterval: minInterval,
		maxInterval: maxInterval,
	}
}

func (s *SpawnSystem) Name() string { return "spawner" }

func (s *SpawnSystem) Init(deps Dependencies) error {
	if deps.Sessions == nil {
		return errors.New("session manager is required")
	}
	s.deps = deps.withDefaults()
	s.remaining = s.randomDuration()
	return nil
}

var enemyKinds = []entity.Kind{entity.KindGround, entity.KindBird, entity.KindIce}

func (s *SpawnSystem) Tick(ctx context.Context, dt time.Duration) {
	s.remaining -= dt
	if s.remaining > 0 {
		return
	}
	s.remaining = s.randomDuration()

	for _, sess := range s.deps.Sessions.All() {
		st := sess.Stats()
		if !st.Active {
			continue
		}
		req := session.SpawnRequest{Kind: entity.KindFruit}
		if st.Mode == session.ModeNormal {
			req.Kind = enemyKinds[s.rng.Intn(len(enemyKinds))]
		} else if st.Fruits >= session.MaxFruits {
			continue
		}
		if sess.RequestSpawn(req) {
			s.deps.Logger.Debugf("[SpawnSystem] %s -> %v, next in %v", sess.ID(), req.Kind, s.remaining)
		}
	}
}

func (s *SpawnSystem) randomDuration() time.Duration {
	spread := s.maxInterval - s.minInterval
	if spread <= 0 {
		return s.minInterval
	}
	return s.minInterval + time.Duration(s.rng.Int63n(int64(spread)))
}
