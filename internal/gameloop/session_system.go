package gameloop

import (
	"context"
	"errors"
	"time"

	"github.com/annelo/climber-server/internal/session"
)

// SessionSystem обновляет все зарегистрированные сессии по очереди.
// Паника внутри одной сессии снимает только её.
type SessionSystem struct {
	deps Dependencies
}

func NewSessionSystem() *SessionSystem { return &SessionSystem{} }

func (s *SessionSystem) Name() string { return "sessions" }

func (s *SessionSystem) Init(deps Dependencies) error {
	if deps.Sessions == nil {
		return errors.New("session manager is required")
	}
	s.deps = deps.withDefaults()
	return nil
}

func (s *SessionSystem) Tick(ctx context.Context, dt time.Duration) {
	now := s.deps.Now()
	for _, sess := range s.deps.Sessions.All() {
		if ctx.Err() != nil {
			return
		}
		if !s.update(sess, now) || !sess.Active() {
			s.remove(sess)
		}
	}
	ticksTotal.Add(1)
}

func (s *SessionSystem) update(sess *session.Session, now time.Time) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			sessionFaults.Add(1)
			s.deps.Logger.Errorf("[SessionSystem] panic in session %s: %v", sess.ID(), r)
			ok = false
		}
	}()
	sess.Update(now)
	return true
}

func (s *SessionSystem) remove(sess *session.Session) {
	if err := s.deps.Sessions.Remove(sess.ID()); err == nil {
		s.deps.Logger.Infof("[SessionSystem] session %s removed", sess.ID())
	}
}
