package gameloop_test

import (
	"context"
	"errors"
	"expvar"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/climber-server/internal/gameloop"
	"github.com/annelo/climber-server/internal/protocol"
	"github.com/annelo/climber-server/internal/session"
	"github.com/annelo/climber-server/internal/sessionmanager"
)

type recConn struct {
	mu    sync.Mutex
	count int
	err   error
	panic bool
}

func (c *recConn) Send(protocol.Message) error {
	if c.panic {
		panic("codec exploded")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.count++
	return nil
}

func (c *recConn) Close() error { return nil }

func (c *recConn) sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func fixedClock() func() time.Time {
	now := time.Unix(5000, 0)
	return func() time.Time {
		now = now.Add(16 * time.Millisecond)
		return now
	}
}

func TestSessionSystem_FaultIsolation(t *testing.T) {
	m := sessionmanager.NewSessionManager(0)
	goodConn := &recConn{}
	require.NoError(t, m.Add(session.New("good", goodConn, session.Options{})))
	require.NoError(t, m.Add(session.New("bad", &recConn{panic: true}, session.Options{})))
	require.NoError(t, m.Add(session.New("broken", &recConn{err: errors.New("reset by peer")}, session.Options{})))

	loop := gameloop.NewLoop(time.Millisecond, gameloop.Dependencies{Sessions: m, Now: fixedClock()}, gameloop.NewSessionSystem())
	loop.Step(context.Background(), 16*time.Millisecond)

	_, err := m.Get("bad")
	assert.ErrorIs(t, err, sessionmanager.ErrSessionNotFound)
	_, err = m.Get("broken")
	assert.ErrorIs(t, err, sessionmanager.ErrSessionNotFound)

	good, err := m.Get("good")
	require.NoError(t, err)
	assert.True(t, good.Active())
	assert.Equal(t, 1, goodConn.sent())

	loop.Step(context.Background(), 16*time.Millisecond)
	assert.Equal(t, 2, goodConn.sent())
}

type panicSystem struct{ ticks int }

func (p *panicSystem) Init(gameloop.Dependencies) error { return nil }
func (p *panicSystem) Name() string                     { return "panicky" }
func (p *panicSystem) Tick(context.Context, time.Duration) {
	p.ticks++
	panic("boom")
}

type countSystem struct{ ticks int }

func (c *countSystem) Init(gameloop.Dependencies) error    { return nil }
func (c *countSystem) Name() string                        { return "count" }
func (c *countSystem) Tick(context.Context, time.Duration) { c.ticks++ }

func TestLoop_SystemPanicDoesNotStopOthers(t *testing.T) {
	p, c := &panicSystem{}, &countSystem{}
	loop := gameloop.NewLoop(time.Millisecond, gameloop.Dependencies{}, p, c)
	loop.Step(context.Background(), time.Millisecond)
	loop.Step(context.Background(), time.Millisecond)
	assert.Equal(t, 2, p.ticks)
	assert.Equal(t, 2, c.ticks)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	c := &countSystem{}
	loop := gameloop.NewLoop(time.Millisecond, gameloop.Dependencies{}, c)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestSpawnSystem_FeedsSessions(t *testing.T) {
	m := sessionmanager.NewSessionManager(0)
	s := session.New("s", &recConn{}, session.Options{})
	require.NoError(t, m.Add(s))

	deps := gameloop.Dependencies{Sessions: m, Now: fixedClock()}
	loop := gameloop.NewLoop(time.Millisecond, deps,
		gameloop.NewSpawnSystem(1, time.Millisecond, time.Millisecond),
		gameloop.NewSessionSystem(),
	)
	loop.Step(context.Background(), 16*time.Millisecond)
	assert.Equal(t, 1, s.Stats().Enemies)
}

func TestStatsSystem_PublishesActiveSessions(t *testing.T) {
	m := sessionmanager.NewSessionManager(0)
	require.NoError(t, m.Add(session.New("x", &recConn{}, session.Options{})))
	require.NoError(t, m.Add(session.New("y", &recConn{}, session.Options{})))

	loop := gameloop.NewLoop(time.Millisecond, gameloop.Dependencies{Sessions: m}, gameloop.NewStatsSystem(1))
	loop.Step(context.Background(), time.Millisecond)
	assert.Equal(t, "2", expvar.Get("sessions_active").String())
}
