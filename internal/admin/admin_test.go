package admin

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/climber-server/internal/entity"
	"github.com/annelo/climber-server/internal/protocol"
	"github.com/annelo/climber-server/internal/session"
	"github.com/annelo/climber-server/internal/sessionmanager"
)

type nopConn struct{}

func (nopConn) Send(protocol.Message) error { return nil }
func (nopConn) Close() error                { return nil }

func newEnv(t *testing.T) (Env, *session.Session, *bool) {
	t.Helper()
	m := sessionmanager.NewSessionManager(0)
	s := session.New("s1", nopConn{}, session.Options{Rand: rand.New(rand.NewSource(1))})
	require.NoError(t, m.Add(s))
	stopped := false
	return Env{
		Sessions: m,
		Speed:    entity.NewSpeedMultiplier(),
		Config:   func() (string, error) { return "server:\n  tcp_addr: :8888\n", nil },
		Stop:     func() { stopped = true },
	}, s, &stopped
}

func TestRegistry_ExecuteAndReplace(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "echo", Handler: func(args []string) (string, error) {
		return strings.Join(args, ","), nil
	}})
	out, err := r.Execute("  ECHO a b ")
	require.NoError(t, err)
	assert.Equal(t, "a,b", out)

	r.Register(Command{Name: "echo", Handler: func([]string) (string, error) { return "v2", nil }})
	assert.Len(t, r.Commands(), 1)
	out, _ = r.Execute("echo")
	assert.Equal(t, "v2", out)

	out, err = r.Execute("")
	assert.NoError(t, err)
	assert.Empty(t, out)

	_, err = r.Execute("nope")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestBuiltins_Spawn(t *testing.T) {
	env, s, _ := newEnv(t)
	r := NewRegistry()
	RegisterBuiltins(r, env)

	out, err := r.Execute("spawn ice 2")
	require.NoError(t, err)
	assert.Contains(t, out, "ice queued in 1 session")
	s.Update(time.Unix(100, 0))
	assert.Equal(t, 1, s.Stats().Enemies)

	_, err = r.Execute("spawn dragon")
	assert.Error(t, err)
	_, err = r.Execute("spawn ground 99")
	assert.ErrorIs(t, err, session.ErrBadFloor)
	_, err = r.Execute("spawn bird x")
	assert.Error(t, err)
	_, err = r.Execute("spawn")
	assert.Error(t, err)

	// фрукты только в бонусной фазе
	out, err = r.Execute("fruit")
	require.NoError(t, err)
	assert.Contains(t, out, "in 0 session")
}

func TestBuiltins_InfoCommands(t *testing.T) {
	env, _, stopped := newEnv(t)
	r := NewRegistry()
	RegisterBuiltins(r, env)

	out, err := r.Execute("sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "s1 NORMAL")
	assert.Contains(t, out, "players=1")

	out, err = r.Execute("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "sessions=1")
	assert.Contains(t, out, "speed=1.0")

	out, err = r.Execute("config")
	require.NoError(t, err)
	assert.Contains(t, out, "tcp_addr")

	out, err = r.Execute("help")
	require.NoError(t, err)
	for _, name := range []string{"spawn", "fruit", "sessions", "stats", "config", "stop", "help"} {
		assert.Contains(t, out, name)
	}

	_, err = r.Execute("stop")
	require.NoError(t, err)
	assert.True(t, *stopped)
}

func TestServe(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "ping", Handler: func([]string) (string, error) { return "pong\n", nil }})
	r.Register(Command{Name: "fail", Handler: func([]string) (string, error) { return "", errors.New("bad") }})

	var out bytes.Buffer
	err := r.Serve(context.Background(), strings.NewReader("ping\nfail\nwhat\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "pong")
	assert.Contains(t, out.String(), "Error: bad")
	assert.Contains(t, out.String(), "unknown command: what")
}
