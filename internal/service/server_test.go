package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/climber-server/internal/protocol"
	"github.com/annelo/climber-server/internal/sessionmanager"
	"github.com/annelo/climber-server/internal/terrain"
)

func startServer(t *testing.T, max int) *GameServer {
	t.Helper()
	srv := NewGameServer(Options{
		TCPAddr:      "127.0.0.1:0",
		WSAddr:       "127.0.0.1:0",
		MaxSessions:  max,
		WriteTimeout: time.Second,
		Tick:         5 * time.Millisecond,
		Seed:         42,
	})
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

func dial(t *testing.T, srv *GameServer) (net.Conn, *bufio.Reader) {
	t.Helper()
	c, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	return c, bufio.NewReader(c)
}

func TestTCP_MapFirstThenUpdates(t *testing.T) {
	srv := startServer(t, 2)
	c, r := dial(t, srv)

	msg, err := protocol.Decode(r)
	require.NoError(t, err)
	m, ok := msg.(protocol.MapMessage)
	require.True(t, ok, "first message must be MAP, got %T", msg)
	assert.Equal(t, terrain.StandardWidth, m.Width)
	assert.Equal(t, terrain.StandardHeight, m.Height)
	assert.NotEmpty(t, m.SessionID)

	_, err = c.Write([]byte("garbage\nD\n"))
	require.NoError(t, err)

	var moved bool
	for i := 0; i < 200 && !moved; i++ {
		msg, err := protocol.Decode(r)
		require.NoError(t, err)
		if u, ok := msg.(protocol.PlayerUpdate); ok {
			assert.Equal(t, m.SessionID, u.SessionID)
			moved = u.Player1.X > float64(terrain.Player1Start.X)
		}
	}
	assert.True(t, moved, "player 1 should move right after D")
	assert.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestTCP_RejectWhenFull(t *testing.T) {
	srv := startServer(t, 1)
	_, r1 := dial(t, srv)
	_, err := protocol.Decode(r1)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Sessions().Full() }, time.Second, 10*time.Millisecond)

	_, r2 := dial(t, srv)
	msg, err := protocol.Decode(r2)
	require.NoError(t, err)
	e, ok := msg.(protocol.ErrorMessage)
	require.True(t, ok, "expected ERROR, got %T", msg)
	assert.Contains(t, e.Message, "Server full")

	_, err = r2.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, srv.Sessions().Count())
}

func TestTCP_DisconnectRemovesSession(t *testing.T) {
	srv := startServer(t, 2)
	c, r := dial(t, srv)
	_, err := protocol.Decode(r)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, time.Second, 10*time.Millisecond)

	c.Close()
	assert.Eventually(t, func() bool { return srv.Sessions().Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWS_MapAndDebugVars(t *testing.T) {
	srv := startServer(t, 2)
	url := "ws://" + srv.WSAddr().String() + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))

	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, protocol.TypeMap, env.Type)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("A")))
	_, data, err = ws.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, protocol.TypePlayerUpdate, env.Type)

	resp, err := http.Get("http://" + srv.WSAddr().String() + "/debug/vars")
	require.NoError(t, err)
	defer resp.Body.Close()
	var vars map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vars))
	assert.Contains(t, vars, "connections_total")
	assert.Contains(t, vars, "sessions_active")
}

func TestStopClosesSessions(t *testing.T) {
	srv := NewGameServer(Options{TCPAddr: "127.0.0.1:0", MaxSessions: 2, Tick: 5 * time.Millisecond})
	assert.ErrorIs(t, srv.Stop(), ErrNotStarted)
	require.NoError(t, srv.Start(context.Background()))

	_, r := dial(t, srv)
	_, err := protocol.Decode(r)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Stop())
	assert.Equal(t, 0, srv.Sessions().Count())
	for {
		if _, err := r.ReadByte(); err != nil {
			break
		}
	}
}

type memConn struct {
	mu     sync.Mutex
	msgs   []protocol.Message
	fail   bool
	closed bool
}

func (c *memConn) Send(m protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection reset")
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *memConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func TestAttach_MapAfterRegistration(t *testing.T) {
	srv := NewGameServer(Options{MaxSessions: 1, Seed: 3})

	ok := &memConn{}
	sess, err := srv.attach(ok, "a")
	require.NoError(t, err)
	require.Len(t, ok.msgs, 1)
	assert.IsType(t, protocol.MapMessage{}, ok.msgs[0])
	got, err := srv.Sessions().Get(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)

	// Второй клиент получает только ERROR, без карты.
	full := &memConn{}
	_, err = srv.attach(full, "b")
	assert.ErrorIs(t, err, sessionmanager.ErrCapacity)
	require.Len(t, full.msgs, 1)
	assert.IsType(t, protocol.ErrorMessage{}, full.msgs[0])
	assert.True(t, full.closed)
}

func TestAttach_GreetFailureReleasesSlot(t *testing.T) {
	srv := NewGameServer(Options{MaxSessions: 1, Seed: 3})

	broken := &memConn{fail: true}
	_, err := srv.attach(broken, "a")
	require.Error(t, err)
	assert.Equal(t, 0, srv.Sessions().Count())
	assert.True(t, broken.closed)

	_, err = srv.attach(&memConn{}, "b")
	assert.NoError(t, err)
	assert.Equal(t, 1, srv.Sessions().Count())
}
