package service

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/annelo/climber-server/internal/protocol"
)

// lineConn пишет JSON-строки в TCP-соединение.
type lineConn struct {
	conn    net.Conn
	timeout time.Duration
	mu      sync.Mutex
}

func newLineConn(c net.Conn, timeout time.Duration) *lineConn {
	return &lineConn{conn: c, timeout: timeout}
}

func (c *lineConn) Send(m protocol.Message) error {
	data, err := protocol.Marshal(m)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
	}
	_, err = c.conn.Write(data)
	return err
}

func (c *lineConn) Close() error { return c.conn.Close() }

// wsConn отправляет каждое сообщение отдельным текстовым фреймом.
type wsConn struct {
	conn    *websocket.Conn
	timeout time.Duration
	mu      sync.Mutex
}

func newWSConn(c *websocket.Conn, timeout time.Duration) *wsConn {
	return &wsConn{conn: c, timeout: timeout}
}

func (c *wsConn) Send(m protocol.Message) error {
	data, err := protocol.Marshal(m)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, data[:len(data)-1])
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
