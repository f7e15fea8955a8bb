package service

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// serveWS - тот же протокол поверх WebSocket: текстовый фрейм на сообщение.
func (s *GameServer) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugf("ws upgrade: %v", err)
		return
	}
	c.SetReadLimit(maxLineSize)

	sess, err := s.attach(newWSConn(c, s.opts.WriteTimeout), r.RemoteAddr)
	if err != nil {
		s.logger.Debugf("attach ws %s: %v", r.RemoteAddr, err)
		return
	}
	defer s.detach(sess)

	for {
		kind, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debugf("ws read %s: %v", r.RemoteAddr, err)
			}
			return
		}
		if kind == websocket.TextMessage {
			s.dispatch(sess, string(data))
		}
	}
}
