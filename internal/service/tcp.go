package service

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"
)

const maxLineSize = 4096

func (s *GameServer) acceptLoop(ctx context.Context) {
	for {
		c, err := s.tcp.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warnf("accept: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveTCP(c)
		}()
	}
}

// serveTCP - входной обработчик соединения: одна строка = одна команда.
func (s *GameServer) serveTCP(c net.Conn) {
	remote := c.RemoteAddr().String()
	sess, err := s.attach(newLineConn(c, s.opts.WriteTimeout), remote)
	if err != nil {
		s.logger.Debugf("attach %s: %v", remote, err)
		return
	}
	defer s.detach(sess)

	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 0, 256), maxLineSize)
	for sc.Scan() {
		s.dispatch(sess, sc.Text())
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debugf("read %s: %v", remote, err)
	}
}
