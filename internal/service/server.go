// Package service принимает клиентов по TCP и WebSocket, создаёт для каждого
// сессию и крутит общий игровой цикл.
package service

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/annelo/climber-server/internal/entity"
	"github.com/annelo/climber-server/internal/gameloop"
	"github.com/annelo/climber-server/internal/mapgen"
	"github.com/annelo/climber-server/internal/protocol"
	"github.com/annelo/climber-server/internal/session"
	"github.com/annelo/climber-server/internal/sessionmanager"
	"github.com/annelo/climber-server/internal/terrain"
)

const rejectText = "Server full. Try again later."

var ErrNotStarted = errors.New("server not started")

// Options - параметры сервера, собранные из конфигурации.
type Options struct {
	TCPAddr      string
	WSAddr       string
	MaxSessions  int
	WriteTimeout time.Duration
	Tick         time.Duration
	Seed         int64
	BonusSeed    int64
	Activation   session.Activation

	AutoSpawn        bool
	SpawnMinInterval time.Duration
	SpawnMaxInterval time.Duration
	StatsEvery       int64

	Logger *zap.SugaredLogger
}

// GameServer владеет реестром сессий, общим множителем скорости и сетевыми входами.
type GameServer struct {
	opts     Options
	logger   *zap.SugaredLogger
	sessions *sessionmanager.SessionManager
	speed    *entity.SpeedMultiplier
	bonusMap terrain.Grid
	seq      atomic.Int64

	loop     *gameloop.Loop
	tcp      net.Listener
	httpSrv  *http.Server
	wsAddr   net.Addr
	upgrader websocket.Upgrader

	cancel context.CancelFunc
	wg     sync.WaitGroup
	stop   sync.Once
}

func NewGameServer(opts Options) *GameServer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second / 60
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.BonusSeed == 0 {
		opts.BonusSeed = mapgen.DefaultSeed
	}
	w, h := terrain.StandardWidth, terrain.StandardHeight
	return &GameServer{
		opts:     opts,
		logger:   opts.Logger,
		sessions: sessionmanager.NewSessionManager(opts.MaxSessions),
		speed:    entity.NewSpeedMultiplier(),
		bonusMap: mapgen.NewGenerator(opts.BonusSeed).Bonus(w, h),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *GameServer) Sessions() *sessionmanager.SessionManager { return s.sessions }
func (s *GameServer) Speed() *entity.SpeedMultiplier           { return s.speed }

// Start открывает слушатели и запускает игровой цикл. Возвращается сразу.
func (s *GameServer) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	ln, err := net.Listen("tcp", s.opts.TCPAddr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listen tcp %s: %w", s.opts.TCPAddr, err)
	}
	s.tcp = ln

	if s.opts.WSAddr != "" {
		wsLn, err := net.Listen("tcp", s.opts.WSAddr)
		if err != nil {
			ln.Close()
			s.cancel()
			return fmt.Errorf("listen ws %s: %w", s.opts.WSAddr, err)
		}
		s.wsAddr = wsLn.Addr()
		s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.httpSrv.Serve(wsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Errorf("http gateway: %v", err)
			}
		}()
		s.logger.Infof("WebSocket gateway on %s (/ws, /debug/vars)", s.wsAddr)
	}

	systems := []gameloop.System{gameloop.NewSessionSystem(), gameloop.NewStatsSystem(s.opts.StatsEvery)}
	if s.opts.AutoSpawn {
		systems = append([]gameloop.System{
			gameloop.NewSpawnSystem(s.opts.Seed, s.opts.SpawnMinInterval, s.opts.SpawnMaxInterval),
		}, systems...)
	}
	s.loop = gameloop.NewLoop(s.opts.Tick, gameloop.Dependencies{
		Sessions: s.sessions,
		Logger:   s.logger,
	}, systems...)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.loop.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	s.logger.Infof("Game server listening on %s (max %d sessions)", ln.Addr(), s.opts.MaxSessions)
	return nil
}

// Addr - адрес TCP-слушателя.
func (s *GameServer) Addr() net.Addr {
	if s.tcp == nil {
		return nil
	}
	return s.tcp.Addr()
}

// WSAddr - адрес HTTP-шлюза или nil, если он выключен.
func (s *GameServer) WSAddr() net.Addr { return s.wsAddr }

// Handler возвращает HTTP-маршруты шлюза.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

// Stop закрывает слушатели, останавливает цикл и все сессии.
func (s *GameServer) Stop() error {
	if s.cancel == nil {
		return ErrNotStarted
	}
	s.stop.Do(func() {
		s.cancel()
		if s.tcp != nil {
			s.tcp.Close()
		}
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := s.httpSrv.Shutdown(ctx); err != nil {
				s.logger.Warnf("http shutdown: %v", err)
			}
			cancel()
		}
		n := s.sessions.StopAll()
		s.wg.Wait()
		s.logger.Infof("Server stopped, %d sessions closed", n)
	})
	return nil
}

// attach создаёт сессию для нового соединения. При заполненном сервере
// клиент получает ERROR, соединение закрывается.
func (s *GameServer) attach(conn session.Conn, remote string) (*session.Session, error) {
	connectionsTotal.Add(1)
	if s.sessions.Full() {
		s.reject(conn, remote)
		return nil, sessionmanager.ErrCapacity
	}

	id := uuid.NewString()
	sess := session.New(id, conn, session.Options{
		Speed:      s.speed,
		BonusMap:   s.bonusMap,
		Rand:       rand.New(rand.NewSource(s.opts.Seed + s.seq.Add(1))),
		Logger:     s.logger,
		Activation: s.opts.Activation,
		WaitGreet:  true,
	})
	// Сначала место в реестре, потом карта: клиент не получит MAP, а следом ERROR.
	if err := s.sessions.Add(sess); err != nil {
		if errors.Is(err, sessionmanager.ErrCapacity) {
			s.reject(conn, remote)
		} else {
			sess.Stop()
		}
		return nil, err
	}
	if err := sess.Greet(); err != nil {
		_ = s.sessions.Remove(id)
		return nil, fmt.Errorf("greet %s: %w", remote, err)
	}
	s.logger.Infof("Session %s started for %s (%d active)", id, remote, s.sessions.Count())
	return sess, nil
}

func (s *GameServer) reject(conn session.Conn, remote string) {
	sessionsRejected.Add(1)
	if err := conn.Send(protocol.NewError(rejectText)); err != nil {
		s.logger.Debugf("reject %s: %v", remote, err)
	}
	conn.Close()
	s.logger.Warnf("Rejected %s: server full", remote)
}

// detach убирает сессию после обрыва соединения. Цикл мог удалить её раньше.
func (s *GameServer) detach(sess *session.Session) {
	if err := s.sessions.Remove(sess.ID()); err == nil {
		s.logger.Infof("Session %s closed", sess.ID())
	}
	sess.Stop()
}

// dispatch разбирает строку команды и кладёт её в очередь сессии.
// Неизвестные команды игнорируются.
func (s *GameServer) dispatch(sess *session.Session, line string) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		return
	}
	if !sess.Enqueue(cmd) {
		commandsDropped.Add(1)
	}
}
