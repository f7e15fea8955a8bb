package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/annelo/climber-server/internal/admin"
	"github.com/annelo/climber-server/internal/config"
	"github.com/annelo/climber-server/internal/logging"
	"github.com/annelo/climber-server/internal/service"
	"github.com/annelo/climber-server/internal/session"
)

const healthService = "climber.Game"

var (
	configPath  = flag.String("config", "", "Путь к YAML-конфигурации")
	tcpAddr     = flag.String("addr", "", "Адрес TCP-сервера (по умолчанию из конфигурации, :8888)")
	wsAddr      = flag.String("ws", "", "Адрес WebSocket-шлюза и /debug/vars")
	grpcAddr    = flag.String("grpc", "", "Адрес gRPC health-сервиса")
	maxSessions = flag.Int("max-sessions", 0, "Максимум одновременных сессий")
	seed        = flag.Int64("seed", 0, "Сид случайностей (0 = по времени)")
	autoSpawn   = flag.Bool("autospawn", false, "Автоматически выпускать врагов и фрукты")
	logLevel    = flag.String("log-level", "", "Уровень логирования")
	noConsole   = flag.Bool("no-console", false, "Не читать команды администратора из stdin")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Ошибка логгера: %v", err)
	}
	defer logger.Sync()

	activation, err := session.ParseActivation(cfg.Game.P2Activation)
	if err != nil {
		logger.Fatalf("p2 activation: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := service.NewGameServer(service.Options{
		TCPAddr:          cfg.Server.TCPAddr,
		WSAddr:           cfg.Server.WSAddr,
		MaxSessions:      cfg.Server.MaxSessions,
		WriteTimeout:     cfg.Server.WriteTimeout,
		Tick:             cfg.TickInterval(),
		Seed:             cfg.Game.Seed,
		BonusSeed:        cfg.Game.BonusSeed,
		Activation:       activation,
		AutoSpawn:        cfg.Game.AutoSpawn.Enabled,
		SpawnMinInterval: cfg.Game.AutoSpawn.MinInterval,
		SpawnMaxInterval: cfg.Game.AutoSpawn.MaxInterval,
		Logger:           logger,
	})
	if err := srv.Start(ctx); err != nil {
		logger.Fatalf("Не удалось запустить сервер: %v", err)
	}

	// gRPC используется только для health-check и reflection
	var grpcServer *grpc.Server
	var healthSrv *health.Server
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Fatalf("Не удалось создать слушателя gRPC: %v", err)
		}
		grpcServer = grpc.NewServer()
		healthSrv = health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthSrv)
		reflection.Register(grpcServer)
		healthSrv.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				logger.Errorf("gRPC: %v", err)
			}
		}()
		logger.Infof("gRPC health on %s", lis.Addr())
	}

	reg := admin.NewRegistry()
	admin.RegisterBuiltins(reg, admin.Env{
		Sessions: srv.Sessions(),
		Speed:    srv.Speed(),
		Config:   cfg.Dump,
		Stop:     cancel,
	})

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-signalChan:
			logger.Info("Получен сигнал завершения, останавливаем сервер...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if !*noConsole {
		go func() {
			if err := reg.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
				logger.Warnf("console: %v", err)
			}
		}()
	}

	logger.Infof("Сервер запущен: tcp=%s seed=%d", srv.Addr(), cfg.Game.Seed)
	<-ctx.Done()

	if healthSrv != nil {
		healthSrv.Shutdown()
	}
	if err := srv.Stop(); err != nil {
		logger.Warnf("stop: %v", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("Сервер остановлен")
}

// applyFlags переопределяет конфигурацию явно заданными флагами.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.TCPAddr = *tcpAddr
		case "ws":
			cfg.Server.WSAddr = *wsAddr
		case "grpc":
			cfg.Server.GRPCAddr = *grpcAddr
		case "max-sessions":
			cfg.Server.MaxSessions = *maxSessions
		case "seed":
			cfg.Game.Seed = *seed
		case "autospawn":
			cfg.Game.AutoSpawn.Enabled = *autoSpawn
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
}
