// Package config собирает настройки сервера: значения по умолчанию,
// затем YAML-файл, затем .env и переменные окружения CLIMBER_*.
// Флаги командной строки применяет cmd/server поверх результата.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

const envPrefix = "CLIMBER_"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server ServerConfig `yaml:"server"`
	Game   GameConfig   `yaml:"game"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	TCPAddr      string        `yaml:"tcp_addr"`
	WSAddr       string        `yaml:"ws_addr"`
	GRPCAddr     string        `yaml:"grpc_addr"`
	MaxSessions  int           `yaml:"max_sessions"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type GameConfig struct {
	TickRate     int             `yaml:"tick_rate"`
	Seed         int64           `yaml:"seed"`
	BonusSeed    int64           `yaml:"bonus_seed"`
	P2Activation string          `yaml:"p2_activation"`
	AutoSpawn    AutoSpawnConfig `yaml:"auto_spawn"`
}

type AutoSpawnConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default возвращает конфигурацию стандартного сервера на 8888 с двумя сессиями.
func Default() Config {
	return Config{
		Server: ServerConfig{
			TCPAddr:      ":8888",
			WSAddr:       ":8080",
			GRPCAddr:     ":50051",
			MaxSessions:  2,
			WriteTimeout: 2 * time.Second,
		},
		Game: GameConfig{
			TickRate:     60,
			BonusSeed:    1337,
			P2Activation: "any",
			AutoSpawn: AutoSpawnConfig{
				MinInterval: 5 * time.Second,
				MaxInterval: 15 * time.Second,
			},
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load читает YAML по пути path (пустой путь - только значения по умолчанию),
// подгружает .env, если он есть, и применяет переменные окружения.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"TCP_ADDR":      &c.Server.TCPAddr,
		"WS_ADDR":       &c.Server.WSAddr,
		"GRPC_ADDR":     &c.Server.GRPCAddr,
		"P2_ACTIVATION": &c.Game.P2Activation,
		"LOG_LEVEL":     &c.Log.Level,
		"LOG_FORMAT":    &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	// LOG_LEVEL без префикса тоже принимается
	if v, ok := lookup("LOG_LEVEL"); ok {
		if _, prefixed := lookup(envPrefix + "LOG_LEVEL"); !prefixed {
			c.Log.Level = v
		}
	}

	ints := map[string]*int{
		"MAX_SESSIONS": &c.Server.MaxSessions,
		"TICK_RATE":    &c.Game.TickRate,
	}
	for key, dst := range ints {
		if v, ok := lookup(envPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrInvalid, envPrefix, key, v)
			}
			*dst = n
		}
	}

	int64s := map[string]*int64{
		"SEED":       &c.Game.Seed,
		"BONUS_SEED": &c.Game.BonusSeed,
	}
	for key, dst := range int64s {
		if v, ok := lookup(envPrefix + key); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrInvalid, envPrefix, key, v)
			}
			*dst = n
		}
	}

	durs := map[string]*time.Duration{
		"WRITE_TIMEOUT":      &c.Server.WriteTimeout,
		"SPAWN_MIN_INTERVAL": &c.Game.AutoSpawn.MinInterval,
		"SPAWN_MAX_INTERVAL": &c.Game.AutoSpawn.MaxInterval,
	}
	for key, dst := range durs {
		if v, ok := lookup(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrInvalid, envPrefix, key, v)
			}
			*dst = d
		}
	}

	if v, ok := lookup(envPrefix + "AUTO_SPAWN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sAUTO_SPAWN=%q", ErrInvalid, envPrefix, v)
		}
		c.Game.AutoSpawn.Enabled = b
	}
	return nil
}

// Validate проверяет значения, без которых сервер не запустится.
func (c Config) Validate() error {
	switch {
	case c.Server.TCPAddr == "":
		return fmt.Errorf("%w: server.tcp_addr is empty", ErrInvalid)
	case c.Server.MaxSessions < 1:
		return fmt.Errorf("%w: server.max_sessions must be positive", ErrInvalid)
	case c.Game.TickRate < 1 || c.Game.TickRate > 1000:
		return fmt.Errorf("%w: game.tick_rate %d out of range", ErrInvalid, c.Game.TickRate)
	case c.Game.AutoSpawn.MaxInterval < c.Game.AutoSpawn.MinInterval:
		return fmt.Errorf("%w: auto_spawn.max_interval < min_interval", ErrInvalid)
	}
	switch strings.ToLower(c.Game.P2Activation) {
	case "any", "own":
	default:
		return fmt.Errorf("%w: game.p2_activation %q (any|own)", ErrInvalid, c.Game.P2Activation)
	}
	return nil
}

// TickInterval - длительность одного тика.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Game.TickRate)
}

// Dump сериализует конфигурацию обратно в YAML (для админской команды config).
func (c Config) Dump() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
