package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/annelo/climber-server/internal/entity"
	"github.com/annelo/climber-server/internal/session"
	"github.com/annelo/climber-server/internal/sessionmanager"
)

// Env - то, чем управляют встроенные команды.
type Env struct {
	Sessions *sessionmanager.SessionManager
	Speed    *entity.SpeedMultiplier
	// Config возвращает текущую конфигурацию в читаемом виде.
	Config func() (string, error)
	// Stop останавливает сервер.
	Stop func()
}

// RegisterBuiltins добавляет стандартные команды консоли.
func RegisterBuiltins(r *Registry, env Env) {
	r.Register(Command{
		Name:        "spawn",
		Usage:       "ground|bird|ice [floor] [col]",
		Description: "Spawn an enemy in every normal-mode session",
		Handler:     func(args []string) (string, error) { return spawnEnemy(env, args) },
	})
	r.Register(Command{
		Name:        "fruit",
		Description: "Spawn a fruit in every bonus-phase session",
		Handler:     func([]string) (string, error) { return spawnFruit(env) },
	})
	r.Register(Command{
		Name:        "sessions",
		Description: "List active sessions",
		Handler:     func([]string) (string, error) { return listSessions(env), nil },
	})
	r.Register(Command{
		Name:        "stats",
		Description: "Show server totals",
		Handler:     func([]string) (string, error) { return totals(env), nil },
	})
	r.Register(Command{
		Name:        "config",
		Description: "Print effective configuration",
		Handler: func([]string) (string, error) {
			if env.Config == nil {
				return "No config\n", nil
			}
			return env.Config()
		},
	})
	r.Register(Command{
		Name:        "stop",
		Description: "Stop server",
		Handler: func([]string) (string, error) {
			if env.Stop == nil {
				return "", errors.New("stop is not available")
			}
			env.Stop()
			return "Server stopping\n", nil
		},
	})
	r.Register(Command{
		Name:        "help",
		Description: "List commands",
		Handler:     func([]string) (string, error) { return r.Help(), nil },
	})
}

func spawnEnemy(env Env, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: spawn ground|bird|ice [floor] [col]")
	}
	kind, err := entity.ParseKind(args[0])
	if err != nil {
		return "", err
	}
	if kind == entity.KindFruit {
		return "", errors.New("use the fruit command")
	}
	req := session.SpawnRequest{Kind: kind}
	if len(args) > 1 {
		if req.Floor, err = strconv.Atoi(args[1]); err != nil || req.Floor < 1 {
			return "", fmt.Errorf("bad floor %q", args[1])
		}
	}
	if len(args) > 2 {
		if req.Column, err = strconv.Atoi(args[2]); err != nil || req.Column < 1 {
			return "", fmt.Errorf("bad column %q", args[2])
		}
	}

	n := 0
	for _, s := range env.Sessions.All() {
		if s.Stats().Mode != session.ModeNormal {
			continue
		}
		if req.Floor > s.Floors() {
			return "", fmt.Errorf("%w: %d (1..%d)", session.ErrBadFloor, req.Floor, s.Floors())
		}
		if s.RequestSpawn(req) {
			n++
		}
	}
	return fmt.Sprintf("%s queued in %d session(s)\n", strings.ToLower(kind.String()), n), nil
}

func spawnFruit(env Env) (string, error) {
	n := 0
	for _, s := range env.Sessions.All() {
		st := s.Stats()
		if st.Mode != session.ModeBonus || st.Fruits >= session.MaxFruits {
			continue
		}
		if s.RequestSpawn(session.SpawnRequest{Kind: entity.KindFruit}) {
			n++
		}
	}
	return fmt.Sprintf("fruit queued in %d session(s)\n", n), nil
}

func listSessions(env Env) string {
	all := env.Sessions.All()
	if len(all) == 0 {
		return "No sessions\n"
	}
	var sb strings.Builder
	for _, s := range all {
		st := s.Stats()
		players := 1
		if st.Player2 {
			players = 2
		}
		fmt.Fprintf(&sb, "%s %-6s players=%d lives=%v scores=%v enemies=%d fruits=%d\n",
			st.ID, st.Mode, players, st.Lives[:players], st.Scores[:players], st.Enemies, st.Fruits)
	}
	return sb.String()
}

func totals(env Env) string {
	var enemies, fruits, bonus int
	all := env.Sessions.All()
	for _, s := range all {
		st := s.Stats()
		enemies += st.Enemies
		fruits += st.Fruits
		if st.Mode == session.ModeBonus {
			bonus++
		}
	}
	speed := entity.BaseSpeed
	if env.Speed != nil {
		speed = env.Speed.Get()
	}
	return fmt.Sprintf("sessions=%d bonus=%d enemies=%d fruits=%d speed=%.1f\n",
		len(all), bonus, enemies, fruits, speed)
}
