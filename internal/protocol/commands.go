package protocol

import (
	"errors"
	"sort"
	"strings"

	"github.com/annelo/climber-server/internal/player"
)

// ErrUnknownCommand - токен не распознан; сессия такой ввод игнорирует.
var ErrUnknownCommand = errors.New("unknown command")

// Command - разобранный токен клиента.
type Command struct {
	Player  int
	Action  player.Action
	Restart bool
}

var tokens = map[string]Command{
	"A": {Player: 1, Action: player.ActionLeft},
	"D": {Player: 1, Action: player.ActionRight},
	"W": {Player: 1, Action: player.ActionJump},
	"X": {Player: 1, Action: player.ActionAttack},

	// LEFT/RIGHT/JUMP/ATTACK всегда управляют одним игроком (вторым),
	// P - его же атака с клавиатуры двух игроков.
	"LEFT":   {Player: 2, Action: player.ActionLeft},
	"RIGHT":  {Player: 2, Action: player.ActionRight},
	"JUMP":   {Player: 2, Action: player.ActionJump},
	"ATTACK": {Player: 2, Action: player.ActionAttack},
	"P":      {Player: 2, Action: player.ActionAttack},

	"RESTART": {Restart: true},
}

// ParseCommand разбирает токен без учёта регистра и окружающих пробелов.
func ParseCommand(token string) (Command, error) {
	cmd, ok := tokens[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return Command{}, ErrUnknownCommand
	}
	return cmd, nil
}

// Token возвращает клиентский токен для игрока и действия.
func Token(playerID int, a player.Action) string {
	for _, name := range []string{"A", "D", "W", "X", "LEFT", "RIGHT", "JUMP", "P"} {
		c := tokens[name]
		if c.Player == playerID && c.Action == a {
			return name
		}
	}
	return ""
}

// Tokens возвращает все допустимые токены в алфавитном порядке.
func Tokens() []string {
	out := make([]string, 0, len(tokens))
	for t := range tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
