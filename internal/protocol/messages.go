package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Типы исходящих сообщений
const (
	TypeMap          = "MAP"
	TypePlayerUpdate = "PLAYER_UPDATE"
	TypeGameOver     = "GAME_OVER"
	TypeError        = "ERROR"
)

// Message - любое сообщение сервер → клиент.
type Message interface {
	MessageType() string
}

// MapMessage передаёт всю сетку тайлов построчно.
type MapMessage struct {
	Type      string  `json:"type" jsonschema:"enum=MAP"`
	SessionID string  `json:"sessionId"`
	Map       [][]int `json:"map" jsonschema:"description=Row-major tiles: 0 empty 1 solid 2 bonus trigger"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

func (MapMessage) MessageType() string { return TypeMap }

// PlayerState - состояние одного игрока в снимке.
type PlayerState struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	IsOnGround     bool    `json:"isOnGround"`
	IsJumping      bool    `json:"isJumping"`
	IsAttacking    bool    `json:"isAttacking"`
	Lives          int     `json:"lives"`
	Score          int     `json:"score"`
	IsInvulnerable bool    `json:"isInvulnerable"`
	IsAlive        bool    `json:"isAlive"`
}

type EnemyState struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	IsActive  bool    `json:"isActive"`
	EnemyType string  `json:"enemyType" jsonschema:"enum=Ground,enum=Bird,enum=Ice"`
}

type FruitState struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	IsActive  bool    `json:"isActive"`
	FruitType string  `json:"fruitType" jsonschema:"enum=Orange,enum=Banana,enum=Eggplant,enum=Lettuce"`
	Points    int     `json:"points"`
}

// PlayerUpdate - полный снимок сессии, отправляется каждый тик, пока кто-то жив.
type PlayerUpdate struct {
	Type               string       `json:"type" jsonschema:"enum=PLAYER_UPDATE"`
	SessionID          string       `json:"sessionId"`
	Player1            PlayerState  `json:"player1"`
	Player2            *PlayerState `json:"player2"`
	IsPlayer2Active    bool         `json:"isPlayer2Active"`
	PlayerAbove        *int         `json:"playerAbove"`
	IsBonusPhase       bool         `json:"isBonusPhase"`
	BonusPlayerID      *int         `json:"bonusPlayerId"`
	BonusTimeRemaining int64        `json:"bonusTimeRemaining" jsonschema:"description=Milliseconds left in the bonus phase"`
	Enemies            []EnemyState `json:"enemies"`
	Fruits             []FruitState `json:"fruits"`
}

func (PlayerUpdate) MessageType() string { return TypePlayerUpdate }

type GameOver struct {
	Type      string `json:"type" jsonschema:"enum=GAME_OVER"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (GameOver) MessageType() string { return TypeGameOver }

// ErrorMessage отправляется перед закрытием отклонённого соединения.
type ErrorMessage struct {
	Type    string `json:"type" jsonschema:"enum=ERROR"`
	Message string `json:"message"`
}

func (ErrorMessage) MessageType() string { return TypeError }

func NewMap(sessionID string, tiles [][]int) MapMessage {
	m := MapMessage{Type: TypeMap, SessionID: sessionID, Map: tiles, Height: len(tiles)}
	if len(tiles) > 0 {
		m.Width = len(tiles[0])
	}
	return m
}

func NewGameOver(sessionID, text string) GameOver {
	return GameOver{Type: TypeGameOver, SessionID: sessionID, Message: text}
}

func NewError(text string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: text}
}

// Marshal кодирует сообщение в одну JSON-строку с переводом строки в конце.
func Marshal(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.MessageType(), err)
	}
	return append(data, '\n'), nil
}

// Encode пишет сообщение в w в формате NDJSON.
func Encode(w io.Writer, m Message) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Envelope - минимальная обёртка для определения типа входящей строки на клиенте.
type Envelope struct {
	Type string `json:"type"`
}

// Decode читает одну строку из r и разбирает её в сообщение нужного типа.
func Decode(r *bufio.Reader) (Message, error) {
	line, err := r.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	var msg Message
	switch env.Type {
	case TypeMap:
		var m MapMessage
		err = json.Unmarshal(line, &m)
		msg = m
	case TypePlayerUpdate:
		var m PlayerUpdate
		err = json.Unmarshal(line, &m)
		msg = m
	case TypeGameOver:
		var m GameOver
		err = json.Unmarshal(line, &m)
		msg = m
	case TypeError:
		var m ErrorMessage
		err = json.Unmarshal(line, &m)
		msg = m
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return msg, nil
}
