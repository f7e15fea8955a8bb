package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/climber-server/internal/entity"
	"github.com/annelo/climber-server/internal/player"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		token string
		want  Command
	}{
		{"a", Command{Player: 1, Action: player.ActionLeft}},
		{"D", Command{Player: 1, Action: player.ActionRight}},
		{" w ", Command{Player: 1, Action: player.ActionJump}},
		{"x", Command{Player: 1, Action: player.ActionAttack}},
		{"Left", Command{Player: 2, Action: player.ActionLeft}},
		{"RIGHT", Command{Player: 2, Action: player.ActionRight}},
		{"jump", Command{Player: 2, Action: player.ActionJump}},
		{"p", Command{Player: 2, Action: player.ActionAttack}},
		{"attack", Command{Player: 2, Action: player.ActionAttack}},
		{"restart", Command{Restart: true}},
	}
	for _, tc := range cases {
		got, err := ParseCommand(tc.token)
		require.NoError(t, err, tc.token)
		assert.Equal(t, tc.want, got, tc.token)
	}

	for _, bad := range []string{"", "FLY", "AA", "{}"} {
		_, err := ParseCommand(bad)
		assert.ErrorIs(t, err, ErrUnknownCommand, bad)
	}
}

// Слова LEFT/RIGHT/JUMP/ATTACK образуют одно семейство и не смешивают игроков.
func TestWordTokensDriveOnePlayer(t *testing.T) {
	for _, tok := range []string{"LEFT", "RIGHT", "JUMP", "ATTACK"} {
		cmd, err := ParseCommand(tok)
		require.NoError(t, err)
		assert.Equal(t, 2, cmd.Player, tok)
	}
	for _, tok := range []string{"A", "D", "W", "X"} {
		cmd, err := ParseCommand(tok)
		require.NoError(t, err)
		assert.Equal(t, 1, cmd.Player, tok)
	}
}

func TestToken(t *testing.T) {
	assert.Equal(t, "W", Token(1, player.ActionJump))
	assert.Equal(t, "P", Token(2, player.ActionAttack))
	assert.Equal(t, "", Token(3, player.ActionJump))
}

func TestTokensCoverAllCommands(t *testing.T) {
	toks := Tokens()
	assert.Len(t, toks, 10)
	assert.True(t, sort.StringsAreSorted(toks))
	for _, tok := range toks {
		_, err := ParseCommand(tok)
		assert.NoError(t, err, tok)
	}
}

func TestEncodeIsSingleLine(t *testing.T) {
	var buf bytes.Buffer
	above := 1
	require.NoError(t, Encode(&buf, PlayerUpdate{
		Type:        TypePlayerUpdate,
		SessionID:   "s1",
		PlayerAbove: &above,
		Enemies:     []EnemyState{{ID: "e", EnemyType: EnemyType(entity.KindBird)}},
	}))
	require.NoError(t, Encode(&buf, NewGameOver("s1", "bye")))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &raw))
	assert.Equal(t, "PLAYER_UPDATE", raw["type"])
	assert.Nil(t, raw["player2"])
	assert.Nil(t, raw["bonusPlayerId"])
	assert.EqualValues(t, 1, raw["playerAbove"])
	assert.Contains(t, raw, "fruits")
}

func TestDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, NewMap("abc", [][]int{{1, 1}, {1, 0}})))
	require.NoError(t, Encode(&buf, NewError("Server full")))

	r := bufio.NewReader(&buf)
	m, err := Decode(r)
	require.NoError(t, err)
	mm, ok := m.(MapMessage)
	require.True(t, ok)
	assert.Equal(t, 2, mm.Width)
	assert.Equal(t, 2, mm.Height)

	m, err = Decode(r)
	require.NoError(t, err)
	assert.Equal(t, TypeError, m.MessageType())

	_, err = Decode(bufio.NewReader(bytes.NewBufferString("{\"type\":\"NOPE\"}\n")))
	assert.Error(t, err)
}

func TestWireNames(t *testing.T) {
	assert.Equal(t, "Ground", EnemyType(entity.KindGround))
	assert.Equal(t, "Ice", EnemyType(entity.KindIce))
	assert.Equal(t, "Lettuce", FruitType(entity.FlavorLettuce))
}
