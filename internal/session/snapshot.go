package session

import (
	"time"

	"github.com/annelo/climber-server/internal/player"
	"github.com/annelo/climber-server/internal/protocol"
)

// Snapshot собирает PLAYER_UPDATE для текущего состояния.
func (s *Session) Snapshot(now time.Time) protocol.PlayerUpdate {
	msg := protocol.PlayerUpdate{
		Type:            protocol.TypePlayerUpdate,
		SessionID:       s.id,
		Player1:         playerState(s.players[0]),
		IsPlayer2Active: s.p2Active,
		IsBonusPhase:    s.mode == ModeBonus,
		Enemies:         make([]protocol.EnemyState, 0, len(s.enemies)),
		Fruits:          make([]protocol.FruitState, 0, len(s.fruits)),
	}
	if s.p2Active {
		p2 := playerState(s.players[1])
		msg.Player2 = &p2
	}

	if s.mode == ModeBonus {
		id := s.bonusPlayer
		msg.BonusPlayerID = &id
		left := BonusDuration - now.Sub(s.bonusStart)
		if left < 0 {
			left = 0
		}
		msg.BonusTimeRemaining = left.Milliseconds()
	} else if s.p2Active && s.players[0].Alive() && s.players[1].Alive() {
		// Меньший Y - выше на экране.
		var above int
		switch {
		case s.players[0].Y < s.players[1].Y:
			above = 1
		case s.players[1].Y < s.players[0].Y:
			above = 2
		}
		if above != 0 {
			msg.PlayerAbove = &above
		}
	}

	for _, e := range s.enemies {
		msg.Enemies = append(msg.Enemies, protocol.EnemyState{
			ID:        e.ID,
			X:         e.X,
			Y:         e.Y,
			IsActive:  e.Active,
			EnemyType: protocol.EnemyType(e.Kind),
		})
	}
	for _, f := range s.fruits {
		msg.Fruits = append(msg.Fruits, protocol.FruitState{
			ID:        f.ID,
			X:         f.X,
			Y:         f.Y,
			IsActive:  f.Active,
			FruitType: protocol.FruitType(f.Flavor),
			Points:    f.Flavor.Points(),
		})
	}
	return msg
}

func playerState(p *player.Player) protocol.PlayerState {
	return protocol.PlayerState{
		X:              p.X,
		Y:              p.Y,
		IsOnGround:     p.Grounded,
		IsJumping:      p.Jumping,
		IsAttacking:    p.Attacking,
		Lives:          p.Lives,
		Score:          p.Score,
		IsInvulnerable: p.Invulnerable,
		IsAlive:        p.Alive(),
	}
}
