package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/climber-server/internal/terrain"
)

const tick = 16 * time.Millisecond

func TestJumpReturnsToFloor(t *testing.T) {
	g := terrain.Standard()
	p := New(1, terrain.Cell{X: 2, Y: 31})
	now := time.Unix(0, 0)

	require.Equal(t, StartLives, p.Lives)
	p.Tick(g, now)
	require.True(t, p.Grounded)

	p.ApplyInput(ActionJump, now)
	assert.False(t, p.Grounded)
	assert.True(t, p.Jumping)

	left := false
	for i := 0; i < 200; i++ {
		now = now.Add(tick)
		p.Tick(g, now)
		if p.Y < 30.5 {
			left = true
		}
	}

	assert.True(t, left, "player must actually leave the floor")
	assert.True(t, p.Grounded)
	assert.False(t, p.Jumping)
	assert.InDelta(t, 31.0, p.Y, 1e-9)
	assert.InDelta(t, 2.0, p.X, 1e-9)
	assert.InDelta(t, 0.0, p.VY, 1e-9)
	assert.InDelta(t, 0.0, p.VX, 1e-9)
}

func TestJumpRequiresGround(t *testing.T) {
	p := New(1, terrain.Cell{X: 2, Y: 31})
	p.Grounded = false
	p.ApplyInput(ActionJump, time.Now())
	assert.Equal(t, 0.0, p.VY)
}

func TestWallStopsPlayer(t *testing.T) {
	g := terrain.Standard()
	p := New(1, terrain.Cell{X: 2, Y: 31})
	now := time.Unix(0, 0)
	for i := 0; i < 30; i++ {
		p.ApplyInput(ActionLeft, now)
		now = now.Add(tick)
		p.Tick(g, now)
	}
	tx, ty := p.Tile()
	assert.Equal(t, 31, ty)
	assert.GreaterOrEqual(t, tx, 1)
	assert.True(t, g.Empty(tx, ty))
}

func TestInvulnerabilityWindow(t *testing.T) {
	p := New(1, terrain.Cell{X: 5, Y: 31})
	now := time.Unix(100, 0)

	assert.True(t, p.TakeDamage(now, 4))
	assert.False(t, p.TakeDamage(now.Add(InvulnerabilityTime-time.Millisecond), 4))
	assert.Equal(t, StartLives-1, p.Lives)
	assert.True(t, p.Invulnerable)
	assert.Equal(t, Knockback, p.VX, "knockback pushes away from the source")

	g := terrain.Standard()
	p.Tick(g, now.Add(InvulnerabilityTime))
	assert.False(t, p.Invulnerable)
	assert.True(t, p.TakeDamage(now.Add(InvulnerabilityTime), 6))
	assert.Equal(t, StartLives-2, p.Lives)
	assert.Equal(t, -Knockback, p.VX)
}

func TestDeadPlayerIsInert(t *testing.T) {
	g := terrain.Standard()
	p := New(1, terrain.Cell{X: 5, Y: 31})
	p.Lives = 1
	now := time.Unix(0, 0)
	require.True(t, p.TakeDamage(now, 0))
	require.False(t, p.Alive())

	x, y := p.X, p.Y
	assert.False(t, p.ApplyInput(ActionAttack, now))
	p.ApplyInput(ActionRight, now)
	p.ApplyInput(ActionJump, now)
	p.Tick(g, now.Add(tick))
	assert.False(t, p.CanTakeDamage(now.Add(10*time.Second)))
	assert.Equal(t, x, p.X)
	assert.Equal(t, y, p.Y)

	p.Reset(terrain.Cell{X: 2, Y: 31})
	assert.Equal(t, StartLives, p.Lives)
	assert.False(t, p.Invulnerable)
	assert.Equal(t, 0, p.Score)
}

func TestAttackCooldownAndBlocks(t *testing.T) {
	g := terrain.Standard()
	blocks := terrain.NewDestroyedBlocks(terrain.RegenDelay)
	p := New(1, terrain.Cell{X: 5, Y: 29})
	now := time.Unix(0, 0)

	require.True(t, p.ApplyInput(ActionAttack, now))
	assert.True(t, p.Attacking)
	assert.Equal(t, 1, p.BreakBlocks(g, blocks, now))
	assert.Equal(t, PointsPerBlock, p.Score)

	assert.False(t, p.ApplyInput(ActionAttack, now.Add(AttackCooldown-time.Millisecond)))
	assert.True(t, p.ApplyInput(ActionAttack, now.Add(AttackCooldown)))

	p.Tick(g, now.Add(AttackCooldown+AttackFlash+time.Millisecond))
	assert.False(t, p.Attacking)
}

func TestAddLifeCapped(t *testing.T) {
	p := New(1, terrain.Cell{X: 2, Y: 31})
	for i := 0; i < 10; i++ {
		p.AddLife()
	}
	assert.Equal(t, MaxLives, p.Lives)

	p.Lives = 0
	p.AddLife()
	assert.Equal(t, 1, p.Lives)
}
