package player

import (
	"math"
	"time"

	"github.com/annelo/climber-server/internal/terrain"
)

// Физика и боевые параметры игрока
const (
	Gravity        = 0.02
	JumpForce      = -0.45
	MaxFallSpeed   = 0.5
	MoveSpeed      = 0.3
	GroundFriction = 0.8
	AirFriction    = 0.95

	AttackCooldown = 500 * time.Millisecond
	AttackFlash    = 200 * time.Millisecond
	AttackRange    = 1
	// EnemyHitRange чуть больше радиуса разрушения блоков.
	EnemyHitRange = AttackRange + 0.5

	InvulnerabilityTime = 2 * time.Second
	Knockback           = 0.5

	StartLives     = 3
	MaxLives       = 5
	PointsPerBlock = 10
)

// Action - намерение игрока, полученное от клиента.
type Action int

const (
	ActionNone Action = iota
	ActionLeft
	ActionRight
	ActionJump
	ActionAttack
)

// Player хранит состояние одного игрока сессии.
type Player struct {
	ID int

	X, Y   float64
	VX, VY float64

	Grounded  bool
	Jumping   bool
	Attacking bool

	LastAttack time.Time

	Lives        int
	Invulnerable bool
	LastDamage   time.Time

	Score int
}

// New создаёт игрока, стоящего на тайле spawn.
func New(id int, spawn terrain.Cell) *Player {
	p := &Player{ID: id}
	p.Reset(spawn)
	return p
}

func (p *Player) Alive() bool { return p.Lives > 0 }

// Tile возвращает тайл, в котором находится игрок (округление координат).
func (p *Player) Tile() (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// Reset полностью сбрасывает игрока: позиция, жизни, очки, неуязвимость.
func (p *Player) Reset(spawn terrain.Cell) {
	p.Teleport(spawn)
	p.Lives = StartLives
	p.Invulnerable = false
	p.LastDamage = time.Time{}
	p.LastAttack = time.Time{}
	p.Attacking = false
	p.Score = 0
}

// Teleport ставит игрока на тайл и гасит скорость, остальное не трогает.
func (p *Player) Teleport(c terrain.Cell) {
	p.X, p.Y = float64(c.X), float64(c.Y)
	p.VX, p.VY = 0, 0
	p.Grounded = true
	p.Jumping = false
}

// AddLife добавляет жизнь, не превышая MaxLives.
func (p *Player) AddLife() {
	if p.Lives < MaxLives {
		p.Lives++
	}
}

// ApplyInput применяет действие. Возвращает true, если атака состоялась:
// разрушение блоков и удар по врагам выполняет вызывающий код.
func (p *Player) ApplyInput(a Action, now time.Time) bool {
	if !p.Alive() {
		return false
	}
	switch a {
	case ActionLeft:
		p.VX = -MoveSpeed
	case ActionRight:
		p.VX = MoveSpeed
	case ActionJump:
		if p.Grounded && !p.Jumping {
			p.VY = JumpForce
			p.Grounded = false
			p.Jumping = true
		}
	case ActionAttack:
		return p.TryAttack(now)
	}
	return false
}

// TryAttack проверяет кулдаун и отмечает начало атаки.
func (p *Player) TryAttack(now time.Time) bool {
	if !p.Alive() {
		return false
	}
	if !p.LastAttack.IsZero() && now.Sub(p.LastAttack) < AttackCooldown {
		return false
	}
	p.Attacking = true
	p.LastAttack = now
	return true
}

// BreakBlocks разрушает блоки вокруг игрока и начисляет очки.
// Возвращает число разрушенных блоков.
func (p *Player) BreakBlocks(g terrain.Grid, blocks *terrain.DestroyedBlocks, now time.Time) int {
	tx, ty := p.Tile()
	n := blocks.DestroyAround(g, tx, ty, AttackRange, now)
	p.Score += n * PointsPerBlock
	return n
}

// InHitRange сообщает, достаёт ли удар игрока до точки (x,y).
func (p *Player) InHitRange(x, y float64) bool {
	return p.Distance(x, y) <= EnemyHitRange
}

// Distance - евклидово расстояние от игрока до точки.
func (p *Player) Distance(x, y float64) float64 {
	return math.Hypot(p.X-x, p.Y-y)
}

// CanTakeDamage - жив, не неуязвим и окно неуязвимости истекло.
func (p *Player) CanTakeDamage(now time.Time) bool {
	if !p.Alive() || p.Invulnerable {
		return false
	}
	return p.LastDamage.IsZero() || now.Sub(p.LastDamage) >= InvulnerabilityTime
}

// TakeDamage снимает жизнь и отбрасывает игрока от источника урона.
// Возвращает false, если урон не прошёл.
func (p *Player) TakeDamage(now time.Time, sourceX float64) bool {
	if !p.CanTakeDamage(now) {
		return false
	}
	p.Lives--
	p.Invulnerable = true
	p.LastDamage = now
	if p.X > sourceX {
		p.VX = Knockback
	} else {
		p.VX = -Knockback
	}
	return true
}

// Tick выполняет один шаг физики. Мёртвый игрок не обновляется.
func (p *Player) Tick(g terrain.Grid, now time.Time) {
	if !p.Alive() {
		return
	}
	if p.Invulnerable && now.Sub(p.LastDamage) >= InvulnerabilityTime {
		p.Invulnerable = false
	}

	if !p.Grounded {
		p.VY = math.Min(p.VY+Gravity, MaxFallSpeed)
	}
	p.X += p.VX
	p.Y += p.VY
	p.collide(g)

	if p.Grounded {
		p.VX *= GroundFriction
	} else {
		p.VX *= AirFriction
	}
	if math.Abs(p.VX) < 1e-3 {
		p.VX = 0
	}

	if p.Attacking && now.Sub(p.LastAttack) > AttackFlash {
		p.Attacking = false
	}
}

func (p *Player) collide(g terrain.Grid) {
	w, h := float64(g.Width()), float64(g.Height())
	p.X = math.Max(0, math.Min(p.X, w-1))
	p.Y = math.Max(0, math.Min(p.Y, h-1))
	p.Grounded = false

	// Вертикаль: потолок или приземление
	tx, ty := p.Tile()
	if g.Solid(tx, ty) {
		if p.VY < 0 {
			p.Y = float64(ty + 1)
			p.VY = 0
		} else if p.VY > 0 {
			p.land(float64(ty - 1))
		}
	}

	// Горизонталь: выталкиваем против направления движения
	tx, ty = p.Tile()
	if g.Solid(tx, ty) {
		if p.VX > 0 {
			p.X = float64(tx - 1)
		} else if p.VX < 0 {
			p.X = float64(tx + 1)
		}
		p.VX = 0
	}

	tx, ty = p.Tile()
	if !p.Grounded && p.VY >= 0 && g.Solid(tx, ty+1) && ty+1 < g.Height() {
		p.land(float64(ty))
	}
	if p.VY < 0 && ty > 0 && g.Solid(tx, ty-1) {
		p.Y = float64(ty)
		p.VY = 0
	}
}

func (p *Player) land(y float64) {
	p.Y = y
	p.VY = 0
	p.Grounded = true
	p.Jumping = false
}
