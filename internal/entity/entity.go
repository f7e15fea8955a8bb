package entity

import (
	"math"
	"math/rand"
	"time"

	"github.com/annelo/climber-server/internal/terrain"
)

// Параметры врагов
const (
	TTL = 30 * time.Second

	GroundSpeed = 0.1

	BirdSpeedX          = 0.08
	BirdSpeedY          = 0.05
	BirdTurnInterval    = 2 * time.Second
	BirdTargetTolerance = 0.5

	IceSpeed     = 0.15
	IceFallDelay = time.Second

	// CollisionDistance - дистанция контакта игрока с сущностью.
	CollisionDistance = 1.0

	GroundHitPoints = 50
	KillPoints      = 100
)

// GroundState - состояние наземного врага.
type GroundState int

const (
	GroundNormal GroundState = iota
	GroundRetreating
)

// Env - всё, что нужно сущности на одном тике.
type Env struct {
	Grid  terrain.Grid
	Speed float64 // текущий глобальный множитель скорости
	Rand  *rand.Rand
	Now   time.Time
}

// Entity - враг или фрукт. Поведение выбирается по Kind через таблицу behaviors.
type Entity struct {
	ID        string
	Kind      Kind
	X, Y      float64
	VX, VY    float64
	Active    bool
	CanDamage bool
	CreatedAt time.Time

	// Фрукты
	Flavor Flavor

	ground groundData
	bird   birdData
	ice    iceData
}

type groundData struct {
	state    GroundState
	fromLeft bool
	dir      float64
}

type birdData struct {
	dir      float64
	targetY  float64
	nextTurn time.Time
}

type iceData struct {
	fallAt time.Time
}

// Hit - результат удара игрока по сущности.
type Hit struct {
	Points  int
	Removed bool
}

type behavior struct {
	update     func(e *Entity, env Env)
	onAttacked func(e *Entity) Hit
}

var behaviors = map[Kind]behavior{
	KindGround: {update: updateGround, onAttacked: attackGround},
	KindBird:   {update: updateBird, onAttacked: kill},
	KindIce:    {update: updateIce, onAttacked: kill},
	KindFruit:  {update: func(*Entity, Env) {}, onAttacked: func(*Entity) Hit { return Hit{} }},
}

// Update продвигает сущность на один тик. Неактивные сущности не двигаются.
func (e *Entity) Update(env Env) {
	if !e.Active {
		return
	}
	behaviors[e.Kind].update(e, env)
}

// OnAttacked применяет удар игрока.
func (e *Entity) OnAttacked() Hit {
	if !e.Active {
		return Hit{}
	}
	return behaviors[e.Kind].onAttacked(e)
}

// Expired - время жизни истекло.
func (e *Entity) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= TTL
}

// IsEnemy - враги участвуют в атаке и наносят урон, фрукты нет.
func (e *Entity) IsEnemy() bool { return e.Kind != KindFruit }

// GroundState возвращает состояние наземного врага.
func (e *Entity) GroundState() GroundState { return e.ground.state }

// Direction - знак направления движения наземного врага или птицы.
func (e *Entity) Direction() float64 {
	switch e.Kind {
	case KindGround:
		return e.ground.dir
	case KindBird:
		return e.bird.dir
	}
	return 0
}

// Touches - контакт с точкой (x,y) на дистанции CollisionDistance.
func (e *Entity) Touches(x, y float64) bool {
	return math.Hypot(e.X-x, e.Y-y) <= CollisionDistance
}

func kill(e *Entity) Hit {
	e.Active = false
	return Hit{Points: KillPoints, Removed: true}
}

func attackGround(e *Entity) Hit {
	g := &e.ground
	g.state = GroundRetreating
	e.CanDamage = false
	if g.fromLeft {
		g.dir = -1
	} else {
		g.dir = 1
	}
	return Hit{Points: GroundHitPoints}
}

func updateGround(e *Entity, env Env) {
	g := &e.ground
	w := env.Grid.Width()
	e.VX = g.dir * GroundSpeed * env.Speed
	e.X += e.VX
	tx, ty := int(math.Round(e.X)), int(math.Round(e.Y))

	if g.state == GroundRetreating {
		e.X = math.Max(1, math.Min(e.X, float64(w-2)))
		if (g.fromLeft && e.X <= 1) || (!g.fromLeft && e.X >= float64(w-2)) {
			g.state = GroundNormal
			e.CanDamage = true
			g.dir = spawnDirection(g.fromLeft)
			e.VX = g.dir * GroundSpeed * env.Speed
		}
		return
	}

	ahead := tx + int(g.dir)
	if tx <= 0 || tx >= w-1 || env.Grid.Solid(ahead, ty) {
		g.dir = -g.dir
	}
}

func spawnDirection(fromLeft bool) float64 {
	if fromLeft {
		return 1
	}
	return -1
}

func updateBird(e *Entity, env Env) {
	b := &e.bird
	w, h := env.Grid.Width(), env.Grid.Height()

	if !env.Now.Before(b.nextTurn) {
		if env.Rand.Intn(2) == 0 {
			b.dir = 1
		} else {
			b.dir = -1
		}
		retarget(e, env)
		b.nextTurn = env.Now.Add(BirdTurnInterval)
	}

	e.VX = b.dir * BirdSpeedX * env.Speed
	if d := b.targetY - e.Y; math.Abs(d) > BirdTargetTolerance {
		e.VY = math.Copysign(BirdSpeedY*env.Speed, d)
	} else {
		e.VY = 0
		retarget(e, env)
	}
	e.X += e.VX
	e.Y += e.VY

	if e.X < 1 {
		e.X = 1
		b.dir = 1
	}
	if e.X > float64(w-2) {
		e.X = float64(w - 2)
		b.dir = -1
	}
	e.Y = math.Max(1, math.Min(e.Y, float64(h-2)))
}

// retarget выбирает строку над случайным рядом с твёрдыми тайлами, кроме текущего.
// Без таких рядов берётся случайная высота из [1, h-2).
func retarget(e *Entity, env Env) {
	g := env.Grid
	current := int(math.Round(e.Y))
	var rows []int
	for y := 1; y < g.Height()-1; y++ {
		if y == current {
			continue
		}
		for x := 1; x < g.Width()-1; x++ {
			if g.Solid(x, y) {
				rows = append(rows, y-1)
				break
			}
		}
	}
	if len(rows) == 0 {
		span := g.Height() - 3
		if span < 1 {
			e.bird.targetY = 1
			return
		}
		e.bird.targetY = float64(1 + env.Rand.Intn(span))
		return
	}
	e.bird.targetY = float64(rows[env.Rand.Intn(len(rows))])
}

func updateIce(e *Entity, env Env) {
	if env.Now.Before(e.ice.fallAt) {
		e.VY = 0
		return
	}
	e.VY = IceSpeed * env.Speed
	e.Y += e.VY
	if e.Y >= float64(env.Grid.Height()) {
		e.Active = false
	}
}
