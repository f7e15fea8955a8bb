package entity

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Constructor создаёт сущность заданного варианта в точке (x,y).
type Constructor func(x, y float64, env Env) *Entity

var constructors = map[Kind]Constructor{
	KindGround: newGround,
	KindBird:   newBird,
	KindIce:    newIce,
	KindFruit: func(x, y float64, env Env) *Entity {
		return NewRandomFruit(env.Rand, x, y, env.Now)
	},
}

// New создаёт сущность через таблицу конструкторов.
func New(kind Kind, x, y float64, env Env) (*Entity, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("no constructor for %v", kind)
	}
	return ctor(x, y, env), nil
}

func base(kind Kind, x, y float64, now time.Time) *Entity {
	return &Entity{
		ID:        uuid.NewString(),
		Kind:      kind,
		X:         x,
		Y:         y,
		Active:    true,
		CanDamage: true,
		CreatedAt: now,
	}
}

// newGround: враг, появившийся в левой половине карты, идёт вправо, и наоборот.
func newGround(x, y float64, env Env) *Entity {
	e := base(KindGround, x, y, env.Now)
	e.ground.fromLeft = x < float64(env.Grid.Width())/2
	e.ground.dir = spawnDirection(e.ground.fromLeft)
	e.VX = e.ground.dir * GroundSpeed * env.Speed
	return e
}

func newBird(x, y float64, env Env) *Entity {
	e := base(KindBird, x, y, env.Now)
	e.bird.dir = 1
	e.bird.targetY = y
	e.bird.nextTurn = env.Now.Add(BirdTurnInterval)
	return e
}

func newIce(x, y float64, env Env) *Entity {
	e := base(KindIce, x, y, env.Now)
	e.ice.fallAt = env.Now.Add(IceFallDelay)
	return e
}

// NewFruit создаёт фрукт заданного вида.
func NewFruit(f Flavor, x, y float64, now time.Time) *Entity {
	e := base(KindFruit, x, y, now)
	e.CanDamage = false
	e.Flavor = f
	return e
}

// NewRandomFruit выбирает вид фрукта случайно.
func NewRandomFruit(rng *rand.Rand, x, y float64, now time.Time) *Entity {
	return NewFruit(Flavors[rng.Intn(len(Flavors))], x, y, now)
}
