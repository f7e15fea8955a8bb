package terrain

import (
	"math"
	"time"
)

// RegenDelay - через сколько разрушенный блок восстанавливается.
const RegenDelay = 3 * time.Second

// DestroyedBlocks хранит время разрушения каждого выбитого блока.
// Тайл, присутствующий в карте, всегда пуст в сетке.
type DestroyedBlocks struct {
	at    map[Cell]time.Time
	delay time.Duration
}

func NewDestroyedBlocks(delay time.Duration) *DestroyedBlocks {
	if delay <= 0 {
		delay = RegenDelay
	}
	return &DestroyedBlocks{at: make(map[Cell]time.Time), delay: delay}
}

// Destroy выбивает твёрдый блок не на границе и запоминает момент разрушения.
func (d *DestroyedBlocks) Destroy(g Grid, c Cell, now time.Time) bool {
	if g.IsBorder(c.X, c.Y) || g.At(c.X, c.Y) != TileSolid {
		return false
	}
	g[c.Y][c.X] = TileEmpty
	d.at[c] = now
	return true
}

// DestroyAround разрушает блоки в радиусе radius вокруг (tx,ty), только на
// уровне атакующего и выше (dy <= 0), поэтому строка под ним, включая опорный
// тайл, не затрагивается. Возвращает число разрушенных блоков.
func (d *DestroyedBlocks) DestroyAround(g Grid, tx, ty, radius int, now time.Time) int {
	count := 0
	for dy := -radius; dy <= 0; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if math.Sqrt(float64(dx*dx+dy*dy)) > float64(radius) {
				continue
			}
			c := Cell{X: tx + dx, Y: ty + dy}
			if d.Destroy(g, c, now) {
				count++
			}
		}
	}
	return count
}

// Regenerate восстанавливает блоки, простоявшие разрушенными не меньше задержки.
// Каждый блок восстанавливается ровно один раз.
func (d *DestroyedBlocks) Regenerate(g Grid, now time.Time) int {
	restored := 0
	for c, t := range d.at {
		if now.Sub(t) < d.delay {
			continue
		}
		g.Set(c.X, c.Y, TileSolid)
		delete(d.at, c)
		restored++
	}
	return restored
}

func (d *DestroyedBlocks) Has(c Cell) bool {
	_, ok := d.at[c]
	return ok
}

func (d *DestroyedBlocks) Len() int { return len(d.at) }

// Clear забывает все разрушения, сетка при этом не меняется.
func (d *DestroyedBlocks) Clear() {
	d.at = make(map[Cell]time.Time)
}
