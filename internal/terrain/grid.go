package terrain

import "math/rand"

// Типы тайлов
const (
	TileEmpty = 0
	TileSolid = 1
	TileBonus = 2
)

// Cell - координата тайла в сетке.
type Cell struct {
	X int
	Y int
}

// Grid - прямоугольная сетка тайлов, индексируется как g[y][x].
type Grid [][]int

// Width возвращает ширину сетки в тайлах.
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height возвращает высоту сетки в тайлах.
func (g Grid) Height() int { return len(g) }

// Clone создаёт независимую копию сетки.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for y, row := range g {
		out[y] = append([]int(nil), row...)
	}
	return out
}

// InBounds сообщает, лежит ли тайл внутри сетки.
func (g Grid) InBounds(x, y int) bool {
	return y >= 0 && y < len(g) && x >= 0 && x < len(g[y])
}

// At возвращает значение тайла; за пределами сетки всё считается твёрдым.
func (g Grid) At(x, y int) int {
	if !g.InBounds(x, y) {
		return TileSolid
	}
	return g[y][x]
}

// Set записывает значение тайла, координаты вне сетки игнорируются.
func (g Grid) Set(x, y, v int) {
	if g.InBounds(x, y) {
		g[y][x] = v
	}
}

func (g Grid) Solid(x, y int) bool { return g.At(x, y) == TileSolid }

func (g Grid) Empty(x, y int) bool { return g.At(x, y) == TileEmpty }

// IsBorder - крайние строки и столбцы карты, они неразрушимы.
func (g Grid) IsBorder(x, y int) bool {
	return x <= 0 || y <= 0 || x >= g.Width()-1 || y >= g.Height()-1
}

// FullRow сообщает, что вся строка состоит из твёрдых тайлов.
func (g Grid) FullRow(y int) bool {
	if y < 0 || y >= len(g) {
		return false
	}
	for _, v := range g[y] {
		if v != TileSolid {
			return false
		}
	}
	return true
}

// FloorBelow возвращает ближайшую полностью твёрдую строку на уровне y или ниже.
// Если такой строки нет, возвращается нижняя граница.
func (g Grid) FloorBelow(y int) int {
	if y < 0 {
		y = 0
	}
	for row := y; row < len(g); row++ {
		if g.FullRow(row) {
			return row
		}
	}
	return len(g) - 1
}

// StandingRows возвращает строки, на которых можно стоять: пустая строка над
// строкой, содержащей твёрдый тайл не на границе.
func (g Grid) StandingRows() []int {
	var rows []int
	for y := 1; y < g.Height()-1; y++ {
		for x := 1; x < g.Width()-1; x++ {
			if g.Empty(x, y) && g.Solid(x, y+1) {
				rows = append(rows, y)
				break
			}
		}
	}
	return rows
}

// NearBonus проверяет тайл и его 8 соседей на наличие бонусного триггера.
func (g Grid) NearBonus(x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if g.InBounds(x+dx, y+dy) && g[y+dy][x+dx] == TileBonus {
				return true
			}
		}
	}
	return false
}

// RandomEmptyTile выбирает случайный пустой тайл вне границы не более чем за attempts попыток.
func (g Grid) RandomEmptyTile(rng *rand.Rand, attempts int) (Cell, bool) {
	w, h := g.Width(), g.Height()
	if w < 3 || h < 3 {
		return Cell{}, false
	}
	for i := 0; i < attempts; i++ {
		x := 1 + rng.Intn(w-2)
		y := 1 + rng.Intn(h-2)
		if g[y][x] == TileEmpty {
			return Cell{X: x, Y: y}, true
		}
	}
	return Cell{}, false
}
