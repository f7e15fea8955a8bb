package terrain

// Размеры стандартной карты
const (
	StandardWidth  = 26
	StandardHeight = 33
	// FloorSpacing - расстояние в строках между соседними этажами.
	FloorSpacing = 4
)

// Стартовые позиции игроков на нижнем этаже.
var (
	Player1Start = Cell{X: 2, Y: StandardHeight - 2}
	Player2Start = Cell{X: StandardWidth - 3, Y: StandardHeight - 2}
)

var bonusTrigger = []Cell{{X: 11, Y: 2}, {X: 12, Y: 2}}

var standardTemplate = buildStandard()

func buildStandard() Grid {
	g := make(Grid, StandardHeight)
	for y := range g {
		g[y] = make([]int, StandardWidth)
		full := y == 0 || y%FloorSpacing == 0
		for x := range g[y] {
			if full || x == 0 || x == StandardWidth-1 {
				g[y][x] = TileSolid
			}
		}
	}
	for _, c := range bonusTrigger {
		g[c.Y][c.X] = TileBonus
	}
	return g
}

// Standard возвращает свежую копию стандартной карты.
func Standard() Grid { return standardTemplate.Clone() }
