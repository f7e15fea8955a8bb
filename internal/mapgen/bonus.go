package mapgen

import "github.com/annelo/climber-server/internal/terrain"

const (
	// DefaultSeed используется, если в конфигурации сид не задан.
	DefaultSeed int64 = 1337

	noiseScale    = 0.17
	noiseOctaves  = 3
	platformLevel = 0.47
	// Через сколько строк идут ряды платформ бонусной карты.
	rowSpacing = 3
)

// BonusStart - тайл, на который переносится игрок при входе в бонусную фазу.
func BonusStart(g terrain.Grid) terrain.Cell {
	return terrain.Cell{X: 2, Y: g.Height() - 2}
}

// Generator строит бонусную карту из шума Перлина. Один и тот же сид
// всегда даёт одну и ту же раскладку.
type Generator struct {
	noise *NoiseMap
}

func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Generator{noise: NewNoiseMap(seed, noiseScale)}
}

// Bonus генерирует бонусную карту размером width x height.
// Граница твёрдая, стартовый тайл свободен и стоит на опоре, триггеров нет.
func (gen *Generator) Bonus(width, height int) terrain.Grid {
	g := make(terrain.Grid, height)
	for y := range g {
		g[y] = make([]int, width)
		for x := range g[y] {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				g[y][x] = terrain.TileSolid
			}
		}
	}

	for y := height - 1 - rowSpacing; y > 1; y -= rowSpacing {
		gaps := 0
		for x := 1; x < width-1; x++ {
			// Смещение на полклетки: на целых узлах шум Перлина равен нулю.
			v := gen.noise.Normalized2D(float64(x)+0.5, float64(y)+0.5, noiseOctaves)
			if v >= platformLevel {
				g[y][x] = terrain.TileSolid
			} else {
				gaps++
			}
		}
		// Ряд без единой дыры отрезал бы верх карты.
		if gaps == 0 {
			g[y][width/2] = terrain.TileEmpty
		}
	}

	start := BonusStart(g)
	g[start.Y][start.X] = terrain.TileEmpty
	g[start.Y-1][start.X] = terrain.TileEmpty
	return g
}
