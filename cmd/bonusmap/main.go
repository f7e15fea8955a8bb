package main

import (
	"flag"
	"fmt"

	"github.com/annelo/climber-server/internal/mapgen"
	"github.com/annelo/climber-server/internal/terrain"
)

var (
	seed   = flag.Int64("seed", mapgen.DefaultSeed, "Сид бонусной карты")
	width  = flag.Int("w", terrain.StandardWidth, "Ширина карты")
	height = flag.Int("h", terrain.StandardHeight, "Высота карты")
	noise  = flag.Bool("noise", false, "Показать также сырое поле шума")
)

func main() {
	flag.Parse()
	fmt.Printf("Seed: %d\n", *seed)

	g := mapgen.NewGenerator(*seed).Bonus(*width, *height)
	fmt.Println("\nБонусная карта:")
	visualizeGrid(g)

	if *noise {
		fmt.Println("\nШум:")
		visualizeNoise(mapgen.NewNoiseMap(*seed, 0.1))
	}
}

// visualizeGrid печатает карту; S - стартовая клетка бонусного игрока.
func visualizeGrid(g terrain.Grid) {
	start := mapgen.BonusStart(g)
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			switch {
			case x == start.X && y == start.Y:
				fmt.Print("S")
			case g.Solid(x, y):
				fmt.Print("#")
			default:
				fmt.Print(".")
			}
		}
		fmt.Println()
	}
}

// visualizeNoise печатает нормализованный шум символами от низкого к высокому.
func visualizeNoise(nm *mapgen.NoiseMap) {
	chars := []rune{' ', '.', '-', '=', '#', '@'}
	for y := 0; y < *height; y++ {
		for x := 0; x < *width; x++ {
			v := nm.Normalized2D(float64(x)+0.5, float64(y)+0.5, 3)
			idx := int(v * float64(len(chars)-1))
			if idx >= len(chars) {
				idx = len(chars) - 1
			}
			if idx < 0 {
				idx = 0
			}
			fmt.Print(string(chars[idx]))
		}
		fmt.Println()
	}
}
