package mapgen

import "github.com/aquilax/go-perlin"

// NoiseMap - обёртка над шумом Перлина с октавами.
type NoiseMap struct {
	perlin      *perlin.Perlin
	scale       float64 // Масштаб (чем меньше, тем более плавный рисунок)
	persistence float64 // Множитель амплитуды между октавами
	lacunarity  float64 // Множитель частоты между октавами
}

// NewNoiseMap создает новую карту шума с заданными параметрами
func NewNoiseMap(seed int64, scale float64) *NoiseMap {
	// alpha - персистентность, beta - лакунарность, n - количество октав
	return &NoiseMap{
		perlin:      perlin.NewPerlin(2.0, 2.0, 3, seed),
		scale:       scale,
		persistence: 0.5,
		lacunarity:  2.0,
	}
}

// Octave2D возвращает шум с заданным числом октав в диапазоне [-1, 1].
func (nm *NoiseMap) Octave2D(x, y float64, octaves int) float64 {
	sx, sy := x*nm.scale, y*nm.scale
	amplitude, frequency := 1.0, 1.0
	total, maxValue := 0.0, 0.0
	for i := 0; i < octaves; i++ {
		total += nm.perlin.Noise2D(sx*frequency, sy*frequency) * amplitude
		maxValue += amplitude
		amplitude *= nm.persistence
		frequency *= nm.lacunarity
	}
	if maxValue == 0 {
		return 0
	}
	return total / maxValue
}

// Normalized2D возвращает шум, приведённый к [0, 1].
func (nm *NoiseMap) Normalized2D(x, y float64, octaves int) float64 {
	v := (nm.Octave2D(x, y, octaves) + 1) / 2
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
