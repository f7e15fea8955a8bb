package mapgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/climber-server/internal/terrain"
)

func TestBonusDeterministic(t *testing.T) {
	a := NewGenerator(42).Bonus(terrain.StandardWidth, terrain.StandardHeight)
	b := NewGenerator(42).Bonus(terrain.StandardWidth, terrain.StandardHeight)
	assert.Equal(t, a, b)
}

func TestBonusInvariants(t *testing.T) {
	for _, seed := range []int64{0, 1, 42, 1337, 99999} {
		g := NewGenerator(seed).Bonus(terrain.StandardWidth, terrain.StandardHeight)
		require.Equal(t, terrain.StandardWidth, g.Width())
		require.Equal(t, terrain.StandardHeight, g.Height())

		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				if g.IsBorder(x, y) {
					assert.Equal(t, terrain.TileSolid, g.At(x, y), "border (%d,%d) seed %d", x, y, seed)
				}
				assert.NotEqual(t, terrain.TileBonus, g.At(x, y))
			}
		}

		start := BonusStart(g)
		assert.Equal(t, terrain.TileEmpty, g.At(start.X, start.Y))
		assert.True(t, g.Solid(start.X, start.Y+1))
	}
}

func TestNormalizedRange(t *testing.T) {
	nm := NewNoiseMap(3, noiseScale)
	for x := 0; x < 50; x++ {
		v := nm.Normalized2D(float64(x)+0.5, 7.5, noiseOctaves)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
