package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedCoord(t *testing.T) {
	// cache.wifi-style value: nine digits, degrees * 1e7.
	assert.InDelta(t, 37.7749, CoordE7(377749000), 1e-9)
	assert.InDelta(t, -122.4194, CoordE7(-1224194000), 1e-9)

	// map destination history stores degrees * 1e6.
	assert.InDelta(t, 37.7749, CoordE6(37774900), 1e-9)

	assert.Equal(t, 0.0, FixedCoord(123, 0))
}

func TestValidCoord(t *testing.T) {
	assert.True(t, ValidCoord(37.7749, -122.4194))
	assert.False(t, ValidCoord(0, 0))
	assert.False(t, ValidCoord(91, 10))
	assert.False(t, ValidCoord(10, -181))
}
