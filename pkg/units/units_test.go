package units_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethpandaops/regressoor/pkg/units"
)

func TestValid(t *testing.T) {
	assert.True(t, units.Valid("s"))
	assert.True(t, units.Valid("ns"))
	assert.True(t, units.Valid("B/s"))
	assert.True(t, units.Valid("i/s"))
	assert.False(t, units.Valid("furlongs"))
	assert.False(t, units.Valid(""))
}

func TestLessIsBetter(t *testing.T) {
	assert.True(t, units.LessIsBetter("s"))
	assert.True(t, units.LessIsBetter("ns"))
	assert.False(t, units.LessIsBetter("B/s"))
	assert.False(t, units.LessIsBetter("i/s"))

	// Unknown units are treated as duration-like.
	assert.True(t, units.LessIsBetter("furlongs"))
}

func TestName(t *testing.T) {
	assert.Equal(t, "seconds", units.Name("s"))
	assert.Equal(t, "bytes per second", units.Name("B/s"))
	assert.Equal(t, "furlongs", units.Name("furlongs"))
}
