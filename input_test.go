package herobg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	fl "herobg/frameloop"
)

func TestNormalizePointer(t *testing.T) {
	assert.Equal(t, fl.FPt(0.5, 0.25), NormalizePointer(50, 25, 100, 100))
	assert.Equal(t, fl.FPt(1, 0), NormalizePointer(200, -5, 100, 100))
	assert.Equal(t, fl.FPt(0, 1), NormalizePointer(-1, 1000, 100, 100))
	assert.Equal(t, fl.FPt(0.5, 0.5), NormalizePointer(10, 10, 0, 100))
}
